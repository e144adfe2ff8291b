package bot

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	id "joingate/pkg/domain"
	"joingate/pkg/requestcontext"
)

// Verifier consumes normalised verification events.
type Verifier interface {
	HandleJoinRequest(ctx context.Context, req models.JoinRequest) error
	HandleGroupMessage(ctx context.Context, msg models.GroupMessage) error
}

// Commander answers chat commands. handled is false for ordinary messages.
type Commander interface {
	Dispatch(ctx context.Context, caller id.UserID, groupID id.GroupID, text string) (reply string, handled bool)
}

// Dispatcher routes raw gateway events: join requests to the verifier, group
// messages to the command layer first and the verifier second.
type Dispatcher struct {
	verifier  Verifier
	commands  Commander
	messenger ports.Platform
	logger    *slog.Logger
}

// NewDispatcher wires the event routes. commands may be nil to disable chat
// administration.
func NewDispatcher(verifier Verifier, commands Commander, messenger ports.Platform, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		verifier:  verifier,
		commands:  commands,
		messenger: messenger,
		logger:    logger,
	}
}

// HandleEvent is an EventHandler.
func (d *Dispatcher) HandleEvent(ctx context.Context, raw []byte) {
	ctx = requestcontext.WithRequestID(ctx, uuid.NewString())

	req, ok, err := ParseJoinRequest(raw)
	if err != nil {
		d.logger.WarnContext(ctx, "discarding malformed gateway event", "error", err)
		return
	}
	if ok {
		if err := d.verifier.HandleJoinRequest(ctx, req); err != nil {
			d.logger.ErrorContext(ctx, "join request handling failed",
				"group_id", req.GroupID,
				"user_id", req.UserID,
				"error", err,
			)
		}
		return
	}

	msg, ok, err := ParseGroupMessage(raw)
	if err != nil {
		d.logger.WarnContext(ctx, "discarding malformed group message", "error", err)
		return
	}
	if !ok {
		return
	}

	if d.commands != nil {
		reply, handled := d.commands.Dispatch(requestcontext.WithOperatorID(ctx, msg.UserID), msg.UserID, msg.GroupID, msg.Text)
		if handled {
			if err := d.messenger.SendMessage(ctx, msg.GroupID, models.Message{Text: reply}); err != nil {
				d.logger.WarnContext(ctx, "failed to send command reply",
					"group_id", msg.GroupID,
					"error", err,
				)
			}
			return
		}
	}

	if err := d.verifier.HandleGroupMessage(ctx, msg); err != nil {
		d.logger.ErrorContext(ctx, "group message handling failed",
			"group_id", msg.GroupID,
			"user_id", msg.UserID,
			"error", err,
		)
	}
}
