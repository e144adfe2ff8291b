package bot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
)

// ErrUnsupportedPlatform is returned for actions the selected dialect has no
// mapping for.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Caller executes one gateway action and returns its data payload.
type Caller interface {
	Call(ctx context.Context, action string, params any) (json.RawMessage, error)
}

// Adapter implements the platform port on top of a gateway Caller, translating
// each operation into the action names and payloads of a dialect.
type Adapter struct {
	caller   Caller
	fallback Dialect
	logger   *slog.Logger
}

type AdapterOption func(*Adapter)

func WithAdapterLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter builds an Adapter whose default dialect is used for messaging,
// membership and for requests that do not carry their own dialect.
func NewAdapter(caller Caller, dialect Dialect, opts ...AdapterOption) (*Adapter, error) {
	if caller == nil {
		return nil, errors.New("caller is required")
	}
	if _, err := ParseDialect(string(dialect)); err != nil {
		return nil, err
	}
	a := &Adapter{
		caller:   caller,
		fallback: dialect,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Adapter) dialectOf(req models.JoinRequest) Dialect {
	if req.Platform == "" {
		return a.fallback
	}
	return Dialect(req.Platform)
}

// Approve accepts the join request.
func (a *Adapter) Approve(ctx context.Context, req models.JoinRequest) error {
	return a.decide(ctx, req, true, "")
}

// Reject declines the join request with reason shown to the applicant where
// the platform supports it.
func (a *Adapter) Reject(ctx context.Context, req models.JoinRequest, reason string) error {
	return a.decide(ctx, req, false, reason)
}

func (a *Adapter) decide(ctx context.Context, req models.JoinRequest, approve bool, reason string) error {
	var (
		action string
		params map[string]any
	)
	switch d := a.dialectOf(req); d {
	case DialectOneBot:
		action = "set_group_add_request"
		params = map[string]any{"flag": req.Flag, "sub_type": "add", "approve": approve}
		if !approve {
			params["reason"] = reason
		}
	case DialectRed:
		action = "approveGroupRequest"
		params = map[string]any{"groupId": int64(req.GroupID), "userId": int64(req.UserID), "flag": req.Flag}
		if !approve {
			action = "rejectGroupRequest"
			params["reason"] = reason
		}
	case DialectMilky:
		action = "approveGroupRequest"
		params = map[string]any{"flag": req.Flag, "approve": approve}
		if !approve {
			params["reason"] = reason
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, d)
	}

	if _, err := a.caller.Call(ctx, action, params); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

// IsMember reports whether user already belongs to group. A gateway that
// answers the lookup with a failure status is taken to mean "not a member".
func (a *Adapter) IsMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (bool, error) {
	var (
		action string
		params map[string]any
	)
	switch a.fallback {
	case DialectOneBot:
		action = "get_group_member_info"
		params = map[string]any{"group_id": int64(groupID), "user_id": int64(userID), "no_cache": true}
	case DialectRed:
		action = "getGroupMember"
		params = map[string]any{"groupId": int64(groupID), "userId": int64(userID)}
	case DialectMilky:
		action = "getGroupMemberInfo"
		params = map[string]any{"group_id": int64(groupID), "user_id": int64(userID)}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, a.fallback)
	}

	data, err := a.caller.Call(ctx, action, params)
	if err != nil {
		var actionErr *ActionError
		if errors.As(err, &actionErr) {
			a.logger.DebugContext(ctx, "member lookup refused by gateway",
				"group_id", groupID,
				"user_id", userID,
				"retcode", actionErr.Retcode,
			)
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", action, err)
	}
	return len(data) > 0 && string(data) != "null", nil
}

// SendMessage posts text and an optional image to the group.
func (a *Adapter) SendMessage(ctx context.Context, groupID id.GroupID, msg models.Message) error {
	var (
		action string
		params map[string]any
	)
	switch a.fallback {
	case DialectOneBot:
		action = "send_group_msg"
		params = map[string]any{"group_id": int64(groupID), "message": onebotSegments(msg)}
	case DialectMilky:
		action = "send_group_message"
		params = map[string]any{"group_id": int64(groupID), "message": milkySegments(msg)}
	case DialectRed:
		if msg.Image != nil {
			return fmt.Errorf("%w: red gateway cannot send inline images", ErrUnsupportedPlatform)
		}
		action = "message/send"
		params = map[string]any{
			"peer":     map[string]any{"chatType": 2, "peerUin": groupID.String()},
			"elements": []map[string]any{{"elementType": 1, "textElement": map[string]any{"content": msg.Text}}},
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedPlatform, a.fallback)
	}

	if _, err := a.caller.Call(ctx, action, params); err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

func onebotSegments(msg models.Message) []map[string]any {
	segs := []map[string]any{{"type": "text", "data": map[string]any{"text": msg.Text}}}
	if msg.Image != nil {
		segs = append(segs, map[string]any{
			"type": "image",
			"data": map[string]any{"file": "base64://" + base64.StdEncoding.EncodeToString(msg.Image.Data)},
		})
	}
	return segs
}

func milkySegments(msg models.Message) []map[string]any {
	segs := []map[string]any{{"type": "text", "data": map[string]any{"text": msg.Text}}}
	if msg.Image != nil {
		segs = append(segs, map[string]any{
			"type": "image",
			"data": map[string]any{"uri": "base64://" + base64.StdEncoding.EncodeToString(msg.Image.Data)},
		})
	}
	return segs
}
