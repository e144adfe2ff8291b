package audit

import (
	"context"
	"log/slog"

	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	"joingate/pkg/platform/circuit"
)

// Worker consumes mirrored audit records from a channel and hands them to a
// publisher. Publish failures are logged; the stored record is already durable.
// After repeated failures the breaker opens and records are dropped until a
// probe publish succeeds.
type Worker struct {
	publisher ports.AuditPublisher
	inbox     <-chan models.AuditRecord
	breaker   *circuit.Breaker
	logger    *slog.Logger
	dropped   int
}

func NewWorker(publisher ports.AuditPublisher, inbox <-chan models.AuditRecord, logger *slog.Logger, opts ...circuit.Option) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		publisher: publisher,
		inbox:     inbox,
		breaker:   circuit.New("audit-mirror", opts...),
		logger:    logger,
	}
}

// Run publishes until ctx is cancelled or the inbox is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case rec, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.publish(ctx, rec)
		}
	}
}

func (w *Worker) publish(ctx context.Context, rec models.AuditRecord) {
	if !w.breaker.Allow() {
		w.dropped++
		return
	}
	if err := w.publisher.Publish(ctx, rec); err != nil {
		w.logger.WarnContext(ctx, "audit mirror publish failed",
			"group_id", rec.GroupID,
			"user_id", rec.UserID,
			"error", err,
		)
		if _, change := w.breaker.RecordFailure(); change.Opened {
			w.logger.ErrorContext(ctx, "audit mirror circuit opened", "breaker", w.breaker.Name())
		}
		return
	}
	if _, change := w.breaker.RecordSuccess(); change.Closed {
		w.logger.InfoContext(ctx, "audit mirror circuit closed", "dropped", w.dropped)
		w.dropped = 0
	}
}
