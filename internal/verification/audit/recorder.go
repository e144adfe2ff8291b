// Package audit persists verification outcomes and optionally mirrors them
// to an external stream.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	"joingate/pkg/requestcontext"
)

// Recorder appends audit records to storage. When a mirror inbox is attached,
// each stored record is also queued for the Worker; a full inbox drops the
// mirror copy, never the stored record.
type Recorder struct {
	store  ports.AuditStore
	mirror chan<- models.AuditRecord
	logger *slog.Logger
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMirror queues every stored record on inbox.
func WithMirror(inbox chan<- models.AuditRecord) Option {
	return func(r *Recorder) {
		r.mirror = inbox
	}
}

func NewRecorder(store ports.AuditStore, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit store is required")
	}
	r := &Recorder{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Record stamps and stores rec.
func (r *Recorder) Record(ctx context.Context, rec models.AuditRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = requestcontext.Now(ctx)
	}
	if err := r.store.AppendAudit(ctx, &rec); err != nil {
		return err
	}
	if r.mirror == nil {
		return nil
	}
	select {
	case r.mirror <- rec:
	default:
		r.logger.WarnContext(ctx, "audit mirror queue full, dropping record",
			"group_id", rec.GroupID,
			"user_id", rec.UserID,
			"type", rec.Type,
		)
	}
	return nil
}
