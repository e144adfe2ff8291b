// Package requestcontext provides transport-independent context accessors for
// values scoped to one inbound event: a console HTTP request, a chat command,
// or a platform notification.
//
// Middleware and event routers set the values; services read them:
//
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject a fixed time with requestcontext.WithTime(ctx, fixedTime).
package requestcontext

import (
	"context"
	"time"

	id "joingate/pkg/domain"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
	operatorIDKey  struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
	ContextKeyOperatorID  = operatorIDKey{}
)

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// OperatorID retrieves the user issuing an administrative action.
// Returns the zero value when the action is not attributed to a user.
func OperatorID(ctx context.Context) id.UserID {
	if op, ok := ctx.Value(ContextKeyOperatorID).(id.UserID); ok {
		return op
	}
	return 0
}

// WithOperatorID attributes the context to an operator.
func WithOperatorID(ctx context.Context, operator id.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyOperatorID, operator)
}

// Now retrieves the event-scoped time from context.
// Falls back to time.Now() when not set (timer callbacks, workers).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
