// Package captcha mints verification codes and validates submissions.
package captcha

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"joingate/internal/verification/models"
)

// Alphabet excludes glyphs that are easy to confuse: 0/O, 1/I/L.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	DefaultLength        = 4
	DefaultSweepInterval = 60 * time.Second
)

// Engine issues codes and checks answers against the configured Store.
type Engine struct {
	store         Store
	renderer      Renderer
	logger        *slog.Logger
	now           func() time.Time
	sweepInterval time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Engine)

func WithStore(store Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

func WithRenderer(r Renderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.sweepInterval = d
		}
	}
}

// New constructs an Engine backed by a MemoryStore and the PNG renderer
// unless overridden.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:        slog.Default(),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = NewMemoryStore()
	}
	if e.renderer == nil {
		e.renderer = NewImageRenderer()
	}
	return e
}

// MintText draws length characters uniformly from Alphabet.
func (e *Engine) MintText(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(Alphabet[rand.IntN(len(Alphabet))])
	}
	return b.String()
}

// MintImage mints a text code and renders it. The code is returned even
// when rendering fails so the caller can fall back to a text challenge.
func (e *Engine) MintImage(length int) (string, *models.Image, error) {
	code := e.MintText(length)
	img, err := e.renderer.Render(code)
	if err != nil {
		return code, nil, err
	}
	return code, img, nil
}

// Register stores code for key until ttl elapses, replacing any earlier code.
func (e *Engine) Register(ctx context.Context, key models.Key, code string, ttl time.Duration) error {
	return e.store.Set(ctx, key, normalize(code), e.now().Add(ttl))
}

// Validate reports whether submitted matches the live code for key.
// A match consumes the code. Store failures are logged and count as a mismatch.
func (e *Engine) Validate(ctx context.Context, key models.Key, submitted string) bool {
	ok, err := e.store.Consume(ctx, key, normalize(submitted), e.now())
	if err != nil {
		e.logger.WarnContext(ctx, "captcha verify failed",
			"key", key.String(),
			"error", err,
		)
		return false
	}
	return ok
}

// Clear withdraws code for key. A newer code registered for the same key in
// the meantime is left alone.
func (e *Engine) Clear(ctx context.Context, key models.Key, code string) {
	if _, err := e.store.Consume(ctx, key, normalize(code), e.now()); err != nil {
		e.logger.WarnContext(ctx, "captcha clear failed",
			"key", key.String(),
			"error", err,
		)
	}
}

// Run sweeps expired codes every sweep interval until ctx is cancelled or
// Close is called. Sweep failures are logged and do not stop the loop.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Sweep(ctx)
		case <-e.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Sweep removes expired codes once.
func (e *Engine) Sweep(ctx context.Context) int {
	removed, err := e.store.RemoveExpiredAt(ctx, e.now())
	if err != nil {
		e.logger.WarnContext(ctx, "captcha sweep failed", "error", err)
		return 0
	}
	if removed > 0 {
		e.logger.DebugContext(ctx, "captcha codes expired", "count", removed)
	}
	return removed
}

// Close stops the sweeper and discards every registered code. Safe to call
// more than once.
func (e *Engine) Close(ctx context.Context) {
	e.closeOnce.Do(func() {
		close(e.done)
		if err := e.store.Clear(ctx); err != nil {
			e.logger.WarnContext(ctx, "captcha clear on close failed", "error", err)
		}
	})
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
