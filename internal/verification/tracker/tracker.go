// Package tracker owns the in-flight verification table: pending entries,
// their timeout timers and per-key retry counters.
package tracker

import (
	"context"
	"sync"
	"time"

	"joingate/internal/verification/models"
)

const (
	DefaultMaxAttempts = 3
	DefaultAmnesty     = time.Hour
)

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d on another goroutine. f must not run before
// AfterFunc returns. time.AfterFunc is the production value.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type entry struct {
	pv    *models.PendingVerification
	timer Timer
	gen   uint64
}

// Tracker is safe for concurrent use. The pending table and the attempt
// counters are guarded by separate locks.
//
// Invariants:
//   - at most one pending entry per key, with at most one live timer
//   - a timer callback runs only if the entry it was armed for is still
//     present; removal and that check happen under the same lock
type Tracker struct {
	mu      sync.Mutex
	pending map[models.Key]*entry
	nextGen uint64

	attemptsMu sync.Mutex
	attempts   map[models.Key]*models.RetryCounter

	maxAttempts int
	amnesty     time.Duration
	now         func() time.Time
	afterFunc   AfterFunc
}

type Option func(*Tracker)

func WithMaxAttempts(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

func WithAmnesty(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.amnesty = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func WithAfterFunc(f AfterFunc) Option {
	return func(t *Tracker) {
		t.afterFunc = f
	}
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		pending:     make(map[models.Key]*entry),
		attempts:    make(map[models.Key]*models.RetryCounter),
		maxAttempts: DefaultMaxAttempts,
		amnesty:     DefaultAmnesty,
		now:         time.Now,
		afterFunc:   realAfterFunc,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Begin inserts pv, replacing and disarming any entry for the same key.
func (t *Tracker) Begin(pv *models.PendingVerification) (replaced bool) {
	key := pv.Key()

	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.pending[key]; ok {
		stopTimer(old)
		replaced = true
	}
	t.nextGen++
	t.pending[key] = &entry{pv: pv, gen: t.nextGen}
	return replaced
}

// Get returns the live entry for key.
func (t *Tracker) Get(key models.Key) (*models.PendingVerification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[key]
	if !ok {
		return nil, false
	}
	return e.pv, true
}

// End removes the entry for key and stops its timer. Only the caller that
// actually removed the entry gets ok == true, so concurrent resolvers and
// the timeout cannot both act on one request.
func (t *Tracker) End(key models.Key) (*models.PendingVerification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[key]
	if !ok {
		return nil, false
	}
	delete(t.pending, key)
	stopTimer(e)
	return e.pv, true
}

// EndIf is End restricted to a specific entry: it does nothing when the
// entry for key has since been replaced by a newer one.
func (t *Tracker) EndIf(pv *models.PendingVerification) bool {
	key := pv.Key()

	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[key]
	if !ok || e.pv != pv {
		return false
	}
	delete(t.pending, key)
	stopTimer(e)
	return true
}

// ScheduleTimeout arms a one-shot timer for the current entry under key,
// replacing any timer it already had. onFire receives the removed entry and
// runs at most once, outside the lock. Returns false if no entry exists.
func (t *Tracker) ScheduleTimeout(key models.Key, d time.Duration, onFire func(*models.PendingVerification)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[key]
	if !ok {
		return false
	}
	stopTimer(e)
	t.nextGen++
	e.gen = t.nextGen
	gen := e.gen
	e.timer = t.afterFunc(d, func() {
		if pv, ok := t.expire(key, gen); ok {
			onFire(pv)
		}
	})
	return true
}

func (t *Tracker) expire(key models.Key, gen uint64) (*models.PendingVerification, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[key]
	if !ok || e.gen != gen {
		return nil, false
	}
	delete(t.pending, key)
	return e.pv, true
}

// RecordAttempt counts a submission for key. A counter idle for longer than
// the amnesty window starts over. Returns false, without counting, once the
// counter has reached the maximum.
func (t *Tracker) RecordAttempt(key models.Key) bool {
	now := t.now()

	t.attemptsMu.Lock()
	defer t.attemptsMu.Unlock()
	c, ok := t.attempts[key]
	if !ok {
		c = &models.RetryCounter{}
		t.attempts[key] = c
	} else if now.Sub(c.LastAttempt) > t.amnesty {
		c.Count = 0
	}
	if c.Count >= t.maxAttempts {
		return false
	}
	c.Count++
	c.LastAttempt = now
	return true
}

// Exhausted reports whether the next RecordAttempt for key would be refused.
func (t *Tracker) Exhausted(key models.Key) bool {
	now := t.now()

	t.attemptsMu.Lock()
	defer t.attemptsMu.Unlock()
	c, ok := t.attempts[key]
	if !ok || now.Sub(c.LastAttempt) > t.amnesty {
		return false
	}
	return c.Count >= t.maxAttempts
}

// ClearAttempts forgets the retry counter for key.
func (t *Tracker) ClearAttempts(key models.Key) {
	t.attemptsMu.Lock()
	defer t.attemptsMu.Unlock()
	delete(t.attempts, key)
}

// Attempts returns the current counter for key, or zero values.
func (t *Tracker) Attempts(key models.Key) models.RetryCounter {
	t.attemptsMu.Lock()
	defer t.attemptsMu.Unlock()
	if c, ok := t.attempts[key]; ok {
		return *c
	}
	return models.RetryCounter{}
}

// PruneAttemptsAt drops counters that the amnesty would reset anyway.
func (t *Tracker) PruneAttemptsAt(now time.Time) int {
	t.attemptsMu.Lock()
	defer t.attemptsMu.Unlock()
	removed := 0
	for key, c := range t.attempts {
		if now.Sub(c.LastAttempt) > t.amnesty {
			delete(t.attempts, key)
			removed++
		}
	}
	return removed
}

// StartCleanup prunes stale retry counters every interval until ctx is cancelled.
func (t *Tracker) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.PruneAttemptsAt(t.now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DrainAll stops every timer and clears both tables. Returns the number of
// pending entries discarded.
func (t *Tracker) DrainAll() int {
	t.mu.Lock()
	n := len(t.pending)
	for _, e := range t.pending {
		stopTimer(e)
	}
	clear(t.pending)
	t.mu.Unlock()

	t.attemptsMu.Lock()
	clear(t.attempts)
	t.attemptsMu.Unlock()
	return n
}

// Len is the number of pending entries.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func stopTimer(e *entry) {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
