// Package policy resolves the effective verification policy for a group.
package policy

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"joingate/internal/platform/metrics"
	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	id "joingate/pkg/domain"
	"joingate/pkg/platform/sentinel"
)

const DefaultTTL = 60 * time.Second

type cacheEntry struct {
	policy    models.GroupPolicy
	fetchedAt time.Time
}

// Resolver is a read-through cache over the policy store.
//
// Invariants:
//   - an entry older than ttl is treated as absent
//   - Invalidate bumps the group's epoch; a load that started under an older
//     epoch returns its result but never writes it to the cache
//   - concurrent misses for one group share a single storage round-trip
type Resolver struct {
	store    ports.PolicyStore
	defaults models.Defaults
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	cache  map[id.GroupID]cacheEntry
	epochs map[id.GroupID]uint64

	loads singleflight.Group
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New constructs a Resolver.
func New(store ports.PolicyStore, defaults models.Defaults, opts ...Option) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("policy store is required")
	}
	r := &Resolver{
		store:    store,
		defaults: defaults,
		ttl:      DefaultTTL,
		now:      time.Now,
		logger:   slog.Default(),
		cache:    make(map[id.GroupID]cacheEntry),
		epochs:   make(map[id.GroupID]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the group's policy, never failing: storage trouble degrades
// to system defaults.
func (r *Resolver) Resolve(ctx context.Context, groupID id.GroupID) models.GroupPolicy {
	if p, ok := r.cached(groupID); ok {
		if r.metrics != nil {
			r.metrics.IncrementPolicyCacheHit()
		}
		return p
	}
	if r.metrics != nil {
		r.metrics.IncrementPolicyCacheMiss()
	}

	v, _, _ := r.loads.Do(strconv.FormatInt(int64(groupID), 10), func() (any, error) {
		return r.load(ctx, groupID), nil
	})
	return v.(models.GroupPolicy)
}

// Invalidate drops the cached policy for a group. Any load already in flight
// will not repopulate the cache.
func (r *Resolver) Invalidate(groupID id.GroupID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, groupID)
	r.epochs[groupID]++
	r.loads.Forget(strconv.FormatInt(int64(groupID), 10))
}

// Defaults is the policy a brand new group would receive.
func (r *Resolver) Defaults(groupID id.GroupID) models.GroupPolicy {
	return models.DefaultPolicy(groupID, r.defaults)
}

func (r *Resolver) cached(groupID id.GroupID) (models.GroupPolicy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[groupID]
	if !ok {
		return models.GroupPolicy{}, false
	}
	if r.now().Sub(entry.fetchedAt) > r.ttl {
		delete(r.cache, groupID)
		return models.GroupPolicy{}, false
	}
	return entry.policy, true
}

func (r *Resolver) load(ctx context.Context, groupID id.GroupID) models.GroupPolicy {
	r.mu.Lock()
	epoch := r.epochs[groupID]
	r.mu.Unlock()

	stored, err := r.store.GetPolicy(ctx, groupID)
	switch {
	case err == nil && stored != nil:
		r.fill(groupID, *stored, epoch)
		return *stored
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		r.logger.WarnContext(ctx, "policy lookup failed, using defaults",
			"group_id", groupID,
			"error", err,
		)
		return r.Defaults(groupID)
	}

	p := r.Defaults(groupID)
	if err := r.store.SavePolicy(ctx, p); err != nil {
		// Not cached, so the next lookup retries the write.
		r.logger.WarnContext(ctx, "failed to persist default policy",
			"group_id", groupID,
			"error", err,
		)
		return p
	}
	r.logger.InfoContext(ctx, "default policy created",
		"group_id", groupID,
		"mode", p.Mode,
	)
	r.fill(groupID, p, epoch)
	return p
}

func (r *Resolver) fill(groupID id.GroupID, p models.GroupPolicy, epoch uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epochs[groupID] != epoch {
		return
	}
	r.cache[groupID] = cacheEntry{policy: p, fetchedAt: r.now()}
}
