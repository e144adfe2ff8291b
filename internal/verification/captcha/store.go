package captcha

import (
	"context"
	"sync"
	"time"

	"joingate/internal/verification/models"
)

// Store holds issued codes until they are matched, cleared or expire.
// Codes are stored uppercased; callers normalise before Verify.
type Store interface {
	Set(ctx context.Context, key models.Key, code string, expiresAt time.Time) error
	// Consume atomically deletes the entry when its code matches. A mismatch
	// leaves the entry in place; an expired entry is evicted and never matches.
	Consume(ctx context.Context, key models.Key, code string, now time.Time) (bool, error)
	RemoveExpiredAt(ctx context.Context, now time.Time) (int, error)
	Clear(ctx context.Context) error
}

type codeEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is the default in-process code store.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[models.Key]codeEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[models.Key]codeEntry)}
}

func (s *MemoryStore) Set(_ context.Context, key models.Key, code string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = codeEntry{code: code, expiresAt: expiresAt}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, key models.Key, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	if now.After(entry.expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	if entry.code != code {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// RemoveExpiredAt evicts every entry whose expiry is before now.
func (s *MemoryStore) RemoveExpiredAt(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
	return nil
}

// Len is the number of live entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
