// Package memory is the default storage backend, used when no database is
// configured. Contents are lost on restart.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
	"joingate/pkg/platform/sentinel"
)

// Store implements ports.Store with one lock per table.
type Store struct {
	policiesMu sync.RWMutex
	policies   map[id.GroupID]models.GroupPolicy

	whitelistMu sync.RWMutex
	whitelist   map[id.UserID]models.WhitelistEntry

	operatorsMu sync.RWMutex
	operators   map[id.UserID]models.Operator

	auditMu     sync.RWMutex
	audit       []models.AuditRecord
	nextAuditID int64
}

func New() *Store {
	return &Store{
		policies:  make(map[id.GroupID]models.GroupPolicy),
		whitelist: make(map[id.UserID]models.WhitelistEntry),
		operators: make(map[id.UserID]models.Operator),
	}
}

func (s *Store) GetPolicy(_ context.Context, groupID id.GroupID) (*models.GroupPolicy, error) {
	s.policiesMu.RLock()
	defer s.policiesMu.RUnlock()
	p, ok := s.policies[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *Store) SavePolicy(_ context.Context, p models.GroupPolicy) error {
	s.policiesMu.Lock()
	defer s.policiesMu.Unlock()
	s.policies[p.GroupID] = p
	return nil
}

// ListPolicies returns every policy ordered by group id.
func (s *Store) ListPolicies(_ context.Context) ([]models.GroupPolicy, error) {
	s.policiesMu.RLock()
	defer s.policiesMu.RUnlock()
	out := make([]models.GroupPolicy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}

func (s *Store) IsWhitelisted(_ context.Context, userID id.UserID) (bool, error) {
	s.whitelistMu.RLock()
	defer s.whitelistMu.RUnlock()
	_, ok := s.whitelist[userID]
	return ok, nil
}

// AddWhitelist upserts, keeping the original CreatedAt on re-add.
func (s *Store) AddWhitelist(_ context.Context, entry models.WhitelistEntry) error {
	s.whitelistMu.Lock()
	defer s.whitelistMu.Unlock()
	if existing, ok := s.whitelist[entry.UserID]; ok {
		entry.CreatedAt = existing.CreatedAt
	}
	s.whitelist[entry.UserID] = entry
	return nil
}

func (s *Store) RemoveWhitelist(_ context.Context, userID id.UserID) error {
	s.whitelistMu.Lock()
	defer s.whitelistMu.Unlock()
	if _, ok := s.whitelist[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.whitelist, userID)
	return nil
}

func (s *Store) ListWhitelist(_ context.Context) ([]models.WhitelistEntry, error) {
	s.whitelistMu.RLock()
	defer s.whitelistMu.RUnlock()
	out := make([]models.WhitelistEntry, 0, len(s.whitelist))
	for _, e := range s.whitelist {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) IsOperator(_ context.Context, userID id.UserID) (bool, error) {
	s.operatorsMu.RLock()
	defer s.operatorsMu.RUnlock()
	_, ok := s.operators[userID]
	return ok, nil
}

func (s *Store) AddOperator(_ context.Context, op models.Operator) error {
	s.operatorsMu.Lock()
	defer s.operatorsMu.Unlock()
	if existing, ok := s.operators[op.UserID]; ok {
		op.CreatedAt = existing.CreatedAt
	}
	s.operators[op.UserID] = op
	return nil
}

func (s *Store) RemoveOperator(_ context.Context, userID id.UserID) error {
	s.operatorsMu.Lock()
	defer s.operatorsMu.Unlock()
	if _, ok := s.operators[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.operators, userID)
	return nil
}

func (s *Store) ListOperators(_ context.Context) ([]models.Operator, error) {
	s.operatorsMu.RLock()
	defer s.operatorsMu.RUnlock()
	out := make([]models.Operator, 0, len(s.operators))
	for _, op := range s.operators {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) AppendAudit(_ context.Context, rec *models.AuditRecord) error {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	s.nextAuditID++
	rec.ID = s.nextAuditID
	s.audit = append(s.audit, *rec)
	return nil
}

// ListAudit scans from the newest record backwards.
func (s *Store) ListAudit(_ context.Context, filter models.AuditFilter) ([]models.AuditRecord, error) {
	s.auditMu.RLock()
	defer s.auditMu.RUnlock()
	limit := filter.EffectiveLimit()
	out := make([]models.AuditRecord, 0, min(limit, len(s.audit)))
	for _, rec := range slices.Backward(s.audit) {
		if len(out) == limit {
			break
		}
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}
