// Package ports declares the collaborators the verification core calls
// through: the chat platform and persistent storage.
package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
)

// Platform executes actions on the chat platform the bot is connected to.
type Platform interface {
	// Approve accepts the join request identified by req.Flag.
	Approve(ctx context.Context, req models.JoinRequest) error
	// Reject declines the join request, passing reason to the applicant when
	// the platform supports it.
	Reject(ctx context.Context, req models.JoinRequest, reason string) error
	IsMember(ctx context.Context, groupID id.GroupID, userID id.UserID) (bool, error)
	SendMessage(ctx context.Context, groupID id.GroupID, msg models.Message) error
}

// PolicyStore persists group policies. GetPolicy returns sentinel.ErrNotFound
// for a group that has never been configured.
type PolicyStore interface {
	GetPolicy(ctx context.Context, groupID id.GroupID) (*models.GroupPolicy, error)
	SavePolicy(ctx context.Context, policy models.GroupPolicy) error
	ListPolicies(ctx context.Context) ([]models.GroupPolicy, error)
}

// WhitelistStore persists the global whitelist. RemoveWhitelist returns
// sentinel.ErrNotFound when the user is not listed.
type WhitelistStore interface {
	IsWhitelisted(ctx context.Context, userID id.UserID) (bool, error)
	AddWhitelist(ctx context.Context, entry models.WhitelistEntry) error
	RemoveWhitelist(ctx context.Context, userID id.UserID) error
	ListWhitelist(ctx context.Context) ([]models.WhitelistEntry, error)
}

// OperatorStore persists admins granted at runtime. RemoveOperator returns
// sentinel.ErrNotFound when the user is not an operator.
type OperatorStore interface {
	IsOperator(ctx context.Context, userID id.UserID) (bool, error)
	AddOperator(ctx context.Context, op models.Operator) error
	RemoveOperator(ctx context.Context, userID id.UserID) error
	ListOperators(ctx context.Context) ([]models.Operator, error)
}

// AuditStore is an append-only log of resolved requests. AppendAudit assigns
// rec.ID; ListAudit returns newest first.
type AuditStore interface {
	AppendAudit(ctx context.Context, rec *models.AuditRecord) error
	ListAudit(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, error)
}

// Store is the full storage port implemented by each backend.
type Store interface {
	PolicyStore
	WhitelistStore
	OperatorStore
	AuditStore
}

// AuditPublisher mirrors audit records to an external stream.
type AuditPublisher interface {
	Publish(ctx context.Context, rec models.AuditRecord) error
}
