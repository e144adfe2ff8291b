package models

import (
	"time"

	id "joingate/pkg/domain"
)

// AuditType labels how a request was resolved.
type AuditType string

const (
	AuditTypeWhitelist     AuditType = "whitelist"
	AuditTypeSkip          AuditType = "skip"
	AuditTypeTimeout       AuditType = "timeout"
	AuditTypeCaptcha       AuditType = "captcha"
	AuditTypeImageCaptcha  AuditType = "image-captcha"
	AuditTypeWhitelistMode AuditType = "whitelist-mode"
)

// AuditResult is the terminal outcome of a request.
type AuditResult string

const (
	AuditResultPass    AuditResult = "pass"
	AuditResultFail    AuditResult = "fail"
	AuditResultTimeout AuditResult = "timeout"
)

// AuditRecord is an append-only trace of one resolved join request.
type AuditRecord struct {
	ID        int64       `json:"id"`
	GroupID   id.GroupID  `json:"group_id"`
	UserID    id.UserID   `json:"user_id"`
	Type      AuditType   `json:"type"`
	Result    AuditResult `json:"result"`
	CreatedAt time.Time   `json:"created_at"`
}

// DefaultAuditLimit caps audit reads when the caller does not specify one.
const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// AuditFilter narrows an audit read. Zero IDs match everything.
type AuditFilter struct {
	GroupID id.GroupID
	UserID  id.UserID
	Limit   int
}

// EffectiveLimit clamps Limit into 1..MaxAuditLimit.
func (f AuditFilter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultAuditLimit
	case f.Limit > MaxAuditLimit:
		return MaxAuditLimit
	default:
		return f.Limit
	}
}

// Matches reports whether r passes the group and user filters.
func (f AuditFilter) Matches(r AuditRecord) bool {
	if !f.GroupID.IsNil() && r.GroupID != f.GroupID {
		return false
	}
	if !f.UserID.IsNil() && r.UserID != f.UserID {
		return false
	}
	return true
}

// WhitelistEntry lets a user bypass captcha in every group.
type WhitelistEntry struct {
	UserID    id.UserID `json:"user_id"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Operator is a persisted admin allowed to run verify commands.
type Operator struct {
	UserID    id.UserID `json:"user_id"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
