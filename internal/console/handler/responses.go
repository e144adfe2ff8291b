package handler

import (
	"time"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
)

// PolicyResponse is the console view of a group policy. Timeout is in seconds.
type PolicyResponse struct {
	GroupID       id.GroupID  `json:"group_id"`
	Mode          models.Mode `json:"mode"`
	CaptchaLength int         `json:"captcha_length"`
	Timeout       int         `json:"timeout"`
	SkipIfMember  bool        `json:"skip_if_member"`
	WaitingMsg    string      `json:"waiting_msg"`
	ApproveMsg    string      `json:"approve_msg"`
	RejectMsg     string      `json:"reject_msg"`
	TimeoutMsg    string      `json:"timeout_msg"`
}

func FromPolicy(p models.GroupPolicy) PolicyResponse {
	return PolicyResponse{
		GroupID:       p.GroupID,
		Mode:          p.Mode,
		CaptchaLength: p.CaptchaLength,
		Timeout:       p.TimeoutSeconds(),
		SkipIfMember:  p.SkipIfMember,
		WaitingMsg:    p.WaitingMsg,
		ApproveMsg:    p.ApproveMsg,
		RejectMsg:     p.RejectMsg,
		TimeoutMsg:    p.TimeoutMsg,
	}
}

// PolicyListResponse wraps GET /api/group-configs.
type PolicyListResponse struct {
	Configs []PolicyResponse `json:"configs"`
	Total   int              `json:"total"`
}

// WhitelistResponse is one whitelist entry.
type WhitelistResponse struct {
	UserID    id.UserID `json:"user_id"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// WhitelistListResponse wraps GET /api/whitelist.
type WhitelistListResponse struct {
	Entries []WhitelistResponse `json:"entries"`
	Total   int                 `json:"total"`
}

// RecordsResponse wraps GET /api/records.
type RecordsResponse struct {
	Records []models.AuditRecord `json:"records"`
	Total   int                  `json:"total"`
}

// HealthResponse is served on /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
