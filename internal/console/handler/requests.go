package handler

import (
	"strings"
	"time"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
	dErrors "joingate/pkg/domain-errors"
)

const maxMessageLen = 500

// PolicyRequest is the body of PUT /api/group-configs/{groupID}. Omitted
// fields keep their current value.
type PolicyRequest struct {
	Mode          *string `json:"mode"`
	CaptchaLength *int    `json:"captcha_length"`
	Timeout       *int    `json:"timeout"`
	SkipIfMember  *bool   `json:"skip_if_member"`
	WaitingMsg    *string `json:"waiting_msg"`
	ApproveMsg    *string `json:"approve_msg"`
	RejectMsg     *string `json:"reject_msg"`
	TimeoutMsg    *string `json:"timeout_msg"`

	parsedMode models.Mode
}

// Validate checks field formats. Range checks that depend on the merged
// policy happen in GroupPolicy.Validate.
func (r *PolicyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Mode != nil {
		mode, err := models.ParseMode(*r.Mode)
		if err != nil {
			return err
		}
		r.parsedMode = mode
	}
	if r.CaptchaLength != nil && (*r.CaptchaLength < 1 || *r.CaptchaLength > 12) {
		return dErrors.New(dErrors.CodeValidation, "captcha_length must be between 1 and 12")
	}
	for name, msg := range map[string]*string{
		"waiting_msg": r.WaitingMsg,
		"approve_msg": r.ApproveMsg,
		"reject_msg":  r.RejectMsg,
		"timeout_msg": r.TimeoutMsg,
	} {
		if msg != nil && len(*msg) > maxMessageLen {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be at most %d bytes", name, maxMessageLen)
		}
	}
	return nil
}

// Apply merges the request into p.
func (r *PolicyRequest) Apply(p *models.GroupPolicy) {
	if r.Mode != nil {
		p.Mode = r.parsedMode
	}
	if r.CaptchaLength != nil {
		p.CaptchaLength = *r.CaptchaLength
	}
	if r.Timeout != nil {
		p.Timeout = time.Duration(*r.Timeout) * time.Second
	}
	if r.SkipIfMember != nil {
		p.SkipIfMember = *r.SkipIfMember
	}
	if r.WaitingMsg != nil {
		p.WaitingMsg = *r.WaitingMsg
	}
	if r.ApproveMsg != nil {
		p.ApproveMsg = *r.ApproveMsg
	}
	if r.RejectMsg != nil {
		p.RejectMsg = *r.RejectMsg
	}
	if r.TimeoutMsg != nil {
		p.TimeoutMsg = *r.TimeoutMsg
	}
}

// WhitelistRequest is the body of POST /api/whitelist.
type WhitelistRequest struct {
	UserID id.UserID `json:"user_id"`
	Remark string    `json:"remark"`
}

func (r *WhitelistRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.UserID <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "user_id must be a positive integer")
	}
	r.Remark = strings.TrimSpace(r.Remark)
	if len(r.Remark) > 200 {
		return dErrors.New(dErrors.CodeValidation, "remark must be at most 200 bytes")
	}
	return nil
}
