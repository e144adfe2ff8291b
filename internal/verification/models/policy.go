package models

import (
	"strconv"
	"strings"
	"time"

	id "joingate/pkg/domain"
	dErrors "joingate/pkg/domain-errors"
)

// Mode is a group's verification policy.
type Mode string

const (
	ModeWhitelist    Mode = "whitelist"
	ModeTextCaptcha  Mode = "text-captcha"
	ModeImageCaptcha Mode = "image-captcha"

	// legacyCaptchaMode is how older deployments spelled ModeTextCaptcha.
	legacyCaptchaMode = "captcha"
)

// Timeout bounds accepted at the admin and console boundary.
const (
	MinTimeout = 60 * time.Second
	MaxTimeout = 3600 * time.Second
)

// Message template placeholders.
const (
	PlaceholderCaptcha = "{captcha}"
	PlaceholderTimeout = "{timeout}"
)

// ParseMode validates s against the enumerated modes.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWhitelist, ModeTextCaptcha, ModeImageCaptcha:
		return m, nil
	case legacyCaptchaMode:
		return ModeTextCaptcha, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown mode %q, expected whitelist, text-captcha or image-captcha", s)
	}
}

// IsCaptcha reports whether the mode issues a challenge.
func (m Mode) IsCaptcha() bool {
	return m == ModeTextCaptcha || m == ModeImageCaptcha
}

// AuditType is the audit vocabulary entry for a request resolved under this mode.
func (m Mode) AuditType() AuditType {
	switch m {
	case ModeImageCaptcha:
		return AuditTypeImageCaptcha
	case ModeWhitelist:
		return AuditTypeWhitelistMode
	default:
		return AuditTypeCaptcha
	}
}

func (m Mode) String() string { return string(m) }

// ParseTimeout parses a number of seconds and enforces the admin bounds.
func ParseTimeout(raw string) (time.Duration, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "timeout must be a whole number of seconds")
	}
	d := time.Duration(secs) * time.Second
	if err := ValidateTimeout(d); err != nil {
		return 0, err
	}
	return d, nil
}

// ValidateTimeout enforces MinTimeout..MaxTimeout inclusive.
func ValidateTimeout(d time.Duration) error {
	if d < MinTimeout || d > MaxTimeout {
		return dErrors.Newf(dErrors.CodeValidation, "timeout must be between %d and %d seconds",
			int(MinTimeout.Seconds()), int(MaxTimeout.Seconds()))
	}
	return nil
}

// GroupPolicy is the per-group verification configuration.
//
// Invariants:
//   - Mode is one of the enumerated modes
//   - CaptchaLength is positive
//   - Timeout bounds are checked by the admin surface, not here
type GroupPolicy struct {
	GroupID       id.GroupID    `json:"group_id"`
	Mode          Mode          `json:"mode"`
	CaptchaLength int           `json:"captcha_length"`
	Timeout       time.Duration `json:"-"`
	SkipIfMember  bool          `json:"skip_if_member"`
	WaitingMsg    string        `json:"waiting_msg"`
	ApproveMsg    string        `json:"approve_msg"`
	RejectMsg     string        `json:"reject_msg"`
	TimeoutMsg    string        `json:"timeout_msg"`
}

// TimeoutSeconds is Timeout in whole seconds, the unit persisted and shown to operators.
func (p GroupPolicy) TimeoutSeconds() int {
	return int(p.Timeout / time.Second)
}

// RenderWaiting fills the waiting template for an issued code.
func (p GroupPolicy) RenderWaiting(code string) string {
	return strings.NewReplacer(
		PlaceholderCaptcha, code,
		PlaceholderTimeout, strconv.Itoa(p.TimeoutSeconds()),
	).Replace(p.WaitingMsg)
}

// Validate checks the structural invariants of a policy submitted from outside.
func (p GroupPolicy) Validate() error {
	if p.GroupID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "group id is required")
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	if p.CaptchaLength <= 0 {
		return dErrors.New(dErrors.CodeValidation, "captcha length must be positive")
	}
	return ValidateTimeout(p.Timeout)
}

// Defaults are the system-wide values applied to a group seen for the first time.
type Defaults struct {
	Mode          Mode
	CaptchaLength int
	Timeout       time.Duration
	SkipIfMember  bool
	WaitingMsg    string
	ApproveMsg    string
	RejectMsg     string
	TimeoutMsg    string
}

// DefaultPolicy synthesizes the policy for a group with no stored record.
func DefaultPolicy(groupID id.GroupID, d Defaults) GroupPolicy {
	mode := d.Mode
	if mode == "" {
		mode = ModeTextCaptcha
	}
	return GroupPolicy{
		GroupID:       groupID,
		Mode:          mode,
		CaptchaLength: d.CaptchaLength,
		Timeout:       d.Timeout,
		SkipIfMember:  d.SkipIfMember,
		WaitingMsg:    d.WaitingMsg,
		ApproveMsg:    d.ApproveMsg,
		RejectMsg:     d.RejectMsg,
		TimeoutMsg:    d.TimeoutMsg,
	}
}
