// Package admin implements the operator-facing command surface: per-group
// policy changes, the global whitelist, the operator table and audit lookups.
// Every operation answers with a human-readable reply instead of an error.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	id "joingate/pkg/domain"
	"joingate/pkg/platform/sentinel"
	"joingate/pkg/requestcontext"
)

// AuditPageSize is how many records the audit command shows.
const AuditPageSize = 10

// Replies shared by several operations.
const (
	ReplyDenied      = "Permission denied: only administrators can use this command."
	ReplyInvalidUser = "Invalid user ID."
	ReplySaveFailed  = "Failed to save the change, please try again later."
	ReplyLoadFailed  = "Failed to load data, please try again later."
)

// PolicyCache is the slice of the policy resolver the admin surface needs.
type PolicyCache interface {
	Defaults(groupID id.GroupID) models.GroupPolicy
	Invalidate(groupID id.GroupID)
}

// Service executes admin operations after authorising the caller against the
// configured super-admins and the persisted operator table.
type Service struct {
	store       ports.Store
	cache       PolicyCache
	superAdmins map[id.UserID]struct{}
	enableMode  models.Mode
	allowImage  bool
	logger      *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSuperAdmins grants unconditional access to the given users.
func WithSuperAdmins(users ...id.UserID) Option {
	return func(s *Service) {
		for _, u := range users {
			s.superAdmins[u] = struct{}{}
		}
	}
}

// WithEnableMode sets the mode "enable" switches a group to. Non-captcha
// modes are ignored.
func WithEnableMode(mode models.Mode) Option {
	return func(s *Service) {
		if mode.IsCaptcha() {
			s.enableMode = mode
		}
	}
}

// WithImageCaptcha controls whether groups may select image-captcha.
func WithImageCaptcha(enabled bool) Option {
	return func(s *Service) {
		s.allowImage = enabled
	}
}

// New constructs the admin Service.
func New(store ports.Store, cache PolicyCache, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if cache == nil {
		return nil, errors.New("policy cache is required")
	}
	s := &Service{
		store:       store,
		cache:       cache,
		superAdmins: make(map[id.UserID]struct{}),
		enableMode:  models.ModeTextCaptcha,
		allowImage:  true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authorize reports whether caller may run admin operations. A failing
// operator lookup denies access.
func (s *Service) Authorize(ctx context.Context, caller id.UserID) bool {
	if _, ok := s.superAdmins[caller]; ok {
		return true
	}
	ok, err := s.store.IsOperator(ctx, caller)
	if err != nil {
		s.logger.WarnContext(ctx, "operator lookup failed",
			"user_id", caller,
			"error", err,
		)
		return false
	}
	return ok
}

// Enable switches the group to the configured captcha mode.
func (s *Service) Enable(ctx context.Context, caller id.UserID, groupID id.GroupID) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	mode := s.enableMode
	if mode == models.ModeImageCaptcha && !s.allowImage {
		mode = models.ModeTextCaptcha
	}
	if reply, ok := s.updatePolicy(ctx, caller, groupID, func(p *models.GroupPolicy) { p.Mode = mode }); !ok {
		return reply
	}
	return fmt.Sprintf("Verification enabled, mode: %s.", mode)
}

// Disable switches the group to whitelist mode.
func (s *Service) Disable(ctx context.Context, caller id.UserID, groupID id.GroupID) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	if reply, ok := s.updatePolicy(ctx, caller, groupID, func(p *models.GroupPolicy) { p.Mode = models.ModeWhitelist }); !ok {
		return reply
	}
	return "Verification disabled, only whitelisted users are approved."
}

// SetMode sets the group's mode from its textual name.
func (s *Service) SetMode(ctx context.Context, caller id.UserID, groupID id.GroupID, raw string) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	mode, err := models.ParseMode(raw)
	if err != nil {
		return "Invalid mode, choose one of: whitelist, text-captcha, image-captcha."
	}
	if mode == models.ModeImageCaptcha && !s.allowImage {
		return "Image captcha is disabled on this deployment."
	}
	if reply, ok := s.updatePolicy(ctx, caller, groupID, func(p *models.GroupPolicy) { p.Mode = mode }); !ok {
		return reply
	}
	return fmt.Sprintf("Verification mode set to: %s.", mode)
}

// SetTimeout sets the group's challenge timeout from a number of seconds.
func (s *Service) SetTimeout(ctx context.Context, caller id.UserID, groupID id.GroupID, raw string) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	timeout, err := models.ParseTimeout(raw)
	if err != nil {
		return fmt.Sprintf("Invalid timeout, use a value between %d and %d seconds.",
			int(models.MinTimeout.Seconds()), int(models.MaxTimeout.Seconds()))
	}
	if reply, ok := s.updatePolicy(ctx, caller, groupID, func(p *models.GroupPolicy) { p.Timeout = timeout }); !ok {
		return reply
	}
	return fmt.Sprintf("Verification timeout set to %d seconds.", int(timeout.Seconds()))
}

// updatePolicy applies mutate to the stored policy, or to fresh defaults when
// the group has none yet, saves it and drops the cached copy.
func (s *Service) updatePolicy(ctx context.Context, caller id.UserID, groupID id.GroupID, mutate func(*models.GroupPolicy)) (string, bool) {
	var policy models.GroupPolicy
	stored, err := s.store.GetPolicy(ctx, groupID)
	switch {
	case err == nil:
		policy = *stored
	case errors.Is(err, sentinel.ErrNotFound):
		policy = s.cache.Defaults(groupID)
	default:
		s.logger.ErrorContext(ctx, "failed to load group policy",
			"group_id", groupID,
			"error", err,
		)
		return ReplyLoadFailed, false
	}

	mutate(&policy)
	if err := s.store.SavePolicy(ctx, policy); err != nil {
		s.logger.ErrorContext(ctx, "failed to save group policy",
			"group_id", groupID,
			"error", err,
		)
		return ReplySaveFailed, false
	}
	s.cache.Invalidate(groupID)
	s.logger.InfoContext(ctx, "group policy updated",
		"group_id", groupID,
		"operator_id", caller,
		"mode", policy.Mode,
		"timeout_seconds", policy.TimeoutSeconds(),
	)
	return "", true
}

// AddWhitelist puts a user on the global whitelist.
func (s *Service) AddWhitelist(ctx context.Context, caller id.UserID, groupID id.GroupID, rawUser, remark string) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	userID, err := id.ParseUserID(rawUser)
	if err != nil {
		return ReplyInvalidUser
	}
	entry := models.WhitelistEntry{UserID: userID, Remark: remark, CreatedAt: requestcontext.Now(ctx)}
	if err := s.store.AddWhitelist(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to add whitelist entry", "user_id", userID, "error", err)
		return ReplySaveFailed
	}
	s.cache.Invalidate(groupID)
	s.logger.InfoContext(ctx, "whitelist entry added", "user_id", userID, "operator_id", caller)
	return fmt.Sprintf("Added user %d to the whitelist.", userID)
}

// RemoveWhitelist takes a user off the global whitelist.
func (s *Service) RemoveWhitelist(ctx context.Context, caller id.UserID, groupID id.GroupID, rawUser string) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	userID, err := id.ParseUserID(rawUser)
	if err != nil {
		return ReplyInvalidUser
	}
	if err := s.store.RemoveWhitelist(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Sprintf("User %d is not on the whitelist.", userID)
		}
		s.logger.ErrorContext(ctx, "failed to remove whitelist entry", "user_id", userID, "error", err)
		return ReplySaveFailed
	}
	s.cache.Invalidate(groupID)
	s.logger.InfoContext(ctx, "whitelist entry removed", "user_id", userID, "operator_id", caller)
	return fmt.Sprintf("Removed user %d from the whitelist.", userID)
}

// ListWhitelist prints every whitelisted user.
func (s *Service) ListWhitelist(ctx context.Context, caller id.UserID) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	entries, err := s.store.ListWhitelist(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list whitelist", "error", err)
		return ReplyLoadFailed
	}
	if len(entries) == 0 {
		return "The whitelist is empty."
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, formatMember(e.UserID, e.Remark))
	}
	return strings.Join(lines, "\n")
}

// AddOperator grants admin rights to a user.
func (s *Service) AddOperator(ctx context.Context, caller id.UserID, rawUser, remark string) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	userID, err := id.ParseUserID(rawUser)
	if err != nil {
		return ReplyInvalidUser
	}
	op := models.Operator{UserID: userID, Remark: remark, CreatedAt: requestcontext.Now(ctx)}
	if err := s.store.AddOperator(ctx, op); err != nil {
		s.logger.ErrorContext(ctx, "failed to add operator", "user_id", userID, "error", err)
		return ReplySaveFailed
	}
	s.logger.InfoContext(ctx, "operator added", "user_id", userID, "operator_id", caller)
	return fmt.Sprintf("User %d is now an administrator.", userID)
}

// RemoveOperator revokes a user's admin rights. Configured super-admins are
// unaffected.
func (s *Service) RemoveOperator(ctx context.Context, caller id.UserID, rawUser string) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	userID, err := id.ParseUserID(rawUser)
	if err != nil {
		return ReplyInvalidUser
	}
	if err := s.store.RemoveOperator(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Sprintf("User %d is not an administrator.", userID)
		}
		s.logger.ErrorContext(ctx, "failed to remove operator", "user_id", userID, "error", err)
		return ReplySaveFailed
	}
	s.logger.InfoContext(ctx, "operator removed", "user_id", userID, "operator_id", caller)
	return fmt.Sprintf("Removed administrator rights from user %d.", userID)
}

// ListOperators prints the persisted operator table.
func (s *Service) ListOperators(ctx context.Context, caller id.UserID) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	ops, err := s.store.ListOperators(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list operators", "error", err)
		return ReplyLoadFailed
	}
	if len(ops) == 0 {
		return "No administrators yet."
	}
	lines := make([]string, 0, len(ops))
	for _, op := range ops {
		lines = append(lines, formatMember(op.UserID, op.Remark))
	}
	return strings.Join(lines, "\n")
}

// Audit prints the latest records for the group, newest first.
func (s *Service) Audit(ctx context.Context, caller id.UserID, groupID id.GroupID) string {
	if !s.Authorize(ctx, caller) {
		return ReplyDenied
	}
	records, err := s.store.ListAudit(ctx, models.AuditFilter{GroupID: groupID, Limit: AuditPageSize})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit records", "group_id", groupID, "error", err)
		return ReplyLoadFailed
	}
	if len(records) == 0 {
		return "No verification records yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Latest %d verification records:", len(records))
	for _, r := range records {
		fmt.Fprintf(&b, "\n%s - %d - %s - %s", r.CreatedAt.Local().Format(time.DateTime), r.UserID, r.Type, r.Result)
	}
	return b.String()
}

func formatMember(userID id.UserID, remark string) string {
	if remark == "" {
		return userID.String()
	}
	return fmt.Sprintf("%d (%s)", userID, remark)
}
