// Package service drives each join request from arrival to a terminal
// outcome: approved, rejected or timed out.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"joingate/internal/platform/metrics"
	"joingate/internal/verification/captcha"
	"joingate/internal/verification/models"
	"joingate/internal/verification/ports"
	"joingate/internal/verification/tracker"
	id "joingate/pkg/domain"
	dErrors "joingate/pkg/domain-errors"
	"joingate/pkg/requestcontext"
)

// Rejection reasons, used in logs and span events.
const (
	reasonNotWhitelisted  = "not whitelisted"
	reasonTooManyAttempts = "too many attempts"
	reasonCannotDeliver   = "cannot deliver challenge"
	reasonTimeout         = "timeout"
)

// outcomePrefix starts every message the bot posts about a request.
const outcomePrefix = "[join verification]"

// imageCodeHint replaces {captcha} in the waiting message of an image
// challenge so the code itself is never sent as text.
const imageCodeHint = "(see image)"

const defaultActionTimeout = 30 * time.Second

// PolicyResolver returns the effective policy for a group.
type PolicyResolver interface {
	Resolve(ctx context.Context, groupID id.GroupID) models.GroupPolicy
}

// AuditRecorder persists the outcome of a request.
type AuditRecorder interface {
	Record(ctx context.Context, rec models.AuditRecord) error
}

// Dependencies are the collaborators the orchestrator cannot run without.
type Dependencies struct {
	Platform  ports.Platform
	Whitelist ports.WhitelistStore
	Policies  PolicyResolver
	Captcha   *captcha.Engine
	Tracker   *tracker.Tracker
	Audit     AuditRecorder
}

// Service is the verification state machine. Per (group, user) key:
// NONE -> PENDING -> APPROVED | REJECTED | TIMED_OUT, or NONE -> terminal
// directly via the whitelist, membership and whitelist-mode shortcuts.
type Service struct {
	platform  ports.Platform
	whitelist ports.WhitelistStore
	policies  PolicyResolver
	captcha   *captcha.Engine
	tracker   *tracker.Tracker
	audit     AuditRecorder
	keys      *keyLocks

	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	baseCtx       context.Context
	actionTimeout time.Duration
	closed        atomic.Bool
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithBaseContext sets the parent context for work started by timeout
// timers, which have no inbound event to inherit one from.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Service) {
		s.baseCtx = context.WithoutCancel(ctx)
	}
}

// WithActionTimeout bounds platform and storage calls made from timers.
func WithActionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.actionTimeout = d
		}
	}
}

// New constructs a Service.
func New(deps Dependencies, opts ...Option) (*Service, error) {
	switch {
	case deps.Platform == nil:
		return nil, errors.New("platform is required")
	case deps.Whitelist == nil:
		return nil, errors.New("whitelist store is required")
	case deps.Policies == nil:
		return nil, errors.New("policy resolver is required")
	case deps.Captcha == nil:
		return nil, errors.New("captcha engine is required")
	case deps.Tracker == nil:
		return nil, errors.New("request tracker is required")
	case deps.Audit == nil:
		return nil, errors.New("audit recorder is required")
	}
	s := &Service{
		platform:      deps.Platform,
		whitelist:     deps.Whitelist,
		policies:      deps.Policies,
		captcha:       deps.Captcha,
		tracker:       deps.Tracker,
		audit:         deps.Audit,
		keys:          newKeyLocks(),
		logger:        slog.Default(),
		tracer:        otel.Tracer("joingate/verification"),
		baseCtx:       context.Background(),
		actionTimeout: defaultActionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// HandleJoinRequest decides a new join request: approve via shortcut, reject
// under whitelist mode, or issue a captcha challenge. The returned error is
// only non-nil when the platform refused to execute the decision.
func (s *Service) HandleJoinRequest(ctx context.Context, req models.JoinRequest) (err error) {
	if s.closed.Load() {
		return nil
	}
	ctx = withRequestID(ctx)
	ctx, span := s.tracer.Start(ctx, "verification.HandleJoinRequest", trace.WithAttributes(
		attribute.Int64("group_id", int64(req.GroupID)),
		attribute.Int64("user_id", int64(req.UserID)),
	))
	defer func() { endSpan(span, err) }()
	if s.metrics != nil {
		defer s.metrics.ObserveHandleJoinRequest(time.Now())
	}

	policy := s.policies.Resolve(ctx, req.GroupID)
	span.SetAttributes(attribute.String("mode", string(policy.Mode)))
	if s.metrics != nil {
		s.metrics.IncrementJoinRequest(string(policy.Mode))
	}
	s.logger.InfoContext(ctx, "join request received",
		"group_id", req.GroupID,
		"user_id", req.UserID,
		"mode", policy.Mode,
	)

	whitelisted, werr := s.whitelist.IsWhitelisted(ctx, req.UserID)
	if werr != nil {
		s.logger.WarnContext(ctx, "whitelist lookup failed, treating as not whitelisted",
			"user_id", req.UserID,
			"error", werr,
		)
	}
	if whitelisted {
		s.withdraw(ctx, req.Key())
		return s.approve(ctx, req, policy, models.AuditTypeWhitelist)
	}

	if policy.SkipIfMember {
		member, merr := s.platform.IsMember(ctx, req.GroupID, req.UserID)
		if merr != nil {
			s.logger.WarnContext(ctx, "membership lookup failed, treating as not a member",
				"group_id", req.GroupID,
				"user_id", req.UserID,
				"error", merr,
			)
		}
		if member {
			s.withdraw(ctx, req.Key())
			return s.approve(ctx, req, policy, models.AuditTypeSkip)
		}
	}

	if !policy.Mode.IsCaptcha() {
		s.withdraw(ctx, req.Key())
		return s.reject(ctx, req, policy, models.AuditTypeWhitelistMode, reasonNotWhitelisted)
	}
	if s.tracker.Exhausted(req.Key()) {
		s.withdraw(ctx, req.Key())
		return s.reject(ctx, req, policy, policy.Mode.AuditType(), reasonTooManyAttempts)
	}
	return s.challenge(ctx, req, policy)
}

// challenge mints and registers a code, tracks the request with its timeout,
// then posts the challenge. Registration comes first so an immediate answer
// always finds its entry. Register, Begin and ScheduleTimeout run under the
// key lock so the stored code always belongs to the current entry.
func (s *Service) challenge(ctx context.Context, req models.JoinRequest, policy models.GroupPolicy) error {
	key := req.Key()
	kind := "text"

	var (
		code string
		img  *models.Image
	)
	if policy.Mode == models.ModeImageCaptcha {
		var rerr error
		code, img, rerr = s.captcha.MintImage(policy.CaptchaLength)
		if rerr != nil {
			s.logger.WarnContext(ctx, "image captcha render failed, falling back to text",
				"group_id", req.GroupID,
				"error", rerr,
			)
		} else {
			kind = "image"
		}
	} else {
		code = s.captcha.MintText(policy.CaptchaLength)
	}

	unlock := s.keys.lock(key)
	if err := s.captcha.Register(ctx, key, code, policy.Timeout); err != nil {
		unlock()
		s.logger.ErrorContext(ctx, "failed to register captcha code",
			"group_id", req.GroupID,
			"user_id", req.UserID,
			"error", err,
		)
		s.countChallenge(kind, "failed")
		s.withdraw(ctx, key)
		return s.reject(ctx, req, policy, policy.Mode.AuditType(), reasonCannotDeliver)
	}

	pv := &models.PendingVerification{
		Request:  req,
		Policy:   policy,
		Code:     code,
		IssuedAt: requestcontext.Now(ctx),
	}
	replaced := s.tracker.Begin(pv)
	s.tracker.ScheduleTimeout(key, policy.Timeout, s.onTimeout)
	unlock()
	s.publishPending()

	msg := models.Message{Image: img}
	if img != nil {
		msg.Text = s.announce(req.UserID, policy.RenderWaiting(imageCodeHint))
	} else {
		msg.Text = s.announce(req.UserID, policy.RenderWaiting(code))
	}
	if err := s.platform.SendMessage(ctx, req.GroupID, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send captcha challenge",
			"group_id", req.GroupID,
			"user_id", req.UserID,
			"error", err,
		)
		s.countChallenge(kind, "failed")
		if !s.tracker.EndIf(pv) {
			// Already answered, timed out or superseded by a newer request.
			return nil
		}
		s.captcha.Clear(ctx, key, code)
		s.publishPending()
		return s.reject(ctx, req, policy, policy.Mode.AuditType(), reasonCannotDeliver)
	}

	s.countChallenge(kind, "sent")
	s.logger.InfoContext(ctx, "captcha challenge issued",
		"group_id", req.GroupID,
		"user_id", req.UserID,
		"kind", kind,
		"timeout_seconds", policy.TimeoutSeconds(),
		"replaced", replaced,
	)
	return nil
}

// HandleGroupMessage treats a message from a user with an open challenge as
// a captcha submission. Messages from anyone else are ignored.
func (s *Service) HandleGroupMessage(ctx context.Context, msg models.GroupMessage) (err error) {
	if s.closed.Load() {
		return nil
	}
	key := msg.Key()
	if _, ok := s.tracker.Get(key); !ok {
		return nil
	}

	ctx = withRequestID(ctx)
	ctx, span := s.tracer.Start(ctx, "verification.HandleGroupMessage", trace.WithAttributes(
		attribute.Int64("group_id", int64(msg.GroupID)),
		attribute.Int64("user_id", int64(msg.UserID)),
	))
	defer func() { endSpan(span, err) }()

	if !s.tracker.RecordAttempt(key) {
		s.countSubmission("exhausted")
		pv, ok := s.tracker.End(key)
		if !ok {
			return nil
		}
		s.captcha.Clear(ctx, key, pv.Code)
		s.publishPending()
		return s.reject(ctx, pv.Request, pv.Policy, pv.Policy.Mode.AuditType(), reasonTooManyAttempts)
	}

	if !s.captcha.Validate(ctx, key, msg.Text) {
		s.countSubmission("mismatch")
		s.logger.DebugContext(ctx, "captcha mismatch",
			"group_id", msg.GroupID,
			"user_id", msg.UserID,
			"attempts", s.tracker.Attempts(key).Count,
		)
		return nil
	}

	s.countSubmission("match")
	pv, ok := s.tracker.End(key)
	if !ok {
		// Timed out between validation and removal; the timeout already resolved it.
		return nil
	}
	s.tracker.ClearAttempts(key)
	s.publishPending()
	return s.approve(ctx, pv.Request, pv.Policy, pv.Policy.Mode.AuditType())
}

// onTimeout runs on the timer goroutine after the tracker removed pv.
func (s *Service) onTimeout(pv *models.PendingVerification) {
	ctx, cancel := context.WithTimeout(withRequestID(s.baseCtx), s.actionTimeout)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, "verification.Timeout", trace.WithAttributes(
		attribute.Int64("group_id", int64(pv.Request.GroupID)),
		attribute.Int64("user_id", int64(pv.Request.UserID)),
	))

	key := pv.Key()
	s.captcha.Clear(ctx, key, pv.Code)
	s.publishPending()
	err := s.resolve(ctx, pv.Request, false, pv.Policy.TimeoutMsg, models.AuditTypeTimeout, models.AuditResultTimeout, reasonTimeout)
	endSpan(span, err)
}

func (s *Service) approve(ctx context.Context, req models.JoinRequest, policy models.GroupPolicy, auditType models.AuditType) error {
	return s.resolve(ctx, req, true, policy.ApproveMsg, auditType, models.AuditResultPass, "")
}

func (s *Service) reject(ctx context.Context, req models.JoinRequest, policy models.GroupPolicy, auditType models.AuditType, reason string) error {
	return s.resolve(ctx, req, false, policy.RejectMsg, auditType, models.AuditResultFail, reason)
}

// resolve executes the decision on the platform, then posts the outcome and
// writes the audit record. Only the platform action can fail the call;
// messaging and audit failures are logged.
func (s *Service) resolve(
	ctx context.Context,
	req models.JoinRequest,
	approve bool,
	message string,
	auditType models.AuditType,
	result models.AuditResult,
	reason string,
) error {
	action := "approve"
	var err error
	if approve {
		err = s.platform.Approve(ctx, req)
	} else {
		action = "reject"
		err = s.platform.Reject(ctx, req, message)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementPlatformError(action)
		}
		s.logger.ErrorContext(ctx, "platform refused join request decision",
			"action", action,
			"group_id", req.GroupID,
			"user_id", req.UserID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("%s join request", action))
	}

	if err := s.platform.SendMessage(ctx, req.GroupID, models.Message{Text: s.announce(req.UserID, message)}); err != nil {
		s.logger.WarnContext(ctx, "failed to post verification outcome",
			"group_id", req.GroupID,
			"user_id", req.UserID,
			"error", err,
		)
	}

	rec := models.AuditRecord{
		GroupID: req.GroupID,
		UserID:  req.UserID,
		Type:    auditType,
		Result:  result,
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to write audit record",
			"group_id", req.GroupID,
			"user_id", req.UserID,
			"type", auditType,
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(auditType), string(result))
	}

	attrs := []any{
		"group_id", req.GroupID,
		"user_id", req.UserID,
		"type", auditType,
		"result", result,
	}
	if reason != "" {
		attrs = append(attrs, "reason", reason)
	}
	s.logger.InfoContext(ctx, "join request resolved", attrs...)
	return nil
}

// withdraw drops any open challenge for key, used when a shortcut decides a
// request that was already pending.
func (s *Service) withdraw(ctx context.Context, key models.Key) {
	if pv, ok := s.tracker.End(key); ok {
		s.captcha.Clear(ctx, key, pv.Code)
		s.publishPending()
	}
}

// Close stops accepting events, cancels every pending timer and discards all
// codes. Pending applicants are left undecided on the platform.
func (s *Service) Close(ctx context.Context) {
	if s.closed.Swap(true) {
		return
	}
	n := s.tracker.DrainAll()
	s.captcha.Close(ctx)
	s.publishPending()
	s.logger.InfoContext(ctx, "verification service closed", "drained", n)
}

// Pending is the number of open challenges.
func (s *Service) Pending() int {
	return s.tracker.Len()
}

func (s *Service) announce(userID id.UserID, text string) string {
	return fmt.Sprintf("%s %d %s", outcomePrefix, userID, text)
}

func (s *Service) publishPending() {
	if s.metrics != nil {
		s.metrics.SetPending(s.tracker.Len())
	}
}

func (s *Service) countChallenge(kind, status string) {
	if s.metrics != nil {
		s.metrics.IncrementChallenge(kind, status)
	}
}

func (s *Service) countSubmission(result string) {
	if s.metrics != nil {
		s.metrics.IncrementSubmission(result)
	}
}

func withRequestID(ctx context.Context) context.Context {
	if requestcontext.RequestID(ctx) != "" {
		return ctx
	}
	return requestcontext.WithRequestID(ctx, uuid.NewString())
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
