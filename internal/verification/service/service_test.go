package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"joingate/internal/verification/audit"
	"joingate/internal/verification/captcha"
	"joingate/internal/verification/models"
	"joingate/internal/verification/ports/mocks"
	"joingate/internal/verification/store/memory"
	"joingate/internal/verification/tracker"
	id "joingate/pkg/domain"
	"joingate/pkg/testutil"
)

// =============================================================================
// Verification Orchestrator Test Suite
// =============================================================================
// Drives the state machine end to end with mocked platform and whitelist
// ports, real captcha/tracker/audit components and manually fired timers.

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	platform  *mocks.MockPlatform
	whitelist *mocks.MockWhitelistStore
	policies  *fixedPolicies
	store     *memory.Store
	timers    *manualTimers
	tracker   *tracker.Tracker
	engine    *captcha.Engine
	renderer  *stubRenderer
	service   *Service

	mu   sync.Mutex
	sent []models.Message
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

const (
	group = id.GroupID(1000)
	user  = id.UserID(2000)
)

var joinReq = models.JoinRequest{GroupID: group, UserID: user, Flag: "flag-1", Platform: "onebot"}

func textPolicy() models.GroupPolicy {
	return models.GroupPolicy{
		GroupID:       group,
		Mode:          models.ModeTextCaptcha,
		CaptchaLength: 4,
		Timeout:       60 * time.Second,
		SkipIfMember:  true,
		WaitingMsg:    "send {captcha} within {timeout}s",
		ApproveMsg:    "welcome",
		RejectMsg:     "rejected",
		TimeoutMsg:    "too late",
	}
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.platform = mocks.NewMockPlatform(s.ctrl)
	s.whitelist = mocks.NewMockWhitelistStore(s.ctrl)
	s.policies = &fixedPolicies{policy: textPolicy()}
	s.store = memory.New()
	s.timers = &manualTimers{}
	s.tracker = tracker.New(tracker.WithAfterFunc(s.timers.AfterFunc), tracker.WithMaxAttempts(3))
	s.renderer = &stubRenderer{}
	s.engine = captcha.New(
		captcha.WithRenderer(s.renderer),
		captcha.WithLogger(testutil.DiscardLogger()),
	)
	recorder, err := audit.NewRecorder(s.store)
	s.Require().NoError(err)
	s.sent = nil

	s.service, err = New(Dependencies{
		Platform:  s.platform,
		Whitelist: s.whitelist,
		Policies:  s.policies,
		Captcha:   s.engine,
		Tracker:   s.tracker,
		Audit:     recorder,
	}, WithLogger(testutil.DiscardLogger()))
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// expectSends captures every outbound group message.
func (s *ServiceSuite) expectSends() {
	s.platform.EXPECT().SendMessage(gomock.Any(), group, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ id.GroupID, msg models.Message) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.sent = append(s.sent, msg)
			return nil
		}).AnyTimes()
}

func (s *ServiceSuite) messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.sent...)
}

func (s *ServiceSuite) audits() []models.AuditRecord {
	recs, err := s.store.ListAudit(s.ctx, models.AuditFilter{})
	s.Require().NoError(err)
	return recs
}

func (s *ServiceSuite) pendingCode() string {
	pv, ok := s.tracker.Get(joinReq.Key())
	s.Require().True(ok, "expected a pending verification")
	return pv.Code
}

// challengeUser walks a non-whitelisted non-member through to PENDING.
func (s *ServiceSuite) challengeUser() string {
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, nil)
	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))
	return s.pendingCode()
}

func (s *ServiceSuite) TestNew() {
	s.Run("missing dependency returns error", func() {
		_, err := New(Dependencies{})
		s.ErrorContains(err, "platform is required")
	})
}

func (s *ServiceSuite) TestWhitelistedUserBypassesCaptcha() {
	s.expectSends()
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(true, nil)
	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)

	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Zero(s.tracker.Len(), "no pending verification is ever created")
	recs := s.audits()
	s.Require().Len(recs, 1)
	s.Equal(models.AuditTypeWhitelist, recs[0].Type)
	s.Equal(models.AuditResultPass, recs[0].Result)
	s.Equal("[join verification] 2000 welcome", s.messages()[0].Text)
}

func (s *ServiceSuite) TestExistingMemberIsSkipped() {
	s.expectSends()
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(true, nil)
	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)

	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Equal(models.AuditTypeSkip, s.audits()[0].Type)
}

func (s *ServiceSuite) TestLookupFailuresFallThroughToChallenge() {
	s.expectSends()
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, errors.New("db down"))
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, errors.New("timeout"))

	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Equal(1, s.tracker.Len())
}

func (s *ServiceSuite) TestMembershipNotCheckedWhenSkipDisabled() {
	s.expectSends()
	p := textPolicy()
	p.SkipIfMember = false
	s.policies.policy = p
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)

	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Equal(1, s.tracker.Len())
}

func (s *ServiceSuite) TestWhitelistModeRejects() {
	s.expectSends()
	p := textPolicy()
	p.Mode = models.ModeWhitelist
	s.policies.policy = p
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, nil)
	s.platform.EXPECT().Reject(gomock.Any(), joinReq, "rejected").Return(nil)

	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Zero(s.tracker.Len())
	s.Empty(s.timers.all())
	recs := s.audits()
	s.Require().Len(recs, 1)
	s.Equal(models.AuditTypeWhitelistMode, recs[0].Type)
	s.Equal(models.AuditResultFail, recs[0].Result)
}

func (s *ServiceSuite) TestTextCaptchaPass() {
	s.expectSends()
	code := s.challengeUser()

	s.Len(code, 4)
	s.Equal("[join verification] 2000 send "+code+" within 60s", s.messages()[0].Text)
	s.Equal(60*time.Second, s.timers.at(0).d)

	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)
	err := s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: strings.ToLower(code)})
	s.Require().NoError(err)

	s.Zero(s.tracker.Len())
	s.True(s.timers.at(0).stopped)
	s.Zero(s.tracker.Attempts(joinReq.Key()).Count, "attempts cleared on success")
	recs := s.audits()
	s.Require().Len(recs, 1)
	s.Equal(models.AuditTypeCaptcha, recs[0].Type)
	s.Equal(models.AuditResultPass, recs[0].Result)
}

func (s *ServiceSuite) TestWrongCodeStaysPending() {
	s.expectSends()
	code := s.challengeUser()

	s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: "nope"}))

	s.Equal(1, s.tracker.Len())
	s.False(s.timers.at(0).stopped, "the original timer keeps running")
	s.Empty(s.audits())

	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)
	s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))
	s.Zero(s.tracker.Len())
}

func (s *ServiceSuite) TestTooManyAttemptsRejectsEvenCorrectCode() {
	s.expectSends()
	code := s.challengeUser()
	for range 3 {
		s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: "XXXX"}))
	}

	s.platform.EXPECT().Reject(gomock.Any(), joinReq, "rejected").Return(nil)
	s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))

	s.Zero(s.tracker.Len())
	recs := s.audits()
	s.Require().Len(recs, 1)
	s.Equal(models.AuditResultFail, recs[0].Result)
	s.Equal(models.AuditTypeCaptcha, recs[0].Type)
	s.False(s.engine.Validate(s.ctx, joinReq.Key(), code), "code withdrawn")
}

func (s *ServiceSuite) TestTimeout() {
	s.expectSends()
	code := s.challengeUser()

	s.platform.EXPECT().Reject(gomock.Any(), joinReq, "too late").Return(nil)
	s.timers.at(0).fire()

	s.Zero(s.tracker.Len())
	recs := s.audits()
	s.Require().Len(recs, 1)
	s.Equal(models.AuditTypeTimeout, recs[0].Type)
	s.Equal(models.AuditResultTimeout, recs[0].Result)
	s.Equal("[join verification] 2000 too late", s.messages()[1].Text)

	s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}),
		"late answer is ignored")
	s.Len(s.audits(), 1)
}

func (s *ServiceSuite) TestTimeoutAfterResolutionIsNoop() {
	s.expectSends()
	code := s.challengeUser()
	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)
	s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))

	s.timers.at(0).fire()

	s.Len(s.audits(), 1, "no second resolution")
}

func (s *ServiceSuite) TestDuplicateRequestReplacesChallenge() {
	s.expectSends()
	first := s.challengeUser()

	second := joinReq
	second.Flag = "flag-2"
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, nil)
	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, second))
	code := s.pendingCode()

	s.Equal(1, s.tracker.Len())
	s.True(s.timers.at(0).stopped)
	s.timers.at(0).fire()
	s.Equal(1, s.tracker.Len(), "stale timer does nothing")

	if first != code {
		s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: first}))
		s.Equal(1, s.tracker.Len(), "superseded code no longer matches")
	}

	s.platform.EXPECT().Approve(gomock.Any(), second).Return(nil)
	s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))
	s.Zero(s.tracker.Len())
}

func (s *ServiceSuite) TestConcurrentDuplicateRequestsKeepCodeAndEntryInSync() {
	s.expectSends()
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil).Times(2)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, nil).Times(2)

	gated := &gatedStore{
		Store:   captcha.NewMemoryStore(),
		paused:  make(chan struct{}),
		release: make(chan struct{}),
	}
	engine := captcha.New(captcha.WithStore(gated), captcha.WithLogger(testutil.DiscardLogger()))
	recorder, err := audit.NewRecorder(s.store)
	s.Require().NoError(err)
	svc, err := New(Dependencies{
		Platform:  s.platform,
		Whitelist: s.whitelist,
		Policies:  s.policies,
		Captcha:   engine,
		Tracker:   s.tracker,
		Audit:     recorder,
	}, WithLogger(testutil.DiscardLogger()))
	s.Require().NoError(err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.NoError(svc.HandleJoinRequest(s.ctx, joinReq))
	}()
	<-gated.paused
	go func() {
		defer wg.Done()
		s.NoError(svc.HandleJoinRequest(s.ctx, joinReq))
	}()

	s.Never(func() bool { return len(s.messages()) > 0 }, 100*time.Millisecond, 10*time.Millisecond,
		"the duplicate must wait until the first challenge is tracked")
	close(gated.release)
	wg.Wait()

	code := s.pendingCode()
	announced := false
	for _, m := range s.messages() {
		announced = announced || strings.Contains(m.Text, code)
	}
	s.True(announced, "the tracked code was sent to the group")

	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)
	s.Require().NoError(svc.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))
	s.Zero(s.tracker.Len(), "the tracked code is the one the store accepts")
	s.Zero(svc.keys.len())
}

func (s *ServiceSuite) TestExhaustedApplicantIsRejectedWithoutNewChallenge() {
	s.expectSends()
	s.challengeUser()
	for range 3 {
		s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: "XXXX"}))
	}
	before := len(s.messages())

	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, nil)
	s.platform.EXPECT().Reject(gomock.Any(), joinReq, "rejected").Return(nil)
	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Zero(s.tracker.Len(), "open challenge withdrawn")
	sent := s.messages()[before:]
	s.Require().Len(sent, 1)
	s.Equal("[join verification] 2000 rejected", sent[0].Text)
	recs := s.audits()
	s.Require().Len(recs, 1)
	s.Equal(models.AuditResultFail, recs[0].Result)
}

func (s *ServiceSuite) TestSendFailureRejectsImmediately() {
	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(false, nil)
	s.platform.EXPECT().IsMember(gomock.Any(), group, user).Return(false, nil)
	gomock.InOrder(
		s.platform.EXPECT().SendMessage(gomock.Any(), group, gomock.Any()).Return(errors.New("muted")),
		s.platform.EXPECT().Reject(gomock.Any(), joinReq, "rejected").Return(nil),
		s.platform.EXPECT().SendMessage(gomock.Any(), group, gomock.Any()).Return(errors.New("muted")),
	)

	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Zero(s.tracker.Len())
	s.True(s.timers.at(0).stopped)
	recs := s.audits()
	s.Require().Len(recs, 1, "outcome message failure does not block the audit")
	s.Equal(models.AuditResultFail, recs[0].Result)
}

func (s *ServiceSuite) TestImageCaptcha() {
	s.expectSends()
	p := textPolicy()
	p.Mode = models.ModeImageCaptcha
	s.policies.policy = p

	s.Run("code is only in the image", func() {
		code := s.challengeUser()

		msg := s.messages()[0]
		s.Require().NotNil(msg.Image)
		s.Equal(code, string(msg.Image.Data))
		s.NotContains(msg.Text, code)

		s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)
		s.Require().NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))
		s.Equal(models.AuditTypeImageCaptcha, s.audits()[0].Type)
	})

	s.Run("render failure falls back to text", func() {
		s.renderer.err = errors.New("no fonts")
		code := s.challengeUser()

		msg := s.messages()[len(s.messages())-1]
		s.Nil(msg.Image)
		s.Contains(msg.Text, code)
	})
}

func (s *ServiceSuite) TestPlatformApproveFailure() {
	s.expectSends()
	code := s.challengeUser()
	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(errors.New("unsupported"))

	err := s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code})

	s.Error(err)
	s.Empty(s.audits(), "no audit for an action that did not happen")
}

func (s *ServiceSuite) TestMessageWithoutPendingIsIgnored() {
	err := s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: 9, Text: "hello"})

	s.NoError(err)
	s.Zero(s.tracker.Attempts(models.KeyOf(group, 9)).Count)
}

func (s *ServiceSuite) TestWhitelistShortcutWithdrawsOpenChallenge() {
	s.expectSends()
	code := s.challengeUser()

	s.whitelist.EXPECT().IsWhitelisted(gomock.Any(), user).Return(true, nil)
	s.platform.EXPECT().Approve(gomock.Any(), joinReq).Return(nil)
	s.Require().NoError(s.service.HandleJoinRequest(s.ctx, joinReq))

	s.Zero(s.tracker.Len())
	s.True(s.timers.at(0).stopped)
	s.False(s.engine.Validate(s.ctx, joinReq.Key(), code))
}

func (s *ServiceSuite) TestCloseDrains() {
	s.expectSends()
	code := s.challengeUser()

	s.service.Close(s.ctx)
	s.service.Close(s.ctx)

	s.Zero(s.service.Pending())
	s.True(s.timers.at(0).stopped)
	s.NoError(s.service.HandleJoinRequest(s.ctx, joinReq), "events after close are ignored")
	s.NoError(s.service.HandleGroupMessage(s.ctx, models.GroupMessage{GroupID: group, UserID: user, Text: code}))
	s.Empty(s.audits())
}

// fixedPolicies returns the same policy for every group.
type fixedPolicies struct {
	policy models.GroupPolicy
}

func (f *fixedPolicies) Resolve(_ context.Context, groupID id.GroupID) models.GroupPolicy {
	p := f.policy
	p.GroupID = groupID
	return p
}

// stubRenderer "renders" the code as its own bytes.
type stubRenderer struct {
	err error
}

func (r *stubRenderer) Render(code string) (*models.Image, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &models.Image{Data: []byte(code), MIME: "image/png"}, nil
}

// gatedStore pauses the first Set after it lands until release is closed.
type gatedStore struct {
	captcha.Store
	once    sync.Once
	paused  chan struct{}
	release chan struct{}
}

func (g *gatedStore) Set(ctx context.Context, key models.Key, code string, expiresAt time.Time) error {
	err := g.Store.Set(ctx, key, code, expiresAt)
	g.once.Do(func() {
		close(g.paused)
		<-g.release
	})
	return err
}

type manualTimers struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (m *manualTimers) AfterFunc(d time.Duration, f func()) tracker.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *manualTimers) at(i int) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers[i]
}

func (m *manualTimers) all() []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*manualTimer(nil), m.timers...)
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *manualTimer) fire() { t.f() }
