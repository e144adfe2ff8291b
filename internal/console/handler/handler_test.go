package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"joingate/internal/verification/models"
	"joingate/internal/verification/policy"
	"joingate/internal/verification/ports/mocks"
	"joingate/internal/verification/store/memory"
	id "joingate/pkg/domain"
	"joingate/pkg/platform/middleware/admin"
	"joingate/pkg/testutil"
)

// =============================================================================
// Console API Test Suite
// =============================================================================

const adminToken = "console-secret"

type ConsoleSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.Store
	resolver *policy.Resolver
	router   http.Handler
	hash     string
}

func TestConsoleSuite(t *testing.T) {
	suite.Run(t, new(ConsoleSuite))
}

func (s *ConsoleSuite) SetupSuite() {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.MinCost)
	s.Require().NoError(err)
	s.hash = string(hash)
}

func (s *ConsoleSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	var err error
	s.resolver, err = policy.New(s.store, models.Defaults{
		Mode:          models.ModeTextCaptcha,
		CaptchaLength: 4,
		Timeout:       300 * time.Second,
		SkipIfMember:  true,
		WaitingMsg:    "send {captcha}",
	}, policy.WithLogger(testutil.DiscardLogger()))
	s.Require().NoError(err)
	h := New(s.store, s.resolver, testutil.DiscardLogger())
	s.router = h.Router(s.hash, http.NotFoundHandler())
}

// call sends req with a valid admin token.
func (s *ConsoleSuite) call(req *http.Request) *httptest.ResponseRecorder {
	testutil.WithHeader(req, admin.HeaderAdminToken, adminToken)
	return testutil.DoRequest(s.router, req)
}

func (s *ConsoleSuite) TestAdminTokenRequired() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/group-configs"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *ConsoleSuite) TestGroupConfigs() {
	s.Run("get persists defaults for an unseen group", func() {
		rr := s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/group-configs/123"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[PolicyResponse](s.T(), rr)
		s.Equal(id.GroupID(123), resp.GroupID)
		s.Equal(models.ModeTextCaptcha, resp.Mode)
		s.Equal(300, resp.Timeout)

		_, err := s.store.GetPolicy(s.ctx, 123)
		s.NoError(err)
	})

	s.Run("put merges fields and busts the cache", func() {
		s.Equal(300*time.Second, s.resolver.Resolve(s.ctx, 123).Timeout)

		rr := s.call(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/group-configs/123", map[string]any{
			"mode":    "image-captcha",
			"timeout": 120,
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[PolicyResponse](s.T(), rr)
		s.Equal(models.ModeImageCaptcha, resp.Mode)
		s.Equal(120, resp.Timeout)
		s.Equal("send {captcha}", resp.WaitingMsg)

		p := s.resolver.Resolve(s.ctx, 123)
		s.Equal(120*time.Second, p.Timeout)
		s.Equal(models.ModeImageCaptcha, p.Mode)
	})

	s.Run("list", func() {
		rr := s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/group-configs"))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[PolicyListResponse](s.T(), rr)
		s.Equal(1, resp.Total)
	})

	s.Run("validation failures", func() {
		cases := []struct {
			name string
			path string
			body any
			code string
		}{
			{"timeout below range", "/api/group-configs/123", map[string]any{"timeout": 30}, "validation_error"},
			{"timeout above range", "/api/group-configs/123", map[string]any{"timeout": 3601}, "validation_error"},
			{"unknown mode", "/api/group-configs/123", map[string]any{"mode": "voice"}, "invalid_input"},
			{"bad captcha length", "/api/group-configs/123", map[string]any{"captcha_length": 0}, "validation_error"},
			{"unknown field", "/api/group-configs/123", map[string]any{"colour": "red"}, "bad_request"},
			{"bad group id", "/api/group-configs/abc", map[string]any{}, "invalid_input"},
		}
		for _, tc := range cases {
			rr := s.call(testutil.NewJSONRequest(s.T(), http.MethodPut, tc.path, tc.body))
			testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, tc.code)
		}
		s.Equal(120*time.Second, s.resolver.Resolve(s.ctx, 123).Timeout, "rejected updates change nothing")
	})
}

func (s *ConsoleSuite) TestWhitelist() {
	rr := s.call(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/whitelist", map[string]any{"user_id": 42, "remark": " vip "}))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[WhitelistResponse](s.T(), rr)
	s.Equal("vip", created.Remark)

	rr = s.call(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/whitelist", map[string]any{"user_id": 0}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")

	rr = s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/whitelist"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	list := testutil.UnmarshalResponse[WhitelistListResponse](s.T(), rr)
	s.Require().Len(list.Entries, 1)
	s.Equal(id.UserID(42), list.Entries[0].UserID)

	rr = s.call(testutil.NewRequest(s.T(), http.MethodDelete, "/api/whitelist/42"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = s.call(testutil.NewRequest(s.T(), http.MethodDelete, "/api/whitelist/42"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *ConsoleSuite) TestRecords() {
	for i, g := range []id.GroupID{1, 2, 1} {
		s.Require().NoError(s.store.AppendAudit(s.ctx, &models.AuditRecord{
			GroupID:   g,
			UserID:    id.UserID(10 + i),
			Type:      models.AuditTypeCaptcha,
			Result:    models.AuditResultPass,
			CreatedAt: time.Now(),
		}))
	}

	rr := s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/records?group_id=1"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[RecordsResponse](s.T(), rr)
	s.Require().Equal(2, resp.Total)
	s.Equal(id.UserID(12), resp.Records[0].UserID, "newest first")

	rr = s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/records?limit=1"))
	resp = testutil.UnmarshalResponse[RecordsResponse](s.T(), rr)
	s.Equal(1, resp.Total)

	rr = s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/records?user_id=nope"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")

	rr = s.call(testutil.NewRequest(s.T(), http.MethodGet, "/api/records?group_id=9"))
	resp = testutil.UnmarshalResponse[RecordsResponse](s.T(), rr)
	s.NotNil(resp.Records)
	s.Zero(resp.Total)
}

func (s *ConsoleSuite) TestStorageFailure() {
	ctrl := gomock.NewController(s.T())
	store := mocks.NewMockStore(ctrl)
	router := New(store, s.resolver, testutil.DiscardLogger()).Router(s.hash, nil)
	store.EXPECT().ListWhitelist(gomock.Any()).Return(nil, errors.New("connection refused"))

	req := testutil.WithHeader(testutil.NewRequest(s.T(), http.MethodGet, "/api/whitelist"), admin.HeaderAdminToken, adminToken)
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
}

func (s *ConsoleSuite) TestHealth() {
	h := New(s.store, s.resolver, testutil.DiscardLogger(),
		HealthCheck{Name: "database", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("down") }},
	)

	rr := testutil.DoRequest(h.Router(s.hash, nil), testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))

	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
	resp := testutil.UnmarshalResponse[HealthResponse](s.T(), rr)
	s.Equal("degraded", resp.Status)
	s.Equal(map[string]string{"database": "ok", "redis": "unavailable"}, resp.Checks)
}
