package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	authhandler "abportal/internal/auth/handler"
	authservice "abportal/internal/auth/service"
	"abportal/internal/auth/store/revocation"
	userstore "abportal/internal/auth/store/user"
	"abportal/internal/certificate/models"
	"abportal/internal/certificate/store"
	jwttoken "abportal/internal/jwt_token"
	"abportal/internal/platform/locale"
	"abportal/internal/platform/logger"
	"abportal/internal/platform/metrics"
	portalhandler "abportal/internal/portal/handler"
	"abportal/internal/review"
	"abportal/internal/review/notifier"
	id "abportal/pkg/domain"
	"abportal/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	store    *store.InMemory
	registry *review.Registry
	inbox    *notifier.Inbox
	health   *Health
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctx := context.Background()
	log := logger.Discard()
	reg := prometheus.NewRegistry()
	httpMetrics := metrics.New(reg)
	loc := locale.MustNew("en-US", "UTC")

	s.store = store.NewInMemory(loc)
	s.store.ReplaceAll(ctx, []models.CertificateRequest{
		{ID: "cr-1", LearnerName: "Asha Verma", IssuingBody: "B1", Status: models.StatusPending, LastUpdated: "6/1/2025, 9:00:00 AM"},
		{ID: "cr-2", LearnerName: "Ravi Kumar", IssuingBody: "B2", Status: models.StatusPending, LastUpdated: "6/1/2025, 9:00:00 AM"},
	})
	s.store.FinishLoading(ctx)

	s.inbox = notifier.NewInbox(10)
	s.registry = review.NewRegistry(s.store, s.inbox, loc, review.WithLogger(log))

	auth := authservice.New(userstore.New(),
		jwttoken.NewJWTService("test-key", "abportal", "abportal"),
		revocation.NewInMemoryTRL(),
		authservice.WithLogger(log),
		authservice.WithMetrics(httpMetrics),
		authservice.WithHashCost(bcrypt.MinCost),
		authservice.WithSessionTTL(time.Hour),
		authservice.WithLogoutHook(func(_ context.Context, session id.SessionID) {
			s.registry.Drop(session)
			s.inbox.Drop(session)
		}),
	)
	_, err := auth.RegisterReviewer(ctx, "ab@portal.com", "Awarding Body Reviewer", "Abc@123")
	s.Require().NoError(err)

	s.health = NewHealth(s.store.Loading, log)
	s.router = NewRouter(Deps{
		Logger:   log,
		Metrics:  httpMetrics,
		Gatherer: reg,
		Resolver: auth,
		Auth:     authhandler.New(auth, log),
		Portal:   portalhandler.New(s.store, s.registry, s.inbox, log, httpMetrics),
		Health:   s.health,
	})
}

func (s *RouterSuite) login() string {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
		map[string]string{"email": "ab@portal.com", "password": "Abc@123"})
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[authhandler.LoginResponse](s.T(), rr)
	s.Contains(resp.Principal.Device, "Firefox")
	return resp.AccessToken
}

func (s *RouterSuite) call(method, path, token string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	} else {
		req = testutil.NewRequest(s.T(), method, path)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *RouterSuite) TestReviewSurfaceIsGated() {
	rr := s.call(http.MethodGet, "/api/certificates", "", nil)

	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	s.Equal("/login", rr.Header().Get("Location"))
	testutil.AssertJSONContains(s.T(), rr, "redirect_to", "/login")
	s.NotContains(rr.Body.String(), "Asha")
}

func (s *RouterSuite) TestSessionLifecycle() {
	token := s.login()

	rr := s.call(http.MethodGet, "/api/certificates", token, nil)
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "pending_count", float64(2))

	rr = s.call(http.MethodPost, "/api/review/open", token, map[string]string{"id": "cr-1"})
	testutil.AssertStatusOK(s.T(), rr)
	rr = s.call(http.MethodPost, "/api/review/approve", token, nil)
	testutil.AssertStatusOK(s.T(), rr)
	s.Equal(1, s.store.PendingCount(context.Background()))
	s.Equal(1, s.registry.Len())

	rr = s.call(http.MethodPost, "/auth/logout", token, nil)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	s.Equal(0, s.registry.Len())

	rr = s.call(http.MethodGet, "/api/certificates", token, nil)
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)

	rr = s.call(http.MethodGet, "/auth/session", token, nil)
	testutil.AssertJSONContains(s.T(), rr, "state", "redirect")
}

func (s *RouterSuite) TestLoginFailure() {
	rr := s.call(http.MethodPost, "/auth/login", "", map[string]string{"email": "ab@portal.com", "password": "wrong"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	testutil.AssertJSONContains(s.T(), rr, "error_description", "Invalid email or password")
}

func (s *RouterSuite) TestNonJSONBodyIsRejected() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/auth/login", "email=ab@portal.com")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *RouterSuite) TestHealth() {
	s.Run("healthy without checks", func() {
		rr := s.call(http.MethodGet, "/health", "", nil)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "ok")
		testutil.AssertJSONContains(s.T(), rr, "loading", false)
	})

	s.Run("failing dependency degrades", func() {
		s.health.Add("redis", func(context.Context) error { return errors.New("down") })
		rr := s.call(http.MethodGet, "/health", "", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
		resp := testutil.UnmarshalResponse[HealthResponse](s.T(), rr)
		s.Equal("degraded", resp.Status)
		s.Equal("unavailable", resp.Checks["redis"])
	})
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.call(http.MethodGet, "/health", "", nil)

	rr := s.call(http.MethodGet, "/metrics", "", nil)
	testutil.AssertStatusOK(s.T(), rr)
	body := rr.Body.String()
	s.True(strings.Contains(body, "abportal_http_request_duration_seconds"), "latency histogram exported")
}

func (s *RouterSuite) TestRequestIDEchoed() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/health")
	req.Header.Set("X-Request-ID", "req-123")
	rr := testutil.DoRequest(s.router, req)
	s.Equal("req-123", rr.Header().Get("X-Request-ID"))
}
