package gate

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abportal/internal/auth/models"
	"abportal/internal/platform/logger"
	id "abportal/pkg/domain"
	"abportal/pkg/requestcontext"
	"abportal/pkg/testutil"
)

func reviewer() models.Principal {
	return models.Principal{
		UserID:    id.NewUserID(),
		SessionID: id.NewSessionID(),
		Name:      "Awarding Body Reviewer",
		Email:     "ab@portal.com",
		Device:    "Chrome on Intel Mac OS X 10_15_7",
		TokenID:   "jti-1",
		ExpiresAt: time.Date(2024, 5, 14, 17, 30, 0, 0, time.UTC),
	}
}

func TestGuard(t *testing.T) {
	assert.Equal(t, Decision{Kind: Loading}, Guard(models.Unresolved()))
	assert.Equal(t, Decision{Kind: Allowed}, Guard(models.SignedIn(reviewer())))
	assert.Equal(t, Decision{Kind: Redirect, RedirectTo: "/login"}, Guard(models.Anonymous()))

	// An unresolved state wins even if a principal is attached.
	p := reviewer()
	assert.Equal(t, Loading, Guard(models.AuthState{Principal: &p}).Kind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "allowed", Allowed.String())
	assert.Equal(t, "redirect", Redirect.String())
}

func TestRequireSession(t *testing.T) {
	principal := reviewer()

	resolver := ResolverFunc(func(_ context.Context, token string) models.AuthState {
		switch token {
		case "valid":
			return models.SignedIn(principal)
		case "pending":
			return models.Unresolved()
		default:
			return models.Anonymous()
		}
	})

	var invoked bool
	var seen context.Context
	handler := RequireSession(resolver, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
		seen = r.Context()
		w.WriteHeader(http.StatusNoContent)
	}))

	testutil.Given(t, "no signed-in reviewer", func(t *testing.T) {
		testutil.When(t, "the review surface is requested without a token", func(t *testing.T) {
			invoked = false
			rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/api/certificates"))

			testutil.Then(t, "the caller is redirected to login and nothing is rendered", func(t *testing.T) {
				assert.False(t, invoked)
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
				assert.Equal(t, "/login", rr.Header().Get("Location"))
				testutil.AssertJSONContains(t, rr, "error", "unauthorized")
				testutil.AssertJSONContains(t, rr, "redirect_to", "/login")
			})
		})

		testutil.When(t, "the token is rejected", func(t *testing.T) {
			invoked = false
			req := testutil.NewRequest(t, http.MethodGet, "/api/certificates")
			req.Header.Set("Authorization", "Bearer forged")
			rr := testutil.DoRequest(handler, req)

			testutil.Then(t, "the caller is redirected to login", func(t *testing.T) {
				assert.False(t, invoked)
				testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			})
		})
	})

	testutil.Given(t, "the auth layer has not resolved", func(t *testing.T) {
		invoked = false
		req := testutil.NewRequest(t, http.MethodGet, "/api/certificates")
		req.Header.Set("Authorization", "Bearer pending")
		rr := testutil.DoRequest(handler, req)

		testutil.Then(t, "the caller is asked to retry shortly", func(t *testing.T) {
			assert.False(t, invoked)
			testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
			assert.Equal(t, "1", rr.Header().Get("Retry-After"))
		})
	})

	testutil.Given(t, "a signed-in reviewer", func(t *testing.T) {
		invoked = false
		req := testutil.NewRequest(t, http.MethodGet, "/api/certificates")
		req.Header.Set("Authorization", "Bearer valid")
		rr := testutil.DoRequest(handler, req)

		testutil.Then(t, "the handler runs with the principal in context", func(t *testing.T) {
			require.True(t, invoked)
			testutil.AssertStatus(t, rr, http.StatusNoContent)

			got, ok := PrincipalFrom(seen)
			require.True(t, ok)
			assert.Equal(t, principal, got)
		})

		testutil.And(t, "the request context carries the reviewer's ids and device", func(t *testing.T) {
			require.NotNil(t, seen)
			assert.Equal(t, principal.UserID, requestcontext.UserID(seen))
			assert.Equal(t, principal.SessionID, requestcontext.SessionID(seen))
			assert.Equal(t, principal.Device, requestcontext.DeviceLabel(seen))
		})
	})
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)
}
