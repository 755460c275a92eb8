// Package gate decides whether the review surface may be shown for an auth state.
package gate

import (
	"context"
	"log/slog"
	"net/http"

	"abportal/internal/auth/models"
	"abportal/internal/platform/middleware"
	"abportal/pkg/platform/httputil"
	"abportal/pkg/requestcontext"
)

// LoginPath is where unauthenticated reviewers are sent.
const LoginPath = "/login"

type Kind int

const (
	Loading Kind = iota
	Allowed
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Allowed:
		return "allowed"
	case Redirect:
		return "redirect"
	default:
		return "loading"
	}
}

// Decision is the gate's answer. RedirectTo is set only for Redirect.
type Decision struct {
	Kind       Kind
	RedirectTo string
}

// Guard is a pure function of the auth state.
func Guard(state models.AuthState) Decision {
	switch {
	case !state.Resolved:
		return Decision{Kind: Loading}
	case state.Principal != nil:
		return Decision{Kind: Allowed}
	default:
		return Decision{Kind: Redirect, RedirectTo: LoginPath}
	}
}

// Resolver turns a bearer token into an auth state.
type Resolver interface {
	Resolve(ctx context.Context, token string) models.AuthState
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, token string) models.AuthState

func (f ResolverFunc) Resolve(ctx context.Context, token string) models.AuthState {
	return f(ctx, token)
}

type principalKey struct{}

// WithPrincipal stores the signed-in principal in ctx along with its request context IDs.
func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	ctx = requestcontext.WithUserID(ctx, p.UserID)
	ctx = requestcontext.WithSessionID(ctx, p.SessionID)
	return requestcontext.WithDeviceLabel(ctx, p.Device)
}

// PrincipalFrom returns the principal set by RequireSession.
func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}

// StateFor resolves the request's bearer token. A request without one is anonymous.
func StateFor(r *http.Request, resolver Resolver) models.AuthState {
	token, ok := middleware.BearerToken(r)
	if !ok {
		return models.Anonymous()
	}
	return resolver.Resolve(r.Context(), token)
}

type redirectResponse struct {
	Error      string `json:"error"`
	RedirectTo string `json:"redirect_to"`
}

// RequireSession runs next only when the gate allows the request.
func RequireSession(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			state := StateFor(r, resolver)

			switch decision := Guard(state); decision.Kind {
			case Loading:
				logger.DebugContext(ctx, "session still resolving",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "1")
				httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorResponse{
					Error:            "unavailable",
					ErrorDescription: "session state is still resolving",
				})
			case Redirect:
				w.Header().Set("Location", decision.RedirectTo)
				httputil.WriteJSON(w, http.StatusUnauthorized, redirectResponse{
					Error:      "unauthorized",
					RedirectTo: decision.RedirectTo,
				})
			default:
				next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, *state.Principal)))
			}
		})
	}
}
