package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"abportal/internal/auth/gate"
	"abportal/internal/auth/models"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/httputil"
	"abportal/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service is the auth service as seen by the HTTP layer.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Logout(ctx context.Context, p models.Principal) error
	Resolve(ctx context.Context, token string) models.AuthState
}

// Handler wires the reviewer session endpoints to the auth service.
type Handler struct {
	service Service
	logger  *slog.Logger
	login   []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithLoginMiddleware runs mw in front of POST /auth/login only.
func WithLoginMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.login = append(h.login, mw...)
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the session endpoints. Logout sits behind the session gate.
func (h *Handler) Register(r chi.Router) {
	r.With(h.login...).Post("/auth/login", h.HandleLogin)
	r.Get("/auth/session", h.HandleSession)
	r.With(gate.RequireSession(h.service, h.logger)).Post("/auth/logout", h.HandleLogout)
}

// HandleLogin handles POST /auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoginResponse(result))
}

// HandleSession handles GET /auth/session. It reports the gate decision for the
// caller's token and never fails.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	state := gate.StateFor(r, h.service)
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(gate.Guard(state), state))
}

// HandleLogout handles POST /auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := gate.PrincipalFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	if err := h.service.Logout(ctx, principal); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
