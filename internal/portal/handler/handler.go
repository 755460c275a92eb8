// Package handler exposes certificate projections and review intents over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"abportal/internal/certificate/models"
	"abportal/internal/certificate/store"
	"abportal/internal/platform/metrics"
	"abportal/internal/review"
	id "abportal/pkg/domain"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/httputil"
	"abportal/pkg/platform/sentinel"
	"abportal/pkg/requestcontext"
)

// Store is the read side of the certificate store.
type Store interface {
	Snapshot(ctx context.Context) models.Snapshot
	GetByID(ctx context.Context, id string) (models.CertificateRequest, error)
	Subscribe(fn store.Listener) (unsubscribe func())
}

// Reviews hands out the session's review coordinator.
type Reviews interface {
	For(session id.SessionID) *review.Coordinator
}

// Inbox holds notifications until the session reads them.
type Inbox interface {
	Drain(session id.SessionID) []review.Notification
}

// Handler serves the gated review surface. Every route expects the session gate
// to have run first.
type Handler struct {
	store   Store
	reviews Reviews
	inbox   Inbox
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(store Store, reviews Reviews, inbox Inbox, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   store,
		reviews: reviews,
		inbox:   inbox,
		logger:  logger,
		metrics: m,
	}
}

// Register mounts the request/response endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/certificates", h.HandleList)
	r.Get("/api/certificates/grouped", h.HandleGrouped)
	r.Get("/api/certificates/{id}", h.HandleGet)

	r.Get("/api/review", h.HandleReview)
	r.Post("/api/review/open", h.HandleOpen)
	r.Post("/api/review/close", h.HandleClose)
	r.Post("/api/review/approve", h.HandleApprove)
	r.Post("/api/review/reject", h.HandleReject)

	r.Get("/api/notifications", h.HandleNotifications)
}

// RegisterStream mounts the change stream. It must not sit behind a request timeout.
func (h *Handler) RegisterStream(r chi.Router) {
	r.Get("/api/events", h.HandleEvents)
}

// HandleList handles GET /api/certificates.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toListResponse(h.store.Snapshot(r.Context())))
}

// HandleGrouped handles GET /api/certificates/grouped.
func (h *Handler) HandleGrouped(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toGroupedResponse(h.store.Snapshot(r.Context())))
}

// HandleGet handles GET /api/certificates/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "certificate request not found"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate request"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCertificateResponse(req))
}

// HandleReview handles GET /api/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := h.coordinator(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReviewResponse(r.Context(), coordinator))
}

// HandleOpen handles POST /api/review/open.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	coordinator, ok := h.coordinator(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OpenReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := coordinator.Open(ctx, req.ID); err != nil {
		h.logger.InfoContext(ctx, "review open refused",
			"request_id", requestID,
			"certificate_id", req.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toReviewResponse(ctx, coordinator))
}

// HandleClose handles POST /api/review/close.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	coordinator, ok := h.coordinator(w, r)
	if !ok {
		return
	}
	coordinator.Close()
	httputil.WriteJSON(w, http.StatusOK, toReviewResponse(r.Context(), coordinator))
}

// HandleApprove handles POST /api/review/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, (*review.Coordinator).Approve)
}

// HandleReject handles POST /api/review/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, (*review.Coordinator).Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, intent func(*review.Coordinator, context.Context) (review.Notification, bool)) {
	coordinator, ok := h.coordinator(w, r)
	if !ok {
		return
	}
	n, applied := intent(coordinator, r.Context())
	if !applied {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidState, "no pending certificate request is open for review"))
		return
	}
	notification := toNotificationResponse(n)
	httputil.WriteJSON(w, http.StatusOK, DecisionResponse{Applied: true, Notification: &notification})
}

// HandleNotifications handles GET /api/notifications. Reading empties the inbox.
func (h *Handler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	drained := h.inbox.Drain(session)
	resp := NotificationsResponse{Notifications: make([]NotificationResponse, 0, len(drained))}
	for _, n := range drained {
		resp.Notifications = append(resp.Notifications, toNotificationResponse(n))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	session := requestcontext.SessionID(r.Context())
	if session.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.SessionID{}, false
	}
	return session, true
}

func (h *Handler) coordinator(w http.ResponseWriter, r *http.Request) (*review.Coordinator, bool) {
	session, ok := h.session(w, r)
	if !ok {
		return nil, false
	}
	return h.reviews.For(session), true
}
