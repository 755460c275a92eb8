package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"abportal/internal/certificate/models"
	dErrors "abportal/pkg/domain-errors"
	"abportal/pkg/platform/httputil"
	"abportal/pkg/requestcontext"
)

const (
	eventSnapshot     = "snapshot"
	streamBuffer      = 16
	keepAliveInterval = 15 * time.Second
)

// HandleEvents handles GET /api/events. It writes the current snapshot at once and
// then one snapshot per store change until the client goes away. A client that
// falls behind skips intermediate snapshots; the newest one is always delivered.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	updates := make(chan models.Snapshot, streamBuffer)
	unsubscribe := h.store.Subscribe(func(s models.Snapshot) {
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	})
	defer unsubscribe()

	if h.metrics != nil {
		h.metrics.StreamOpened()
		defer h.metrics.StreamClosed()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	current := h.store.Snapshot(ctx)
	if err := writeSnapshot(w, current); err != nil {
		h.logger.WarnContext(ctx, "event stream write failed", "request_id", requestID, "error", err)
		return
	}
	flusher.Flush()
	last := current.Version

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case s := <-updates:
			// Changes that landed before the initial snapshot are already in it.
			if s.Version <= last {
				continue
			}
			if err := writeSnapshot(w, s); err != nil {
				h.logger.WarnContext(ctx, "event stream write failed", "request_id", requestID, "error", err)
				return
			}
			flusher.Flush()
			last = s.Version
		}
	}
}

func writeSnapshot(w http.ResponseWriter, s models.Snapshot) error {
	data, err := json.Marshal(toListResponse(s))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", eventSnapshot, s.Version, data)
	return err
}
