package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"abportal/pkg/platform/httputil"
	"abportal/pkg/requestcontext"
)

const healthCheckTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

type HealthResponse struct {
	Status  string            `json:"status"`
	Loading bool              `json:"loading"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health reports liveness, whether the seed is still loading, and the state of
// optional backends. Any failing check turns the response into a 503.
type Health struct {
	loading func() bool
	checks  map[string]Check
	logger  *slog.Logger
}

func NewHealth(loading func() bool, logger *slog.Logger) *Health {
	return &Health{loading: loading, checks: make(map[string]Check), logger: logger}
}

// Add registers a named dependency check. Nil checks are ignored.
func (h *Health) Add(name string, check Check) *Health {
	if check != nil {
		h.checks[name] = check
	}
	return h
}

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	if h.loading != nil {
		resp.Loading = h.loading()
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed",
				"request_id", requestcontext.RequestID(ctx),
				"check", name,
				"error", err,
			)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
