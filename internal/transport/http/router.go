// Package httptransport assembles the portal's HTTP surface: middleware chain,
// public auth routes, the gated review surface, health and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"abportal/internal/auth/gate"
	"abportal/internal/platform/metrics"
	"abportal/internal/platform/middleware"
)

const defaultRequestTimeout = 30 * time.Second

// Registrar mounts routes on a router.
type Registrar interface {
	Register(r chi.Router)
}

// StreamRegistrar mounts long-lived routes that must not carry a request timeout.
type StreamRegistrar interface {
	RegisterStream(r chi.Router)
}

// Portal is the gated review surface.
type Portal interface {
	Registrar
	StreamRegistrar
}

type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Resolver       gate.Resolver
	Auth           Registrar
	Portal         Portal
	Health         http.Handler
	RequestTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For; every other peer is keyed by its socket address.
	TrustedProxies middleware.TrustedProxies
}

// NewRouter wires all endpoints. Auth routes are public except logout, which the
// auth handler gates itself; every portal route runs behind the session gate.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata(d.TrustedProxies))
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.LatencyMiddleware(d.Metrics))

	if d.Health != nil {
		r.Method(http.MethodGet, "/health", d.Health)
	}
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	requireSession := gate.RequireSession(d.Resolver, d.Logger)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Use(middleware.ContentTypeJSON)
		d.Auth.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			d.Portal.Register(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		d.Portal.RegisterStream(r)
	})

	return r
}
