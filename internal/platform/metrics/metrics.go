package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP-level Prometheus metrics shared by every handler.
type Metrics struct {
	EndpointLatency *prometheus.HistogramVec
	OpenStreams     prometheus.Gauge
	LoginAttempts   *prometheus.CounterVec
}

// New creates and registers the HTTP metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "abportal_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by method, route pattern and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
		OpenStreams: factory.NewGauge(prometheus.GaugeOpts{
			Name: "abportal_event_streams_open",
			Help: "Number of connected change-event streams",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "abportal_login_attempts_total",
			Help: "Reviewer login attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveEndpointLatency records one request. Call with time.Now() taken at the start.
func (m *Metrics) ObserveEndpointLatency(method, route string, status int, start time.Time) {
	m.EndpointLatency.WithLabelValues(method, route, statusClass(status)).Observe(time.Since(start).Seconds())
}

func (m *Metrics) StreamOpened() { m.OpenStreams.Inc() }
func (m *Metrics) StreamClosed() { m.OpenStreams.Dec() }

// IncrementLoginAttempt records a login with outcome "success" or "failure".
func (m *Metrics) IncrementLoginAttempt(outcome string) {
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
