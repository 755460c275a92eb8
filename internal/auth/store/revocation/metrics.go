package revocation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records revocation lookups per backend.
type Metrics struct {
	CheckDuration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CheckDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "abportal_token_revocation_check_duration_ms",
			Help:    "Latency of token revocation checks in milliseconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
		}, []string{"backend"}),
	}
}

func (m *Metrics) observe(backend string, start time.Time) {
	if m == nil {
		return
	}
	m.CheckDuration.WithLabelValues(backend).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
}
