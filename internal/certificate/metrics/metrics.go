package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Seed load outcomes.
const (
	OutcomeLoaded      = "loaded"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
)

// Metrics provides observability for the certificate collection.
// Tracks seed load outcomes and how many records the last load kept.
type Metrics struct {
	SeedLoads        *prometheus.CounterVec
	SeedRecords      prometheus.Gauge
	SeedDropped      prometheus.Counter
	SeedLoadDuration prometheus.Histogram
}

// New registers the certificate metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SeedLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "abportal_seed_loads_total",
			Help: "Seed document loads by outcome",
		}, []string{"outcome"}),
		SeedRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "abportal_seed_records",
			Help: "Certificate requests kept by the last seed load",
		}),
		SeedDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "abportal_seed_records_dropped_total",
			Help: "Seed records dropped as invalid or duplicate",
		}),
		SeedLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "abportal_seed_load_duration_seconds",
			Help:    "Duration of the seed fetch and decode",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// RecordLoad records one load attempt. records is ignored unless outcome is loaded.
func (m *Metrics) RecordLoad(outcome string, records int, start time.Time) {
	m.SeedLoads.WithLabelValues(outcome).Inc()
	m.SeedLoadDuration.Observe(time.Since(start).Seconds())
	if outcome == OutcomeLoaded {
		m.SeedRecords.Set(float64(records))
	} else {
		m.SeedRecords.Set(0)
	}
}

func (m *Metrics) IncrementDropped() {
	m.SeedDropped.Inc()
}
