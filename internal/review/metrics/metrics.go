package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for review decisions.
type Metrics struct {
	Decisions       *prometheus.CounterVec
	Refused         *prometheus.CounterVec
	PendingRequests prometheus.Gauge
	OpenSessions    prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "abportal_review_decisions_total",
			Help: "Applied review decisions by decision",
		}, []string{"decision"}),
		Refused: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "abportal_review_decisions_refused_total",
			Help: "Decision intents refused because no pending target was open",
		}, []string{"decision"}),
		PendingRequests: factory.NewGauge(prometheus.GaugeOpts{
			Name: "abportal_pending_requests",
			Help: "Certificate requests currently awaiting a decision",
		}),
		OpenSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "abportal_review_sessions",
			Help: "Reviewer sessions holding a review coordinator",
		}),
	}
}

// IncrementDecision records an applied decision ("approved" or "rejected").
func (m *Metrics) IncrementDecision(decision string) {
	m.Decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementRefused(decision string) {
	m.Refused.WithLabelValues(decision).Inc()
}

func (m *Metrics) SetPending(n int) {
	m.PendingRequests.Set(float64(n))
}

func (m *Metrics) SetSessions(n int) {
	m.OpenSessions.Set(float64(n))
}
