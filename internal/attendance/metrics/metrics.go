package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the attendance module.
type Metrics struct {
	// Check-in outcomes by status and capture method
	DecisionOutcome *prometheus.CounterVec

	// Duplicate same-day submissions turned away
	DuplicateRejections prometheus.Counter

	// Full check-in evaluation latency
	DecideLatency prometheus.Histogram
}

// New creates a new Metrics instance with all attendance module metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "geoattend_checkin_outcomes_total",
			Help: "Total check-in outcomes by status and capture method",
		}, []string{"status", "method"}),

		DuplicateRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "geoattend_checkin_duplicates_total",
			Help: "Total same-day duplicate check-ins rejected",
		}),

		DecideLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "geoattend_checkin_decide_duration_seconds",
			Help:    "Duration of full check-in evaluation including zone matching",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementOutcome records a check-in outcome.
func (m *Metrics) IncrementOutcome(status, method string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(status, method).Inc()
	}
}

// IncrementDuplicate records a same-day duplicate rejection.
func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.DuplicateRejections.Inc()
	}
}

// ObserveDecideLatency records the total evaluation duration.
func (m *Metrics) ObserveDecideLatency(d time.Duration) {
	if m != nil {
		m.DecideLatency.Observe(d.Seconds())
	}
}
