// Package metrics provides observability for the notarization module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the notarization module metrics.
type Metrics struct {
	// Attempts by final outcome (anchored, already_anchored, hash_mismatch, ...)
	Attempts *prometheus.CounterVec

	// Time from submission to confirmed receipt
	ConfirmationLatency prometheus.Histogram

	// Attempts currently holding a per-document lock
	ActiveLocks prometheus.Gauge
}

// New creates a new Metrics instance with all notary metrics registered.
func New() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hati_notary_attempts_total",
			Help: "Total notarization attempts by outcome",
		}, []string{"outcome"}),

		ConfirmationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hati_notary_confirmation_duration_seconds",
			Help:    "Time from transaction submission to confirmed receipt",
			Buckets: []float64{1, 2, 5, 10, 15, 30, 60, 90, 120},
		}),

		ActiveLocks: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "hati_notary_active_locks",
			Help: "Notarization attempts currently in flight",
		}),
	}
}

// IncrementAttempt records an attempt outcome.
func (m *Metrics) IncrementAttempt(outcome string) {
	if m != nil {
		m.Attempts.WithLabelValues(outcome).Inc()
	}
}

// ObserveConfirmation records submission-to-confirmation latency.
func (m *Metrics) ObserveConfirmation(d time.Duration) {
	if m != nil {
		m.ConfirmationLatency.Observe(d.Seconds())
	}
}

// LockAcquired and LockReleased track the in-flight gauge.
func (m *Metrics) LockAcquired() {
	if m != nil {
		m.ActiveLocks.Inc()
	}
}

func (m *Metrics) LockReleased() {
	if m != nil {
		m.ActiveLocks.Dec()
	}
}
