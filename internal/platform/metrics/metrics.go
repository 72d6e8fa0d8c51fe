package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-level Prometheus metrics. Module-specific
// metrics live in their own packages (internal/notary/metrics).
type Metrics struct {
	RequestLatency   *prometheus.HistogramVec
	DocumentsCreated prometheus.Counter
}

// New creates and registers all application-level metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hati_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route", "status"}),
		DocumentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hati_documents_created_total",
			Help: "Total number of documents uploaded",
		}),
	}
}

// ObserveRequest records a request duration. Nil-safe so handlers can run
// without metrics in tests.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, status).Observe(seconds)
	}
}

// IncrementDocumentsCreated increments the upload counter by 1.
func (m *Metrics) IncrementDocumentsCreated() {
	if m != nil {
		m.DocumentsCreated.Inc()
	}
}
