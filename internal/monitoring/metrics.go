package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the harvester.
type Metrics struct {
	OutcomesTotal      *prometheus.CounterVec
	NavigationDuration prometheus.Histogram
	BlockedTotal       prometheus.Counter
	QueueDepth         prometheus.Gauge
}

// NewMetrics registers the metric set with reg. Tests pass a fresh registry
// so repeated construction never trips duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_outcomes_total",
			Help: "Listing outcomes by kind and failure reason.",
		}, []string{"kind", "reason"}),
		NavigationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvester_navigation_duration_seconds",
			Help:    "Time spent navigating to a listing until content is ready.",
			Buckets: []float64{5, 10, 20, 30, 60, 120, 240},
		}),
		BlockedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "harvester_blocked_total",
			Help: "Suspected bot-detection blocks.",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "harvester_queue_depth",
			Help: "Unclaimed targets remaining in the work queue.",
		}),
	}
}

func (m *Metrics) IncOutcome(kind, reason string) {
	m.OutcomesTotal.WithLabelValues(kind, reason).Inc()
}
