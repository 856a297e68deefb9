package journal

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the recorder's prometheus collectors.
type Metrics struct {
	recordsTotal *prometheus.CounterVec
	emitDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the recorder metrics on the given registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ammcore",
				Subsystem: "journal",
				Name:      "records_total",
				Help:      "Number of operation records emitted, by operation kind.",
			},
			[]string{"kind"},
		),
		emitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ammcore",
				Subsystem: "journal",
				Name:      "emit_duration_seconds",
				Help:      "Time spent counting, logging, and forwarding a record.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(m.recordsTotal, m.emitDuration)
	return m
}
