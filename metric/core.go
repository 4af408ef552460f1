package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains platform-level metrics shared by all components.
// Domain metrics (curve points, filter pushes) live with their component.
type Metrics struct {
	NATSConnected     prometheus.Gauge
	NATSReconnects    prometheus.Counter
	SnapshotsReceived *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "plotstream",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "plotstream",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),

		SnapshotsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "plotstream",
				Subsystem: "bus",
				Name:      "snapshots_received_total",
				Help:      "Total telemetry snapshots received",
			},
			[]string{"component"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "plotstream",
				Subsystem: "bus",
				Name:      "errors_total",
				Help:      "Total errors by component and class",
			},
			[]string{"component", "class"},
		),
	}
}
