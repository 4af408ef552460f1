package websocket

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/plotstream/metric"
)

const metricsComponent = "websocket_output"

// serverMetrics holds the point streamer's instrumentation.
type serverMetrics struct {
	connections      prometheus.Counter
	clientsConnected prometheus.Gauge
	subscriptions    prometheus.Counter
	framesSent       prometheus.Counter
	framesDropped    prometheus.Counter
	writeFailures    prometheus.Counter
	bytesSent        prometheus.Counter
}

func newServerMetrics(registry *metric.MetricsRegistry) *serverMetrics {
	m := &serverMetrics{
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "client_connections_total",
			Help:      "Client connections accepted",
		}),
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "clients_connected",
			Help:      "Currently connected clients",
		}),
		subscriptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "subscriptions_total",
			Help:      "Variable subscriptions accepted",
		}),
		framesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "frames_sent_total",
			Help:      "Frames written to clients",
		}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because a client's queue was full",
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "write_failures_total",
			Help:      "Failed frame writes",
		}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Subsystem: "websocket",
			Name:      "bytes_sent_total",
			Help:      "Bytes written to clients",
		}),
	}

	if registry != nil {
		registry.RegisterCounter(metricsComponent, "connections", m.connections)
		registry.RegisterGauge(metricsComponent, "clients_connected", m.clientsConnected)
		registry.RegisterCounter(metricsComponent, "subscriptions", m.subscriptions)
		registry.RegisterCounter(metricsComponent, "frames_sent", m.framesSent)
		registry.RegisterCounter(metricsComponent, "frames_dropped", m.framesDropped)
		registry.RegisterCounter(metricsComponent, "write_failures", m.writeFailures)
		registry.RegisterCounter(metricsComponent, "bytes_sent", m.bytesSent)
	}
	return m
}
