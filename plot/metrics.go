package plot

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/plotstream/metric"
)

const metricsComponent = "curve_handler"

// handlerMetrics holds the curve handler's instrumentation.
type handlerMetrics struct {
	pointsApplied    prometheus.Counter
	entriesSkipped   prometheus.Counter
	extractFailures  prometheus.Counter
	filterPushes     prometheus.Counter
	filterPushFails  prometheus.Counter
	activeSignals    prometheus.Gauge
	dispatchDuration prometheus.Histogram
}

// newHandlerMetrics builds and registers the handler's metrics. A nil
// registry yields unregistered collectors, which keeps tests free of global
// state.
func newHandlerMetrics(registry *metric.MetricsRegistry) *handlerMetrics {
	m := &handlerMetrics{
		pointsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Name:      "curve_points_applied_total",
			Help:      "Points appended to curves",
		}),
		entriesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Name:      "snapshot_entries_skipped_total",
			Help:      "Snapshot entries skipped for empty name or absent value",
		}),
		extractFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Name:      "scalar_extraction_failures_total",
			Help:      "Entries whose query selected no scalar",
		}),
		filterPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Name:      "filter_pushes_total",
			Help:      "Full-membership filter replaces sent to the manager",
		}),
		filterPushFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plotstream",
			Name:      "filter_push_failures_total",
			Help:      "Filter replaces the manager rejected or that timed out",
		}),
		activeSignals: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plotstream",
			Name:      "active_signals",
			Help:      "Signals currently held in the remote filter",
		}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plotstream",
			Name:      "snapshot_dispatch_seconds",
			Help:      "Time spent dispatching one snapshot to curves",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	if registry != nil {
		registry.RegisterCounter(metricsComponent, "points_applied", m.pointsApplied)
		registry.RegisterCounter(metricsComponent, "entries_skipped", m.entriesSkipped)
		registry.RegisterCounter(metricsComponent, "extract_failures", m.extractFailures)
		registry.RegisterCounter(metricsComponent, "filter_pushes", m.filterPushes)
		registry.RegisterCounter(metricsComponent, "filter_push_failures", m.filterPushFails)
		registry.RegisterGauge(metricsComponent, "active_signals", m.activeSignals)
		registry.RegisterHistogram(metricsComponent, "dispatch_duration", m.dispatchDuration)
	}
	return m
}
