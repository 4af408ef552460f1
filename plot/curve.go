// Package plot implements the curve handler: it bridges introspection
// telemetry to plotted time-series curves. Consumers register curves against
// variable names; the handler keeps one shared, reference-counted remote
// filter in sync with demand and appends a timestamped point to each
// subscribed curve on every snapshot.
package plot

// Curve receives plotted points. Implementations are called with the handler
// lock held and must not call back into the handler.
type Curve interface {
	// AddPoint appends one point. The time axis is simulation time in
	// floating seconds.
	AddPoint(time, value float64)
}
