// Package plotstream bridges a simulation's introspection bus to plotted
// time-series curves.
//
// A simulation publishes an introspection catalog of addressable signals
// (sim time, poses, velocities) and serves filtered telemetry snapshots over
// NATS. PlotStream multiplexes plotted curves onto that bus: consumers ask
// for named scalar signals, possibly sub-fields of compound values such as
// vectors, orientations, or poses; the curve handler shares one remote
// filter among all curves, keeps its membership synchronized with demand by
// reference counting, and on each snapshot extracts the right scalar for
// every curve and appends a timestamped point.
//
// # Architecture
//
//	┌──────────────────────────────┐
//	│   introspection.Manager      │  simulation side: catalog,
//	│   (catalog, filters)         │  filters, snapshot publishing
//	└──────────────────────────────┘
//	           ↕ NATS (request-reply + JetStream KV)
//	┌──────────────────────────────┐
//	│   plot.CurveHandler          │  discovery, shared refcounted
//	│   (filter, index, dispatch)  │  filter, scalar extraction
//	└──────────────────────────────┘
//	           ↓ AddPoint(time, value)
//	┌──────────────────────────────┐
//	│   curves                     │  in-memory windows, websocket
//	│   (plot.MemoryCurve, ...)    │  streams, anything plottable
//	└──────────────────────────────┘
//
// The packages divide along that line: telemetry defines the typed value
// model, introspection the bus protocol, plot the curve handler, and
// output/websocket a point streamer for clients. component, errors, metric,
// natsclient, health, config, and pkg/ carry the shared infrastructure.
package plotstream
