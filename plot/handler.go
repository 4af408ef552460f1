package plot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/introspection"
	"github.com/c360/plotstream/metric"
	"github.com/c360/plotstream/telemetry"
)

// DefaultTimeSignal is the well-known simulation time signal every session
// keeps subscribed as the time axis.
const DefaultTimeSignal = "data://world/default?p=sim_time"

// DefaultDiscoveryTimeout bounds the wait for a manager to appear.
const DefaultDiscoveryTimeout = 2 * time.Second

// BootstrapState tracks the one-time discovery session setup.
type BootstrapState int

const (
	// BootstrapIdle means discovery has not been started.
	BootstrapIdle BootstrapState = iota
	// BootstrapDiscovering means the discovery goroutine is running.
	BootstrapDiscovering
	// BootstrapReady means a manager was found and the filter is live.
	BootstrapReady
	// BootstrapFailed is terminal: no manager, missing time signal, or a
	// failed filter create or subscribe. Curves added afterwards succeed
	// locally but never receive data.
	BootstrapFailed
)

// String returns the state name.
func (s BootstrapState) String() string {
	switch s {
	case BootstrapIdle:
		return "idle"
	case BootstrapDiscovering:
		return "discovering"
	case BootstrapReady:
		return "ready"
	case BootstrapFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options configures a CurveHandler. Zero values take defaults.
type Options struct {
	// TimeSignal is the signal supplying the time axis.
	TimeSignal string
	// DiscoveryTimeout bounds the wait for a manager.
	DiscoveryTimeout time.Duration
	// Logger receives structured logs; nil uses slog.Default().
	Logger *slog.Logger
	// NATSConn, when set, mirrors log entries onto the bus.
	NATSConn *nats.Conn
	// Metrics, when set, receives the handler's instrumentation.
	Metrics *metric.MetricsRegistry
}

// pendingCurve is an AddCurve accepted before discovery finished.
type pendingCurve struct {
	name   string
	handle Handle
}

// CurveHandler bridges introspection telemetry to plotted curves. One mutex
// guards the curve index, the filter registry, and dispatch, so membership
// changes, remote filter pushes, and point application are all serialized
// against each other.
type CurveHandler struct {
	api      introspection.API
	registry *Registry
	logger   *component.Logger
	metrics  *handlerMetrics

	timeSignal       string
	discoveryTimeout time.Duration

	mu      sync.Mutex
	boot    BootstrapState
	state   component.State
	filter  *filterRegistry
	index   *curveIndex
	disp    *dispatcher
	catalog []string
	pending []pendingCurve

	managerID string
	sub       introspection.Unsubscriber

	cancel context.CancelFunc
	done   chan struct{}
}

var _ component.LifecycleComponent = (*CurveHandler)(nil)

// NewCurveHandler creates a handler over the given introspection API.
func NewCurveHandler(api introspection.API, opts Options) *CurveHandler {
	if opts.TimeSignal == "" {
		opts.TimeSignal = DefaultTimeSignal
	}
	if opts.DiscoveryTimeout <= 0 {
		opts.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &CurveHandler{
		api:              api,
		registry:         NewRegistry(),
		logger:           component.NewLogger("curve-handler", opts.NATSConn, opts.Logger),
		metrics:          newHandlerMetrics(opts.Metrics),
		timeSignal:       opts.TimeSignal,
		discoveryTimeout: opts.DiscoveryTimeout,
		boot:             BootstrapIdle,
		state:            component.StateCreated,
		done:             make(chan struct{}),
	}
	h.filter = newFilterRegistry(api, h.logger)
	h.filter.pushes = h.metrics.filterPushes.Inc
	h.filter.pushFailures = h.metrics.filterPushFails.Inc
	h.index = newCurveIndex(h.filter, h.registry)
	h.disp = &dispatcher{
		index:      h.index,
		registry:   h.registry,
		timeSignal: opts.TimeSignal,
		logger:     h.logger,
		metrics:    h.metrics,
	}
	return h
}

// Meta implements component.LifecycleComponent.
func (h *CurveHandler) Meta() component.Metadata {
	return component.Metadata{
		Name:        "curve-handler",
		Type:        "handler",
		Description: "Multiplexes introspection telemetry onto plotted curves",
		Version:     "1.0.0",
	}
}

// Initialize implements component.LifecycleComponent.
func (h *CurveHandler) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != component.StateCreated {
		return errors.ErrAlreadyStarted
	}
	h.state = component.StateInitialized
	return nil
}

// Start launches the discovery goroutine and returns immediately. Discovery
// failures are terminal for this handler instance and are reported through
// BootstrapState, not through Start.
func (h *CurveHandler) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.state == component.StateStarted {
		h.mu.Unlock()
		return errors.ErrAlreadyStarted
	}
	if h.state != component.StateInitialized {
		h.mu.Unlock()
		return errors.ErrNotStarted
	}
	h.state = component.StateStarted
	h.boot = BootstrapDiscovering

	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.mu.Unlock()

	go h.bootstrap(runCtx)
	return nil
}

// Stop cancels discovery, removes the remote filter, and drops the snapshot
// subscription. It never waits longer than the given timeout.
func (h *CurveHandler) Stop(timeout time.Duration) error {
	h.mu.Lock()
	if h.state != component.StateStarted {
		h.mu.Unlock()
		return errors.ErrNotStarted
	}
	h.state = component.StateStopped
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	select {
	case <-h.done:
	case <-time.After(timeout):
		h.logger.Warn("discovery goroutine did not exit before timeout")
	}

	// Captured only after bootstrap has exited: a cancel that lands between
	// filter creation and the ready commit would otherwise leave a live
	// subscription and remote filter behind.
	h.mu.Lock()
	sub := h.sub
	h.sub = nil
	managerID := h.managerID
	filterID := h.filter.filterID
	h.mu.Unlock()

	h.teardownSession(sub, managerID, filterID)
	return nil
}

// teardownSession drops the snapshot subscription and removes the remote
// filter. Either may be absent when bootstrap never committed.
func (h *CurveHandler) teardownSession(sub introspection.Unsubscriber, managerID, filterID string) {
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn("failed to unsubscribe from updates", "error", err)
		}
	}
	if filterID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := h.api.RemoveFilter(ctx, managerID, filterID); err != nil {
			h.logger.Warn("failed to remove remote filter", "error", err)
		}
	}
}

// State returns the lifecycle state.
func (h *CurveHandler) State() component.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Bootstrap returns the discovery state.
func (h *CurveHandler) Bootstrap() BootstrapState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.boot
}

// bootstrap performs the one-time session setup. Every failure is terminal:
// logged once, state set to failed, no retry.
func (h *CurveHandler) bootstrap(ctx context.Context) {
	defer close(h.done)

	managers, err := h.api.WaitForManagers(ctx, h.discoveryTimeout)
	if err != nil {
		h.failBootstrap("manager discovery failed", err)
		return
	}
	if len(managers) == 0 {
		h.failBootstrap("no introspection managers found", errors.ErrNoManagers)
		return
	}
	managerID := managers[0]

	registered, err := h.api.IsRegistered(ctx, managerID, h.timeSignal)
	if err != nil || !registered {
		if err == nil {
			err = errors.ErrSignalNotRegistered
		}
		h.failBootstrap("time signal not registered on manager", err)
		return
	}

	filterID, notify, err := h.api.NewFilter(ctx, managerID, []string{h.timeSignal})
	if err != nil {
		h.failBootstrap("filter creation failed", err)
		return
	}

	sub, err := h.api.SubscribeUpdates(notify, h.handleSnapshot)
	if err != nil {
		h.failBootstrap("subscription to filter updates failed", err)
		return
	}

	catalog, err := h.api.Items(ctx, managerID)
	if err != nil {
		h.logger.Warn("catalog fetch failed, resolving against time signal only", "error", err)
		catalog = []string{h.timeSignal}
	}

	h.mu.Lock()
	if ctx.Err() != nil || h.state != component.StateStarted {
		h.boot = BootstrapFailed
		h.mu.Unlock()
		h.teardownSession(sub, managerID, filterID)
		return
	}
	h.managerID = managerID
	h.sub = sub
	h.catalog = catalog
	h.filter.bind(managerID, filterID)
	h.filter.refs[h.timeSignal] = 1
	h.boot = BootstrapReady
	pending := h.pending
	h.pending = nil
	for _, p := range pending {
		h.wireCurve(p.name, p.handle)
	}
	h.updateSignalGauge()
	h.mu.Unlock()

	h.logger.Info("curve handler ready",
		"manager_id", managerID, "filter_id", filterID, "catalog_items", len(catalog))
}

// failBootstrap records a terminal discovery failure.
func (h *CurveHandler) failBootstrap(msg string, err error) {
	h.mu.Lock()
	h.boot = BootstrapFailed
	h.mu.Unlock()
	h.logger.Error(msg, err)
}

// AddCurve subscribes a curve to a variable name and returns its handle.
// AddCurve always succeeds locally; if discovery failed, or the name resolves
// to nothing in the catalog, the curve simply never receives data. Subscribing
// the same curve to the same name twice returns the existing handle; the
// curve occupies one slot and receives each point once.
func (h *CurveHandler) AddCurve(name string, c Curve) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.findSubscribed(name, c); ok {
		return existing
	}
	handle := h.registry.Register(c)

	switch h.boot {
	case BootstrapIdle, BootstrapDiscovering:
		h.pending = append(h.pending, pendingCurve{name: name, handle: handle})
	default:
		h.wireCurve(name, handle)
		h.updateSignalGauge()
	}
	return handle
}

// findSubscribed returns the handle under which c is already subscribed to
// name, checking wired entries and the pending queue. Caller holds h.mu.
func (h *CurveHandler) findSubscribed(name string, c Curve) (Handle, bool) {
	if entry, ok := h.index.entries[name]; ok {
		for handle := range entry.curves {
			if h.registry.Deref(handle) == c {
				return handle, true
			}
		}
	}
	for _, p := range h.pending {
		if p.name == name && h.registry.Deref(p.handle) == c {
			return p.handle, true
		}
	}
	return "", false
}

// wireCurve inserts a curve into the index, resolving new names against the
// cached catalog. Caller holds h.mu.
func (h *CurveHandler) wireCurve(name string, handle Handle) {
	if err := h.index.addCurve(name, handle, h.catalog); err != nil {
		h.logger.Warn("variable resolves to no catalog item", "variable", name, "error", err)
		// Keep a local entry so the subscription shape survives; it will
		// never match a published signal.
		if _, ok := h.index.entries[name]; !ok {
			h.index.entries[name] = &variableEntry{curves: map[Handle]struct{}{handle: {}}}
		}
	}
}

// RemoveCurve drops the handle from every variable it feeds and releases the
// curve.
func (h *CurveHandler) RemoveCurve(handle Handle) {
	h.mu.Lock()
	h.index.removeCurve(handle)
	for i, p := range h.pending {
		if p.handle == handle {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			break
		}
	}
	h.updateSignalGauge()
	h.mu.Unlock()

	h.registry.Release(handle)
}

// Compact drops variable entries whose curves have all been released and
// returns how many were dropped.
func (h *CurveHandler) Compact() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	dropped := h.index.compact()
	h.updateSignalGauge()
	return dropped
}

// handleSnapshot dispatches one telemetry batch under the handler mutex.
func (h *CurveHandler) handleSnapshot(snapshot *telemetry.Snapshot) {
	start := time.Now()
	h.mu.Lock()
	h.disp.onSnapshot(snapshot)
	h.mu.Unlock()
	h.metrics.dispatchDuration.Observe(time.Since(start).Seconds())
}

// updateSignalGauge reflects filter membership size. Caller holds h.mu.
func (h *CurveHandler) updateSignalGauge() {
	h.metrics.activeSignals.Set(float64(len(h.filter.refs)))
}
