package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
)

// StateFunc reports a component's current status when polled.
type StateFunc func() Status

// Monitor tracks health sources and aggregates them on demand. Sources are
// polled at read time, so the monitor always reflects current component
// state without a background refresher.
type Monitor struct {
	system string

	mu      sync.RWMutex
	sources map[string]StateFunc
}

// NewMonitor creates a monitor aggregating under the given system name.
func NewMonitor(system string) *Monitor {
	return &Monitor{
		system:  system,
		sources: make(map[string]StateFunc),
	}
}

// Register adds a polled health source. Re-registering a name replaces it.
func (m *Monitor) Register(name string, fn StateFunc) {
	m.mu.Lock()
	m.sources[name] = fn
	m.mu.Unlock()
}

// Remove deletes a health source.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	delete(m.sources, name)
	m.mu.Unlock()
}

// Check polls every source and returns the aggregate system status, with
// sub-statuses in component name order.
func (m *Monitor) Check() Status {
	m.mu.RLock()
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	fns := make([]StateFunc, 0, len(names))
	sort.Strings(names)
	for _, name := range names {
		fns = append(fns, m.sources[name])
	}
	m.mu.RUnlock()

	subs := make([]Status, 0, len(fns))
	for i, fn := range fns {
		status := fn()
		status.Component = names[i]
		subs = append(subs, status)
	}
	return Aggregate(m.system, subs)
}

// ServeHTTP serves the aggregate status as JSON: 200 when healthy or
// degraded, 503 when unhealthy.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	status := m.Check()

	w.Header().Set("Content-Type", "application/json")
	if status.IsUnhealthy() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
