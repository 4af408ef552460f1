package plot

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is an opaque reference to a registered curve. Handles outlive the
// curves they refer to; dereferencing a released handle yields nil.
type Handle string

// Registry owns the handle-to-curve mapping. The curve index stores only
// handles, so a curve's owner can release it at any time without coordinating
// with the handler; dispatch simply skips dead handles.
type Registry struct {
	mu     sync.RWMutex
	curves map[Handle]Curve
}

// NewRegistry returns an empty curve registry.
func NewRegistry() *Registry {
	return &Registry{curves: make(map[Handle]Curve)}
}

// Register adds a curve and returns its handle.
func (r *Registry) Register(c Curve) Handle {
	h := Handle(uuid.NewString())
	r.mu.Lock()
	r.curves[h] = c
	r.mu.Unlock()
	return h
}

// Deref returns the live curve for h, or nil if the handle was released or
// never issued.
func (r *Registry) Deref(h Handle) Curve {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.curves[h]
}

// Release drops the curve behind h. Releasing an unknown handle is a no-op.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	delete(r.curves, h)
	r.mu.Unlock()
}

// Len returns the number of live curves.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.curves)
}
