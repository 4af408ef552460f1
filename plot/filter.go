package plot

import (
	"context"
	"sort"
	"time"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/introspection"
)

// pushTimeout bounds each remote filter replace.
const pushTimeout = 5 * time.Second

// filterRegistry tracks the reference-counted set of signal identifiers the
// remote filter must carry. It is not safe for concurrent use; the handler
// mutex guards it, which also serializes remote pushes in mutation order.
type filterRegistry struct {
	api       introspection.API
	logger    *component.Logger
	managerID string
	filterID  string

	refs map[string]int

	pushes       func()
	pushFailures func()
}

func newFilterRegistry(api introspection.API, logger *component.Logger) *filterRegistry {
	return &filterRegistry{
		api:          api,
		logger:       logger,
		refs:         make(map[string]int),
		pushes:       func() {},
		pushFailures: func() {},
	}
}

// bind attaches the registry to a created remote filter.
func (fr *filterRegistry) bind(managerID, filterID string) {
	fr.managerID = managerID
	fr.filterID = filterID
}

// addSignal increments the signal's refcount, pushing the new membership on
// the 0→1 transition.
func (fr *filterRegistry) addSignal(id string) {
	fr.refs[id]++
	if fr.refs[id] == 1 {
		fr.push()
	}
}

// removeSignal decrements the signal's refcount, pushing the new membership
// on the 1→0 transition. Unknown signals are ignored.
func (fr *filterRegistry) removeSignal(id string) {
	n, ok := fr.refs[id]
	if !ok {
		return
	}
	if n > 1 {
		fr.refs[id] = n - 1
		return
	}
	delete(fr.refs, id)
	fr.push()
}

// members returns the current membership in lexical order.
func (fr *filterRegistry) members() []string {
	ids := make([]string, 0, len(fr.refs))
	for id := range fr.refs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// push replaces the remote filter with the full current membership. A failed
// push is logged and counted; local membership is kept as is, so the next
// membership change resynchronizes the remote side.
func (fr *filterRegistry) push() {
	if fr.filterID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	fr.pushes()
	if err := fr.api.UpdateFilter(ctx, fr.managerID, fr.filterID, fr.members()); err != nil {
		fr.pushFailures()
		fr.logger.Warn("filter push failed", "error", err, "filter_id", fr.filterID)
	}
}
