package plot

import (
	"fmt"
	"sort"

	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/pkg/uri"
)

// variableEntry holds the curves subscribed to one variable name and the
// catalog identifier the name resolved to.
type variableEntry struct {
	resolved string
	curves   map[Handle]struct{}
}

// curveIndex maps variable names to subscriber sets. Not safe for concurrent
// use; the handler mutex guards it together with the filter registry so
// index and filter membership always change atomically.
type curveIndex struct {
	filter   *filterRegistry
	registry *Registry
	entries  map[string]*variableEntry
}

func newCurveIndex(filter *filterRegistry, registry *Registry) *curveIndex {
	return &curveIndex{
		filter:   filter,
		registry: registry,
		entries:  make(map[string]*variableEntry),
	}
}

// addCurve subscribes a handle to a variable name. A new name is resolved
// against the catalog and its identifier is added to the filter; an existing
// name just gains a subscriber. Duplicate handles are a no-op.
func (ci *curveIndex) addCurve(name string, h Handle, catalog []string) error {
	if entry, ok := ci.entries[name]; ok {
		entry.curves[h] = struct{}{}
		return nil
	}

	resolved, err := resolveVariable(name, catalog)
	if err != nil {
		return err
	}

	ci.entries[name] = &variableEntry{
		resolved: resolved,
		curves:   map[Handle]struct{}{h: {}},
	}
	ci.filter.addSignal(resolved)
	return nil
}

// removeCurve drops a handle from every entry it appears in. Entries left
// empty release their resolved identifier and are deleted.
func (ci *curveIndex) removeCurve(h Handle) {
	for name, entry := range ci.entries {
		if _, ok := entry.curves[h]; !ok {
			continue
		}
		delete(entry.curves, h)
		if len(entry.curves) == 0 {
			ci.filter.removeSignal(entry.resolved)
			delete(ci.entries, name)
		}
	}
}

// compact removes entries whose subscribers are all dead, releasing their
// identifiers from the filter. Returns the number of entries dropped.
func (ci *curveIndex) compact() int {
	dropped := 0
	for name, entry := range ci.entries {
		live := false
		for h := range entry.curves {
			if ci.registry.Deref(h) != nil {
				live = true
				break
			}
		}
		if live {
			continue
		}
		ci.filter.removeSignal(entry.resolved)
		delete(ci.entries, name)
		dropped++
	}
	return dropped
}

// sortedNames returns the variable names in lexical order. Dispatch iterates
// in this order so target resolution is deterministic.
func (ci *curveIndex) sortedNames() []string {
	names := make([]string, 0, len(ci.entries))
	for name := range ci.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolveVariable maps a requested variable name to a catalog identifier.
// The entity path must match exactly; among same-path items the catalog
// item's query must be a literal prefix of the requested query. The first
// match in sorted catalog order wins.
func resolveVariable(name string, catalog []string) (string, error) {
	want, err := uri.Parse(name)
	if err != nil {
		return "", err
	}

	sorted := make([]string, len(catalog))
	copy(sorted, catalog)
	sort.Strings(sorted)

	for _, item := range sorted {
		candidate, err := uri.Parse(item)
		if err != nil {
			continue
		}
		if candidate.SamePath(want) && candidate.QueryIsPrefixOf(want) {
			return item, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errors.ErrSignalNotRegistered, name)
}
