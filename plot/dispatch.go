package plot

import (
	"strings"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/pkg/uri"
	"github.com/c360/plotstream/telemetry"
)

// pointUpdate is one resolved (entry, scalar) pair awaiting application.
type pointUpdate struct {
	entry *variableEntry
	value float64
}

// dispatcher turns telemetry snapshots into curve points. Not safe for
// concurrent use; the handler mutex guards it.
type dispatcher struct {
	index      *curveIndex
	registry   *Registry
	timeSignal string
	logger     *component.Logger
	metrics    *handlerMetrics
}

// onSnapshot processes one batch in two phases: resolve every entry to an
// (entry, scalar) pair first, then apply all points. A bad entry is skipped
// without aborting the batch, and curves never observe a partially-resolved
// batch.
func (d *dispatcher) onSnapshot(snapshot *telemetry.Snapshot) {
	names := d.index.sortedNames()

	var (
		updates  []pointUpdate
		axisTime float64
		haveTime bool
	)

	for i := range snapshot.Params {
		param := &snapshot.Params[i]
		if param.Name == "" || param.Value == nil || !param.Value.Has() {
			d.metrics.entriesSkipped.Inc()
			continue
		}

		// First occurrence of the time signal fixes the batch's time axis.
		if !haveTime && param.Name == d.timeSignal {
			if t, ok := param.Value.Scalar(); ok {
				axisTime = t
				haveTime = true
			}
		}

		varName, entry := d.resolveTarget(param.Name, names)
		if entry == nil {
			continue
		}

		scalar, err := d.extractFor(varName, param.Value)
		if err != nil {
			d.metrics.extractFailures.Inc()
			d.logger.Debug("extraction failed", "signal", param.Name, "error", err)
			continue
		}
		updates = append(updates, pointUpdate{entry: entry, value: scalar})
	}

	if !haveTime {
		if len(updates) > 0 {
			d.logger.Debug("snapshot carries no time signal, dropping batch",
				"resolved", len(updates))
		}
		return
	}

	for _, u := range updates {
		for h := range u.entry.curves {
			c := d.registry.Deref(h)
			if c == nil {
				continue
			}
			c.AddPoint(axisTime, u.value)
			d.metrics.pointsApplied.Inc()
		}
	}
}

// resolveTarget finds the variable entry a telemetry name feeds: an exact
// name match wins, otherwise the first entry in sorted order whose name has
// the telemetry name as prefix.
func (d *dispatcher) resolveTarget(paramName string, sortedNames []string) (string, *variableEntry) {
	if entry, ok := d.index.entries[paramName]; ok {
		return paramName, entry
	}
	for _, name := range sortedNames {
		if strings.HasPrefix(name, paramName) {
			return name, d.index.entries[name]
		}
	}
	return "", nil
}

// extractFor pulls the scalar the variable's query addresses out of a
// telemetry value. The query comes from the variable name, not the published
// entry, so a sub-field request resolves against its registered compound
// value.
func (d *dispatcher) extractFor(varName string, v *telemetry.Value) (float64, error) {
	u, err := uri.Parse(varName)
	if err != nil {
		return 0, err
	}
	return extractScalar(u.Query(), v)
}
