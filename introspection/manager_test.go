package introspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plotstream/component"
	"github.com/c360/plotstream/errors"
	"github.com/c360/plotstream/telemetry"
)

func newTestManager(items ...string) *Manager {
	m := &Manager{
		id:      "sim1",
		items:   make(map[string]struct{}),
		filters: make(map[string]*filterState),
		state:   component.StateCreated,
	}
	for _, id := range items {
		m.items[id] = struct{}{}
	}
	return m
}

func TestManager_ValidateMembers(t *testing.T) {
	m := newTestManager(
		"data://world/default?p=sim_time",
		"data://pose/model/box?p=pose3d",
	)

	err := m.validateMembers([]string{"data://world/default?p=sim_time"})
	require.NoError(t, err)

	err = m.validateMembers([]string{"data://world/default?p=real_time"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSignalNotRegistered)
	assert.Contains(t, err.Error(), "real_time")
}

func TestManager_ValidateMembers_Empty(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.validateMembers(nil))
}

func TestReduceSnapshot(t *testing.T) {
	snapshot := &telemetry.Snapshot{Params: []telemetry.Param{
		{Name: "data://world/default?p=sim_time", Value: telemetry.NewDouble(5.0)},
		{Name: "data://pose/model/box?p=pose3d", Value: telemetry.NewDouble(1.0)},
		{Name: "data://world/default?p=real_time", Value: telemetry.NewDouble(6.0)},
	}}

	members := map[string]struct{}{
		"data://world/default?p=sim_time":  {},
		"data://world/default?p=real_time": {},
	}

	filtered := reduceSnapshot(snapshot, members)
	require.Len(t, filtered.Params, 2)
	assert.Equal(t, "data://world/default?p=sim_time", filtered.Params[0].Name)
	assert.Equal(t, "data://world/default?p=real_time", filtered.Params[1].Name)
}

func TestReduceSnapshot_NoOverlap(t *testing.T) {
	snapshot := &telemetry.Snapshot{Params: []telemetry.Param{
		{Name: "data://world/default?p=sim_time", Value: telemetry.NewDouble(5.0)},
	}}
	filtered := reduceSnapshot(snapshot, map[string]struct{}{"other": {}})
	assert.Empty(t, filtered.Params)
}

func TestNotifySubject(t *testing.T) {
	assert.Equal(t, "introspection.sim1.update.f42", notifySubject("sim1", "f42"))
	assert.Equal(t, "introspection.sim1.filter.new", newFilterSubject("sim1"))
	assert.Equal(t, "introspection.sim1.filter.update", updateFilterSubject("sim1"))
	assert.Equal(t, "introspection.sim1.filter.remove", removeFilterSubject("sim1"))
}

func TestManager_LifecycleGuards(t *testing.T) {
	m := newTestManager()

	// Not initialized yet, Start must refuse.
	err := m.Start(context.Background())
	assert.ErrorIs(t, err, errors.ErrNotStarted)

	// Never started, Stop must refuse.
	err = m.Stop(0)
	assert.ErrorIs(t, err, errors.ErrNotStarted)
}
