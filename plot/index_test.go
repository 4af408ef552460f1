package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/plotstream/testutil"
)

type nullCurve struct{}

func (nullCurve) AddPoint(_, _ float64) {}

func newTestIndex(t *testing.T, catalog ...string) (*curveIndex, *filterRegistry, *Registry, *testutil.FakeIntrospection) {
	t.Helper()
	fake := testutil.NewFakeIntrospection("sim1", catalog...)
	fr := newBoundFilter(t, fake)
	registry := NewRegistry()
	return newCurveIndex(fr, registry), fr, registry, fake
}

func TestResolveVariable(t *testing.T) {
	catalog := []string{simTime, boxPose, ballPose}

	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		// Exact identifier.
		{simTime, simTime, false},
		// Finer sub-field request resolves to the registered compound.
		{boxPose + "/position/x", boxPose, false},
		{boxPose + "/orientation/yaw", boxPose, false},
		// Same query, different path: no match.
		{"data://pose/model/cone?p=pose3d/position/x", "", true},
		// Path matches but catalog query is not a prefix of the request.
		{"data://world/default?p=real_time", "", true},
		{"not a uri", "", true},
	}

	for _, tt := range tests {
		got, err := resolveVariable(tt.name, catalog)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestResolveVariable_FirstInSortedOrder(t *testing.T) {
	// Both items share the path and prefix the request; the lexically first
	// wins regardless of input order.
	coarse := "data://pose/model/box?p=pose"
	fine := "data://pose/model/box?p=pose3d"
	name := "data://pose/model/box?p=pose3d/position/x"

	got, err := resolveVariable(name, []string{fine, coarse})
	require.NoError(t, err)
	assert.Equal(t, coarse, got)
}

func TestCurveIndex_AddIsIdempotentPerHandle(t *testing.T) {
	ci, fr, registry, fake := newTestIndex(t, simTime, boxPose)

	h := registry.Register(nullCurve{})
	name := boxPose + "/position/x"
	require.NoError(t, ci.addCurve(name, h, []string{simTime, boxPose}))

	pushes := len(fake.Pushed)
	require.NoError(t, ci.addCurve(name, h, []string{simTime, boxPose}))

	assert.Len(t, fake.Pushed, pushes)
	assert.Len(t, ci.entries[name].curves, 1)
	assert.Equal(t, 1, fr.refs[boxPose])
}

func TestCurveIndex_AddRemoveRoundTrip(t *testing.T) {
	ci, fr, registry, fake := newTestIndex(t, simTime, boxPose)
	catalog := []string{simTime, boxPose}

	before := fr.members()

	h := registry.Register(nullCurve{})
	require.NoError(t, ci.addCurve(boxPose+"/position/z", h, catalog))
	ci.removeCurve(h)

	assert.Equal(t, before, fr.members())
	assert.Empty(t, ci.entries)
	assert.Equal(t, before, fake.LastPush())
}

func TestCurveIndex_SharedEntryReleasesOnLastRemove(t *testing.T) {
	ci, fr, registry, _ := newTestIndex(t, simTime, boxPose)
	catalog := []string{simTime, boxPose}
	name := boxPose + "/position/x"

	h1 := registry.Register(nullCurve{})
	h2 := registry.Register(nullCurve{})
	require.NoError(t, ci.addCurve(name, h1, catalog))
	require.NoError(t, ci.addCurve(name, h2, catalog))
	assert.Equal(t, 1, fr.refs[boxPose])

	ci.removeCurve(h1)
	assert.Equal(t, 1, fr.refs[boxPose])

	ci.removeCurve(h2)
	_, held := fr.refs[boxPose]
	assert.False(t, held)
}

func TestCurveIndex_Compact(t *testing.T) {
	ci, fr, registry, _ := newTestIndex(t, simTime, boxPose, ballPose)
	catalog := []string{simTime, boxPose, ballPose}

	live := registry.Register(nullCurve{})
	dead := registry.Register(nullCurve{})
	require.NoError(t, ci.addCurve(boxPose+"/position/x", live, catalog))
	require.NoError(t, ci.addCurve(ballPose+"/position/x", dead, catalog))

	registry.Release(dead)
	dropped := ci.compact()

	assert.Equal(t, 1, dropped)
	assert.Contains(t, ci.entries, boxPose+"/position/x")
	assert.NotContains(t, ci.entries, ballPose+"/position/x")
	_, held := fr.refs[ballPose]
	assert.False(t, held)
	assert.Equal(t, 1, fr.refs[boxPose])
}
