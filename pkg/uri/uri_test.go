package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		scheme  string
		path    string
		query   string
	}{
		{
			name:   "sim time",
			input:  "data://world/default?p=sim_time",
			scheme: "data",
			path:   "world/default",
			query:  "p=sim_time",
		},
		{
			name:   "pose sub-field",
			input:  "data://world/default/model/box?p=pose/world_pose/vector3/position/double/x",
			scheme: "data",
			path:   "world/default/model/box",
			query:  "p=pose/world_pose/vector3/position/double/x",
		},
		{
			name:   "no query",
			input:  "data://world/default",
			scheme: "data",
			path:   "world/default",
			query:  "",
		},
		{
			name:   "trailing slash trimmed",
			input:  "data://world/default/?p=sim_time",
			scheme: "data",
			path:   "world/default",
			query:  "p=sim_time",
		},
		{name: "missing scheme", input: "world/default?p=sim_time", wantErr: true},
		{name: "empty scheme", input: "://world?p=x", wantErr: true},
		{name: "missing path", input: "data://?p=sim_time", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			u, err := Parse(test.input)
			if test.wantErr {
				require.Error(t, err)
				assert.False(t, u.Valid())
				return
			}
			require.NoError(t, err)
			assert.True(t, u.Valid())
			assert.Equal(t, test.scheme, u.Scheme())
			assert.Equal(t, test.path, u.Path())
			assert.Equal(t, test.query, u.Query())
		})
	}
}

func TestString_Canonical(t *testing.T) {
	u := MustParse("data://world/default/?p=sim_time")
	assert.Equal(t, "data://world/default?p=sim_time", u.String())

	noQuery := MustParse("data://world/default")
	assert.Equal(t, "data://world/default", noQuery.String())

	var zero URI
	assert.Equal(t, "", zero.String())
}

func TestSamePath(t *testing.T) {
	a := MustParse("data://world/default?p=sim_time")
	b := MustParse("data://world/default?p=world_pose")
	c := MustParse("data://world/other?p=sim_time")
	d := MustParse("file://world/default?p=sim_time")

	assert.True(t, a.SamePath(b))
	assert.False(t, a.SamePath(c))
	assert.False(t, a.SamePath(d), "scheme must match too")
}

func TestQueryIsPrefixOf(t *testing.T) {
	registered := MustParse("data://world/default/model/box?p=world_pose")
	requested := MustParse("data://world/default/model/box?p=world_pose/position/x")
	unrelated := MustParse("data://world/default/model/box?p=lin_vel")

	assert.True(t, registered.QueryIsPrefixOf(requested))
	assert.True(t, registered.QueryIsPrefixOf(registered), "a query prefixes itself")
	assert.False(t, requested.QueryIsPrefixOf(registered))
	assert.False(t, registered.QueryIsPrefixOf(unrelated))

	empty := MustParse("data://world/default/model/box")
	assert.True(t, empty.QueryIsPrefixOf(requested), "empty query prefixes everything")
}
