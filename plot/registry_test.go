package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	c := nullCurve{}

	h := r.Register(c)
	assert.NotNil(t, r.Deref(h))
	assert.Equal(t, 1, r.Len())

	r.Release(h)
	assert.Nil(t, r.Deref(h))
	assert.Equal(t, 0, r.Len())

	// Unknown handles dereference to nil and release as a no-op.
	assert.Nil(t, r.Deref("nope"))
	r.Release("nope")
}

func TestRegistry_HandlesAreUnique(t *testing.T) {
	r := NewRegistry()
	h1 := r.Register(nullCurve{})
	h2 := r.Register(nullCurve{})
	assert.NotEqual(t, h1, h2)
}
