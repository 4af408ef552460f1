package buffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_WriteRead(t *testing.T) {
	r := NewRing[int](3)

	r.Write(1)
	r.Write(2)
	assert.Equal(t, 2, r.Size())

	v, ok := r.Read()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Read()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = r.Read()
	assert.False(t, ok)
}

func TestRing_OverflowDropsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Write(i)
	}

	assert.Equal(t, 3, r.Size())
	assert.Equal(t, uint64(2), r.Dropped())
	assert.Equal(t, []int{3, 4, 5}, r.Snapshot())
}

func TestRing_SnapshotDoesNotConsume(t *testing.T) {
	r := NewRing[string](4)
	r.Write("a")
	r.Write("b")

	assert.Equal(t, []string{"a", "b"}, r.Snapshot())
	assert.Equal(t, 2, r.Size())
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[int](2)
	r.Write(1)
	r.Clear()
	assert.Equal(t, 0, r.Size())
	_, ok := r.Read()
	assert.False(t, ok)
}

func TestRing_Concurrent(t *testing.T) {
	r := NewRing[int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r.Write(i)
				r.Read()
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, r.Size(), r.Capacity())
}
