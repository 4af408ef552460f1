package plot

import "github.com/c360/plotstream/pkg/buffer"

// Point is one plotted sample.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// MemoryCurve retains a bounded window of the most recent points. When the
// window is full the oldest point is dropped, so long-running sessions hold
// a fixed amount of memory per curve.
type MemoryCurve struct {
	ring *buffer.Ring[Point]
}

// NewMemoryCurve creates a curve retaining up to capacity points.
func NewMemoryCurve(capacity int) *MemoryCurve {
	return &MemoryCurve{ring: buffer.NewRing[Point](capacity)}
}

var _ Curve = (*MemoryCurve)(nil)

// AddPoint implements Curve.
func (c *MemoryCurve) AddPoint(time, value float64) {
	c.ring.Write(Point{Time: time, Value: value})
}

// Points returns the retained points oldest-first.
func (c *MemoryCurve) Points() []Point {
	return c.ring.Snapshot()
}

// Len returns how many points are retained.
func (c *MemoryCurve) Len() int {
	return c.ring.Size()
}

// Dropped returns how many points the window has discarded.
func (c *MemoryCurve) Dropped() uint64 {
	return c.ring.Dropped()
}
