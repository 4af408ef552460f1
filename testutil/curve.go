package testutil

import "sync"

// Point is one captured curve point.
type Point struct {
	Time  float64
	Value float64
}

// CaptureCurve records every point it receives.
type CaptureCurve struct {
	mu     sync.Mutex
	points []Point
}

// AddPoint records a point.
func (c *CaptureCurve) AddPoint(time, value float64) {
	c.mu.Lock()
	c.points = append(c.points, Point{Time: time, Value: value})
	c.mu.Unlock()
}

// Points returns a copy of everything captured so far.
func (c *CaptureCurve) Points() []Point {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Len returns the number of captured points.
func (c *CaptureCurve) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.points)
}
