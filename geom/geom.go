// Package geom converts between screen pixels and world (graph) coordinates.
package geom

import "math"

// Point is a 2D coordinate. Whether it is in screen or world space depends on
// where it came from.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

// Div divides both components by k. k must be non-zero.
func (p Point) Div(k float64) Point { return Point{X: p.X / k, Y: p.Y / k} }

// Near reports whether p and q differ by at most eps on each axis.
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// ScreenToWorld maps a screen point into world space: (screen - offset) / zoom.
func ScreenToWorld(screen, offset Point, zoom float64) Point {
	return screen.Sub(offset).Div(zoom)
}

// WorldToScreen is the inverse of ScreenToWorld: world * zoom + offset.
func WorldToScreen(world, offset Point, zoom float64) Point {
	return world.Scale(zoom).Add(offset)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
