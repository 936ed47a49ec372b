package geom

const (
	ZoomMin     = 0.1
	ZoomMax     = 3.0
	WheelFactor = 0.001
	ZoomStep    = 0.1
)

// Limits bounds the zoom of a Viewport and sets how fast it responds to input.
type Limits struct {
	Min         float64
	Max         float64
	WheelFactor float64
	Step        float64
}

// DefaultLimits returns the stock zoom bounds.
func DefaultLimits() Limits {
	return Limits{Min: ZoomMin, Max: ZoomMax, WheelFactor: WheelFactor, Step: ZoomStep}
}

// Viewport is the pan/zoom state of a canvas. The world layer is drawn with
// translate(Offset) scale(Zoom).
type Viewport struct {
	Offset Point   `json:"offset"`
	Zoom   float64 `json:"zoom"`

	limits Limits
}

// NewViewport returns a viewport at the origin with zoom 1. Zero-valued
// limit fields fall back to the defaults.
func NewViewport(l Limits) *Viewport {
	d := DefaultLimits()
	if l.Min <= 0 {
		l.Min = d.Min
	}
	if l.Max <= 0 || l.Max < l.Min {
		l.Max = d.Max
	}
	if l.WheelFactor <= 0 {
		l.WheelFactor = d.WheelFactor
	}
	if l.Step <= 0 {
		l.Step = d.Step
	}
	return &Viewport{Zoom: Clamp(1, l.Min, l.Max), limits: l}
}

// Limits returns the zoom bounds in effect.
func (v *Viewport) Limits() Limits { return v.limits }

// ToWorld converts a screen point using the current offset and zoom.
func (v *Viewport) ToWorld(screen Point) Point {
	return ScreenToWorld(screen, v.Offset, v.Zoom)
}

// ToScreen converts a world point using the current offset and zoom.
func (v *Viewport) ToScreen(world Point) Point {
	return WorldToScreen(world, v.Offset, v.Zoom)
}

// Pan shifts the offset by a screen-space delta. Panning is not scaled by zoom.
func (v *Viewport) Pan(delta Point) {
	v.Offset = v.Offset.Add(delta)
}

// Wheel applies a wheel delta anchored at the screen origin.
// Positive deltas zoom out.
func (v *Viewport) Wheel(delta float64) {
	v.SetZoom(v.Zoom - delta*v.limits.WheelFactor)
}

// ZoomAt applies a wheel delta keeping the world point under the cursor fixed
// on screen.
func (v *Viewport) ZoomAt(cursor Point, delta float64) {
	anchor := v.ToWorld(cursor)
	v.Wheel(delta)
	v.Offset = cursor.Sub(anchor.Scale(v.Zoom))
}

// SetZoom sets the zoom, clamped to the viewport limits.
func (v *Viewport) SetZoom(z float64) {
	v.Zoom = Clamp(z, v.limits.Min, v.limits.Max)
}

func (v *Viewport) ZoomIn()  { v.SetZoom(v.Zoom + v.limits.Step) }
func (v *Viewport) ZoomOut() { v.SetZoom(v.Zoom - v.limits.Step) }

// ResetZoom returns to 100% without touching the offset.
func (v *Viewport) ResetZoom() { v.SetZoom(1) }

// Reset returns to 100% at the origin.
func (v *Viewport) Reset() {
	v.Offset = Point{}
	v.ResetZoom()
}
