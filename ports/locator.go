package ports

import (
	"fmt"

	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/geom"
)

// Fixed port ids shared by every node shape.
const (
	Input  = "input"
	Output = "output"
)

// Direction says which side of a connection a port sits on.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "in", "input":
		*d = In
	case "out", "output":
		*d = Out
	default:
		return fmt.Errorf("ports: unknown direction %q", b)
	}
	return nil
}

// Locator resolves a port to its world-space anchor. Registered positions
// win; the fixed input/output ports fall back to edge midpoints of the
// node's measured (or default) box.
type Locator struct {
	Registry *Registry
	Dims     *Dimensions
	Fallback Size
}

// NewLocator builds a Locator over reg and dims with DefaultSize as fallback.
func NewLocator(reg *Registry, dims *Dimensions) *Locator {
	return &Locator{Registry: reg, Dims: dims, Fallback: DefaultSize}
}

// Size returns the box used for n: measured if known, otherwise the node's
// own width with the fallback height.
func (l *Locator) Size(n flowcanvas.Node) Size {
	if l.Dims != nil {
		if s, ok := l.Dims.Get(n.ID); ok {
			return s
		}
	}
	s := l.Fallback
	if n.Width > 0 {
		s.Width = n.Width
	}
	return s
}

// Anchor returns the world position of a port. An empty portID means the
// node's fixed port for dir. ok is false when the node has no such port or
// its position is not known yet.
func (l *Locator) Anchor(n flowcanvas.Node, portID string, dir Direction) (geom.Point, bool) {
	if dir == In && !n.Type.HasInput() || dir == Out && !n.Type.HasOutput() {
		return geom.Point{}, false
	}
	if portID == "" {
		portID = Output
		if dir == In {
			portID = Input
		}
	}
	if l.Registry != nil {
		if p, ok := l.Registry.Position(n.ID, portID); ok {
			return p, true
		}
	}

	size := l.Size(n)
	switch portID {
	case Input:
		return geom.Pt(n.Position.X, n.Position.Y+size.Height/2), true
	case Output:
		return geom.Pt(n.Position.X+size.Width, n.Position.Y+size.Height/2), true
	}
	return geom.Point{}, false
}

// Endpoints resolves both ends of a connection.
func (l *Locator) Endpoints(from, to flowcanvas.Node, c flowcanvas.Connection) (start, end geom.Point, ok bool) {
	start, ok = l.Anchor(from, c.FromPort, Out)
	if !ok {
		return start, end, false
	}
	end, ok = l.Anchor(to, c.ToPort, In)
	return start, end, ok
}
