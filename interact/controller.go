package interact

import (
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/ports"
)

type Button int

const (
	Primary   Button = 0
	Middle    Button = 1
	Secondary Button = 2
)

// TargetKind says what was under the pointer.
type TargetKind string

const (
	OnCanvas TargetKind = "canvas"
	OnNode   TargetKind = "node"
	OnPort   TargetKind = "port"
)

// Target is the hit-test result delivered with a down or up event. Port
// targets take precedence over the node body they sit on.
type Target struct {
	Kind   TargetKind      `json:"kind"`
	NodeID string          `json:"node_id,omitempty"`
	PortID string          `json:"port_id,omitempty"`
	Dir    ports.Direction `json:"dir,omitempty"`
}

// Graph is the part of the graph store the controller mutates.
type Graph interface {
	Node(id string) (flowcanvas.Node, bool)
	MoveNode(id string, delta geom.Point) bool
	AddNode(t flowcanvas.NodeType, pos geom.Point) (flowcanvas.Node, error)
	AddPortConnection(from, fromPort, to, toPort string) (flowcanvas.Connection, bool)
}

// Anchors locates ports in world space.
type Anchors interface {
	Anchor(n flowcanvas.Node, portID string, dir ports.Direction) (geom.Point, bool)
}

// Hooks are called after the controller changed something renderers or
// port trackers care about. All are optional.
type Hooks struct {
	NodeMoved func(nodeID string)
	Zoomed    func()
	Connected func(c flowcanvas.Connection)
}

// Controller is the pointer state machine of one canvas. It is not safe for
// concurrent use; callers serialize events.
type Controller struct {
	graph   Graph
	view    *geom.Viewport
	anchors Anchors
	hooks   Hooks

	// CursorZoom anchors wheel zoom under the pointer instead of the
	// screen origin.
	CursorZoom bool

	state State
	menu  *geom.Point
}

// New creates an idle controller.
func New(g Graph, view *geom.Viewport, anchors Anchors, hooks Hooks) *Controller {
	return &Controller{graph: g, view: view, anchors: anchors, hooks: hooks, state: Idle{}}
}

// State returns the active gesture.
func (c *Controller) State() State { return c.state }

// Menu returns the screen point of the open context menu.
func (c *Controller) Menu() (geom.Point, bool) {
	if c.menu == nil {
		return geom.Point{}, false
	}
	return *c.menu, true
}

// Down handles a button press at a screen point.
func (c *Controller) Down(screen geom.Point, button Button, target Target) {
	if _, idle := c.state.(Idle); !idle {
		return
	}
	if button == Secondary {
		p := screen
		c.menu = &p
		return
	}
	if button != Primary {
		return
	}
	c.menu = nil

	switch target.Kind {
	case OnPort:
		if target.Dir != ports.Out {
			return
		}
		n, ok := c.graph.Node(target.NodeID)
		if !ok {
			return
		}
		anchor, ok := c.anchors.Anchor(n, target.PortID, ports.Out)
		if !ok {
			return
		}
		c.state = DrawingConnection{
			SourceNodeID: n.ID,
			SourcePort:   portRef(target.PortID, ports.Output),
			Anchor:       anchor,
			Current:      anchor,
		}
	case OnNode:
		if _, ok := c.graph.Node(target.NodeID); !ok {
			return
		}
		c.state = DraggingNode{NodeID: target.NodeID, Last: screen}
	default:
		c.state = Panning{Last: screen}
	}
}

// Move handles pointer motion.
func (c *Controller) Move(screen geom.Point) {
	switch s := c.state.(type) {
	case Panning:
		c.view.Pan(screen.Sub(s.Last))
		c.state = Panning{Last: screen}
	case DraggingNode:
		delta := screen.Sub(s.Last).Div(c.view.Zoom)
		if c.graph.MoveNode(s.NodeID, delta) && c.hooks.NodeMoved != nil {
			c.hooks.NodeMoved(s.NodeID)
		}
		c.state = DraggingNode{NodeID: s.NodeID, Last: screen}
	case DrawingConnection:
		s.Current = c.view.ToWorld(screen)
		c.state = s
	}
}

// Up ends the active gesture. Releasing a drawn connection over an input
// port of another node creates the connection; anywhere else discards it.
func (c *Controller) Up(screen geom.Point, target Target) {
	s, drawing := c.state.(DrawingConnection)
	c.state = Idle{}
	if !drawing {
		return
	}
	if target.Kind != OnPort || target.Dir != ports.In || target.NodeID == s.SourceNodeID {
		return
	}
	conn, ok := c.graph.AddPortConnection(s.SourceNodeID, s.SourcePort, target.NodeID, portRef(target.PortID, ports.Input))
	if ok && c.hooks.Connected != nil {
		c.hooks.Connected(conn)
	}
}

// Leave handles the pointer leaving the canvas: same as a release over
// nothing.
func (c *Controller) Leave() {
	c.state = Idle{}
}

// Wheel zooms the viewport. cursor is only used with CursorZoom.
func (c *Controller) Wheel(delta float64, cursor geom.Point) {
	before := c.view.Zoom
	if c.CursorZoom {
		c.view.ZoomAt(cursor, delta)
	} else {
		c.view.Wheel(delta)
	}
	if c.view.Zoom != before && c.hooks.Zoomed != nil {
		c.hooks.Zoomed()
	}
}

// SelectMenu adds a node of type t at the world position of the menu's
// screen point and closes the menu.
func (c *Controller) SelectMenu(t flowcanvas.NodeType) (flowcanvas.Node, error) {
	at, ok := c.Menu()
	if !ok {
		return flowcanvas.Node{}, ErrMenuClosed
	}
	n, err := c.graph.AddNode(t, c.view.ToWorld(at))
	if err != nil {
		return flowcanvas.Node{}, err
	}
	c.menu = nil
	return n, nil
}

// CloseMenu dismisses the context menu.
func (c *Controller) CloseMenu() { c.menu = nil }

// portRef drops the fixed port id so plain connections carry no port.
func portRef(id, fixed string) string {
	if id == fixed {
		return ""
	}
	return id
}
