// Package interact turns raw pointer events into canvas gestures: panning,
// node dragging and connection drawing. Exactly one gesture is active at a
// time; the active one is the controller's State.
package interact

import "github.com/meikuraledutech/flowcanvas/geom"

// State is one of Idle, Panning, DraggingNode or DrawingConnection.
type State interface {
	Name() string
	state()
}

type Idle struct{}

// Panning moves the viewport offset at screen speed.
type Panning struct {
	Last geom.Point `json:"last"`
}

// DraggingNode moves one node at world speed.
type DraggingNode struct {
	NodeID string     `json:"node_id"`
	Last   geom.Point `json:"last"`
}

// DrawingConnection follows the pointer from an output port. Anchor and
// Current are in world space.
type DrawingConnection struct {
	SourceNodeID string     `json:"source_node_id"`
	SourcePort   string     `json:"source_port"`
	Anchor       geom.Point `json:"anchor"`
	Current      geom.Point `json:"current"`
}

func (Idle) Name() string              { return "idle" }
func (Panning) Name() string           { return "panning" }
func (DraggingNode) Name() string      { return "dragging_node" }
func (DrawingConnection) Name() string { return "drawing_connection" }

func (Idle) state()              {}
func (Panning) state()           {}
func (DraggingNode) state()      {}
func (DrawingConnection) state() {}
