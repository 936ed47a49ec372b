package interact

import (
	"errors"
	"fmt"

	"github.com/meikuraledutech/flowcanvas/geom"
)

var (
	ErrMenuClosed   = errors.New("interact: context menu is not open")
	ErrUnknownEvent = errors.New("interact: unknown event kind")
)

// EventKind names a raw pointer event.
type EventKind string

const (
	PointerDown  EventKind = "down"
	PointerMove  EventKind = "move"
	PointerUp    EventKind = "up"
	PointerLeave EventKind = "leave"
	WheelEvent   EventKind = "wheel"
	ContextMenu  EventKind = "contextmenu"
)

// Event is a raw pointer event in screen coordinates, as delivered over the
// wire.
type Event struct {
	Kind   EventKind  `json:"kind"`
	Screen geom.Point `json:"screen"`
	Button Button     `json:"button,omitempty"`
	Target Target     `json:"target"`
	Delta  float64    `json:"delta,omitempty"`
}

// Handle dispatches e to the matching controller method.
func (c *Controller) Handle(e Event) error {
	switch e.Kind {
	case PointerDown:
		c.Down(e.Screen, e.Button, e.Target)
	case PointerMove:
		c.Move(e.Screen)
	case PointerUp:
		c.Up(e.Screen, e.Target)
	case PointerLeave:
		c.Leave()
	case WheelEvent:
		c.Wheel(e.Delta, e.Screen)
	case ContextMenu:
		c.Down(e.Screen, Secondary, e.Target)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Kind)
	}
	return nil
}
