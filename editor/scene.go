package editor

import (
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/interact"
)

// Segment is a connection resolved to world-space endpoints.
type Segment struct {
	ID   string     `json:"id,omitempty"`
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

// Scene is everything a renderer needs for one frame.
type Scene struct {
	Version     uint64            `json:"version"`
	Layout      uint64            `json:"layout"`
	Offset      geom.Point        `json:"offset"`
	Zoom        float64           `json:"zoom"`
	State       string            `json:"state"`
	Nodes       []flowcanvas.Node `json:"nodes"`
	Connections []Segment         `json:"connections"`
	Drawing     *Segment          `json:"drawing,omitempty"`
	Menu        *geom.Point       `json:"menu,omitempty"`
	Generating  bool              `json:"generating"`
}

// Scene renders the current canvas. Connections whose endpoints cannot be
// located yet are left out.
func (s *Session) Scene() Scene {
	g := s.store.Snapshot()

	sc := Scene{
		Version:     g.Version,
		Layout:      s.layout.Load(),
		Nodes:       g.Nodes,
		Connections: []Segment{},
		Generating:  s.Generating(),
	}
	if sc.Nodes == nil {
		sc.Nodes = []flowcanvas.Node{}
	}
	for _, c := range g.Connections {
		from, ok := g.Node(c.From)
		if !ok {
			continue
		}
		to, ok := g.Node(c.To)
		if !ok {
			continue
		}
		start, end, ok := s.locator.Endpoints(from, to, c)
		if !ok {
			continue
		}
		sc.Connections = append(sc.Connections, Segment{ID: c.ID, From: start, To: end})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sc.Offset = s.view.Offset
	sc.Zoom = s.view.Zoom
	state := s.ctl.State()
	sc.State = state.Name()
	if d, ok := state.(interact.DrawingConnection); ok {
		sc.Drawing = &Segment{From: d.Anchor, To: d.Current}
	}
	if at, ok := s.ctl.Menu(); ok {
		sc.Menu = &at
	}
	return sc
}
