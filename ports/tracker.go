package ports

import (
	"sync"
	"time"

	"github.com/meikuraledutech/flowcanvas/geom"
)

// PortRadius is added to a measured port's top-left corner to reach its
// centre.
const PortRadius = 8

// DefaultSettleDelay is how long after a node first reports its ports the
// tracker converts them a second time, absorbing first-paint layout shifts.
const DefaultSettleDelay = 50 * time.Millisecond

// Measurement is a post-layout reading of a node's ports in screen space.
type Measurement struct {
	Origin geom.Point            `json:"origin"` // node box top-left
	Ports  map[string]geom.Point `json:"ports"`  // port element top-left
	Zoom   float64               `json:"zoom"`
}

// PositionFunc returns a node's current world position.
type PositionFunc func(nodeID string) (geom.Point, bool)

// Tracker turns screen-space port measurements into registered world
// anchors and keeps them current as nodes move.
type Tracker struct {
	reg      *Registry
	position PositionFunc
	delay    time.Duration

	mu     sync.Mutex
	latest map[string]Measurement
	timers map[string]*time.Timer
}

// NewTracker creates a tracker writing into reg. delay <= 0 selects
// DefaultSettleDelay.
func NewTracker(reg *Registry, position PositionFunc, delay time.Duration) *Tracker {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Tracker{
		reg:      reg,
		position: position,
		delay:    delay,
		latest:   make(map[string]Measurement),
		timers:   make(map[string]*time.Timer),
	}
}

// Report records a new measurement for nodeID and converts it right away.
// The first report for a node schedules one more conversion after the
// settle delay.
func (t *Tracker) Report(nodeID string, m Measurement) {
	if m.Zoom <= 0 {
		m.Zoom = 1
	}
	t.mu.Lock()
	_, mounted := t.latest[nodeID]
	t.latest[nodeID] = m
	if !mounted {
		t.timers[nodeID] = time.AfterFunc(t.delay, func() { t.Invalidate(nodeID) })
	}
	t.mu.Unlock()

	t.Invalidate(nodeID)
}

// Invalidate re-converts the latest measurement of nodeID against the
// node's current position. Call it when the node moves or its port set
// changes.
func (t *Tracker) Invalidate(nodeID string) {
	t.mu.Lock()
	m, ok := t.latest[nodeID]
	t.mu.Unlock()
	if !ok {
		return
	}
	pos, ok := t.position(nodeID)
	if !ok {
		return
	}

	keep := make(map[string]bool, len(m.Ports))
	for id, p := range m.Ports {
		keep[id] = true
		t.reg.Register(nodeID, id, Convert(pos, m.Origin, p, m.Zoom))
	}
	t.reg.Prune(nodeID, keep)
}

// InvalidateAll re-converts every tracked node, e.g. after a zoom change.
func (t *Tracker) InvalidateAll() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.latest))
	for id := range t.latest {
		ids = append(ids, id)
	}
	t.mu.Unlock()

	for _, id := range ids {
		t.Invalidate(id)
	}
}

// Tracked reports whether nodeID has reported any measurement.
func (t *Tracker) Tracked(nodeID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.latest[nodeID]
	return ok
}

// Forget stops tracking nodeID and drops its registered ports.
func (t *Tracker) Forget(nodeID string) {
	t.mu.Lock()
	if tm, ok := t.timers[nodeID]; ok {
		tm.Stop()
		delete(t.timers, nodeID)
	}
	delete(t.latest, nodeID)
	t.mu.Unlock()

	t.reg.Forget(nodeID)
}

// Stop cancels pending settle conversions.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, tm := range t.timers {
		tm.Stop()
		delete(t.timers, id)
	}
}

// Convert maps a port measured at screen point port, inside a node box whose
// screen top-left is origin, to world space given the node's world position.
func Convert(nodePos, origin, port geom.Point, zoom float64) geom.Point {
	return nodePos.Add(port.Sub(origin).Div(zoom)).Add(geom.Pt(PortRadius, PortRadius))
}
