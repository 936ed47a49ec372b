// Package ports tracks where connection endpoints sit on the canvas.
//
// Fixed-shape nodes have one input anchor at the left-edge midpoint and one
// output anchor at the right-edge midpoint, derived from the node position and
// its measured size. Nodes with a dynamic port set (generators with several
// image inputs) report measured port positions, which are converted to world
// space and kept in a Registry.
package ports

import (
	"maps"
	"sync"

	"github.com/meikuraledutech/flowcanvas/geom"
)

// Key identifies one port of one node.
type Key struct {
	NodeID string
	PortID string
}

// Registry maps (node, port) to a world-space anchor point. Writing a point
// equal to the stored one is a no-op: the version does not move and no
// listener fires. Renderers re-measure after every render, so this is what
// keeps measurement from feeding back into itself.
type Registry struct {
	mu        sync.RWMutex
	points    map[Key]geom.Point
	version   uint64
	listeners map[int]func(uint64)
	nextSub   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		points:    make(map[Key]geom.Point),
		listeners: make(map[int]func(uint64)),
	}
}

// Register upserts a port position. It reports whether anything changed.
func (r *Registry) Register(nodeID, portID string, p geom.Point) bool {
	k := Key{NodeID: nodeID, PortID: portID}
	r.mu.Lock()
	if old, ok := r.points[k]; ok && old == p {
		r.mu.Unlock()
		return false
	}
	r.points[k] = p
	v := r.bumpLocked()
	r.mu.Unlock()

	r.notify(v)
	return true
}

// Position returns the registered anchor for a port.
func (r *Registry) Position(nodeID, portID string) (geom.Point, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.points[Key{NodeID: nodeID, PortID: portID}]
	return p, ok
}

// Prune drops the ports of nodeID that are not in keep.
func (r *Registry) Prune(nodeID string, keep map[string]bool) bool {
	return r.dropWhere(func(k Key) bool { return k.NodeID == nodeID && !keep[k.PortID] })
}

// Forget drops every port of nodeID.
func (r *Registry) Forget(nodeID string) bool {
	return r.dropWhere(func(k Key) bool { return k.NodeID == nodeID })
}

func (r *Registry) dropWhere(match func(Key) bool) bool {
	r.mu.Lock()
	n := len(r.points)
	maps.DeleteFunc(r.points, func(k Key, _ geom.Point) bool { return match(k) })
	if len(r.points) == n {
		r.mu.Unlock()
		return false
	}
	v := r.bumpLocked()
	r.mu.Unlock()

	r.notify(v)
	return true
}

// Version increases on every effective change.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Subscribe registers fn to be called with the new version after each
// effective change. The returned func removes the subscription.
func (r *Registry) Subscribe(fn func(version uint64)) (cancel func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *Registry) bumpLocked() uint64 {
	r.version++
	return r.version
}

func (r *Registry) notify(v uint64) {
	r.mu.RLock()
	fns := make([]func(uint64), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}
