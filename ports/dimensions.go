package ports

import "sync"

// Size is a node's rendered box in world units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultSize stands in for nodes that have not reported a size yet.
var DefaultSize = Size{Width: 250, Height: 100}

// Dimensions caches the measured size of each node. Like Registry, an
// unchanged report does not move the version.
type Dimensions struct {
	mu      sync.RWMutex
	sizes   map[string]Size
	version uint64
}

// NewDimensions creates an empty cache.
func NewDimensions() *Dimensions {
	return &Dimensions{sizes: make(map[string]Size)}
}

// Report records a measured size and reports whether it differed from the
// cached one.
func (d *Dimensions) Report(nodeID string, width, height float64) bool {
	s := Size{Width: width, Height: height}
	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.sizes[nodeID]; ok && old == s {
		return false
	}
	d.sizes[nodeID] = s
	d.version++
	return true
}

// Get returns the cached size of a node.
func (d *Dimensions) Get(nodeID string) (Size, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sizes[nodeID]
	return s, ok
}

// Forget drops a node's cached size.
func (d *Dimensions) Forget(nodeID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sizes[nodeID]; ok {
		delete(d.sizes, nodeID)
		d.version++
	}
}

func (d *Dimensions) Version() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}
