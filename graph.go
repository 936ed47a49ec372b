package flowcanvas

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/meikuraledutech/flowcanvas/geom"
)

// Graph is an immutable snapshot of a Store. Node data values are never
// mutated after they are stored, so a snapshot can be read freely while the
// store keeps changing.
type Graph struct {
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	Version     uint64       `json:"version"`
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Inbound returns the connections whose target is id, in creation order.
func (g Graph) Inbound(id string) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.To == id {
			out = append(out, c)
		}
	}
	return out
}

// Outbound returns the connections whose source is id, in creation order.
func (g Graph) Outbound(id string) []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.From == id {
			out = append(out, c)
		}
	}
	return out
}

// OfType returns the nodes of type t in creation order.
func (g Graph) OfType(t NodeType) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks that every connection references existing nodes.
func (g Graph) Validate() error {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	for _, c := range g.Connections {
		if !ids[c.From] || !ids[c.To] {
			return fmt.Errorf("%w: %s (%s -> %s)", ErrDangling, c.ID, c.From, c.To)
		}
	}
	return nil
}

// Store owns the canonical node and connection lists of one canvas. Every
// method is atomic; no caller can observe a node deletion without its
// connections being gone as well.
type Store struct {
	mu      sync.RWMutex
	nodes   []Node
	conns   []Connection
	version uint64
	model   string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDefaultModel sets the model new generator nodes start with.
func WithDefaultModel(model string) StoreOption {
	return func(s *Store) { s.model = model }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the current graph.
func (s *Store) Snapshot() Graph {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Graph{
		Nodes:       slices.Clone(s.nodes),
		Connections: slices.Clone(s.conns),
		Version:     s.version,
	}
}

// Version increases on every successful mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.nodes[i], true
	}
	return Node{}, false
}

// AddNode creates a node of type t with its top-left corner at pos (world
// space). The id is the type followed by a fresh token.
func (s *Store) AddNode(t NodeType, pos geom.Point) (Node, error) {
	if !t.Valid() {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNodeLocked(t, pos), nil
}

func (s *Store) addNodeLocked(t NodeType, pos geom.Point) Node {
	n := Node{
		ID:       string(t) + "-" + uuid.NewString(),
		Type:     t,
		Position: pos,
		Data:     NewData(t, s.model),
		Width:    t.DefaultWidth(),
	}
	s.nodes = append(s.nodes, n)
	s.version++
	return n
}

// UpdateNodeData shallow-merges patch into the node's data. It reports
// false, with no error, when the node does not exist.
func (s *Store) UpdateNodeData(id string, patch Patch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	next, err := patch.Apply(s.nodes[i].Data)
	if err != nil {
		return false, err
	}
	s.nodes[i].Data = next
	s.version++
	return true, nil
}

// MoveNode shifts a node by a world-space delta.
func (s *Store) MoveNode(id string, delta geom.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.nodes[i].Position = s.nodes[i].Position.Add(delta)
	s.version++
	return true
}

// DeleteNode removes a node and every connection that touches it.
func (s *Store) DeleteNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.nodes = slices.Delete(s.nodes, i, i+1)
	s.conns = slices.DeleteFunc(s.conns, func(c Connection) bool {
		return c.From == id || c.To == id
	})
	s.version++
	return true
}

// AddConnection links from's output to to's input. Self-loops, duplicate
// (from, to) pairs and missing endpoints are rejected as no-ops.
func (s *Store) AddConnection(from, to string) (Connection, bool) {
	return s.AddPortConnection(from, "", to, "")
}

// AddPortConnection is AddConnection with explicit port ids. Duplicates are
// still detected by node pair alone.
func (s *Store) AddPortConnection(from, fromPort, to, toPort string) (Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectLocked(from, fromPort, to, toPort)
}

func (s *Store) connectLocked(from, fromPort, to, toPort string) (Connection, bool) {
	if from == to || s.indexOf(from) < 0 || s.indexOf(to) < 0 {
		return Connection{}, false
	}
	for _, c := range s.conns {
		if c.From == from && c.To == to {
			return Connection{}, false
		}
	}
	c := Connection{
		ID:       "conn-" + uuid.NewString(),
		From:     from,
		To:       to,
		FromPort: fromPort,
		ToPort:   toPort,
	}
	s.conns = append(s.conns, c)
	s.version++
	return c, true
}

// DeleteConnection removes a connection by id.
func (s *Store) DeleteConnection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.conns, func(c Connection) bool { return c.ID == id })
	if i < 0 {
		return false
	}
	s.conns = slices.Delete(s.conns, i, i+1)
	s.version++
	return true
}

// AddDownstream creates a node of type t at pos, connects from to it and
// applies patch to its data, all in one step. Nothing is created when from
// no longer exists.
func (s *Store) AddDownstream(from string, t NodeType, pos geom.Point, patch Patch) (Node, Connection, error) {
	if !t.Valid() {
		return Node{}, Connection{}, fmt.Errorf("%w: %q", ErrUnknownNodeType, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(from) < 0 {
		return Node{}, Connection{}, fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}

	data, err := patch.Apply(NewData(t, s.model))
	if err != nil {
		return Node{}, Connection{}, err
	}
	n := s.addNodeLocked(t, pos)
	s.nodes[len(s.nodes)-1].Data = data
	n.Data = data

	c, _ := s.connectLocked(from, "", n.ID, "")
	return n, c, nil
}

// AddImageInput appends a dynamic image input port to a generator node.
func (s *Store) AddImageInput(id string) (PortSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return PortSpec{}, false
	}
	gen, ok := s.nodes[i].Data.(*GeneratorData)
	if !ok {
		return PortSpec{}, false
	}
	n := len(gen.Inputs) + 1
	port := PortSpec{
		ID:    fmt.Sprintf("image-%d-%s", n, uuid.NewString()[:8]),
		Label: fmt.Sprintf("Image %d", n),
	}
	next := *gen
	next.Inputs = append(slices.Clone(gen.Inputs), port)
	s.nodes[i].Data = &next
	s.version++
	return port, true
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.nodes, func(n Node) bool { return n.ID == id })
}
