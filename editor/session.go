// Package editor binds the canvas parts into one session: graph store,
// viewport, port tracking, pointer controller and generation resolver.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/interact"
	"github.com/meikuraledutech/flowcanvas/ports"
	"github.com/meikuraledutech/flowcanvas/resolve"
)

var (
	ErrNoService     = errors.New("editor: no generation service configured")
	ErrUnknownAction = errors.New("editor: unknown view action")
)

// ViewAction is a toolbar zoom control.
type ViewAction string

const (
	ZoomIn    ViewAction = "zoom_in"
	ZoomOut   ViewAction = "zoom_out"
	ResetZoom ViewAction = "reset_zoom"
	ResetView ViewAction = "reset"
)

// Options configures new sessions.
type Options struct {
	Limits       geom.Limits
	Fallback     ports.Size
	SettleDelay  time.Duration
	CursorZoom   bool
	DefaultModel string
	Service      resolve.Service
	History      flowcanvas.HistoryStore
	Logger       *slog.Logger
}

// Session is one open canvas. Pointer events and view changes are
// serialized by the session; graph mutations go through the store and may
// run alongside a generation batch.
type Session struct {
	ID string

	store    *flowcanvas.Store
	dims     *ports.Dimensions
	reg      *ports.Registry
	locator  *ports.Locator
	tracker  *ports.Tracker
	resolver *resolve.Resolver
	history  flowcanvas.HistoryStore
	logger   *slog.Logger

	// layout mirrors the port registry version so renderers can tell when
	// anchors moved without a graph change, e.g. after a settle pass.
	layout      atomic.Uint64
	unsubscribe func()

	mu   sync.Mutex
	view *geom.Viewport
	ctl  *interact.Controller
}

// NewSession creates an empty canvas.
func NewSession(id string, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("canvas", id)
	history := opts.History
	if history == nil {
		history = flowcanvas.NewMemoryHistory()
	}

	s := &Session{
		ID:      id,
		store:   flowcanvas.NewStore(flowcanvas.WithDefaultModel(opts.DefaultModel)),
		dims:    ports.NewDimensions(),
		reg:     ports.NewRegistry(),
		view:    geom.NewViewport(opts.Limits),
		history: history,
		logger:  logger,
	}
	s.locator = ports.NewLocator(s.reg, s.dims)
	if opts.Fallback.Width > 0 && opts.Fallback.Height > 0 {
		s.locator.Fallback = opts.Fallback
	}
	s.unsubscribe = s.reg.Subscribe(func(v uint64) {
		for {
			cur := s.layout.Load()
			if v <= cur || s.layout.CompareAndSwap(cur, v) {
				break
			}
		}
		logger.Debug("port layout changed", "layout", v)
	})
	s.tracker = ports.NewTracker(s.reg, s.position, opts.SettleDelay)
	s.ctl = interact.New(s.store, s.view, s.locator, interact.Hooks{
		NodeMoved: s.tracker.Invalidate,
		Zoomed:    s.tracker.InvalidateAll,
	})
	s.ctl.CursorZoom = opts.CursorZoom
	if opts.Service != nil {
		s.resolver = resolve.New(s.store, opts.Service,
			resolve.WithLogger(logger),
			resolve.WithHistory(id, history),
			resolve.WithDefaultModel(opts.DefaultModel),
		)
	}
	return s
}

func (s *Session) position(nodeID string) (geom.Point, bool) {
	n, ok := s.store.Node(nodeID)
	return n.Position, ok
}

// Store exposes the session's graph store.
func (s *Session) Store() *flowcanvas.Store { return s.store }

// Close stops background port conversions.
func (s *Session) Close() {
	s.tracker.Stop()
	s.unsubscribe()
}

// AddNode creates a node with its top-left corner under a screen point.
func (s *Session) AddNode(t flowcanvas.NodeType, screen geom.Point) (flowcanvas.Node, error) {
	s.mu.Lock()
	world := s.view.ToWorld(screen)
	s.mu.Unlock()
	return s.store.AddNode(t, world)
}

// UpdateNode merges a data patch into a node.
func (s *Session) UpdateNode(id string, patch flowcanvas.Patch) (bool, error) {
	return s.store.UpdateNodeData(id, patch)
}

// DeleteNode removes a node, its connections and its cached geometry.
func (s *Session) DeleteNode(id string) bool {
	if !s.store.DeleteNode(id) {
		return false
	}
	s.tracker.Forget(id)
	s.dims.Forget(id)
	return true
}

func (s *Session) AddConnection(from, to string) (flowcanvas.Connection, bool) {
	return s.store.AddConnection(from, to)
}

func (s *Session) DeleteConnection(id string) bool {
	return s.store.DeleteConnection(id)
}

// AddImageInput adds a dynamic image port to a generator. The new port has
// no anchor until the node reports a fresh measurement.
func (s *Session) AddImageInput(id string) (flowcanvas.PortSpec, bool) {
	p, ok := s.store.AddImageInput(id)
	if ok {
		s.tracker.Invalidate(id)
	}
	return p, ok
}

// Resize records a node's rendered box. It reports whether the cache changed.
func (s *Session) Resize(id string, width, height float64) bool {
	if _, ok := s.store.Node(id); !ok {
		return false
	}
	return s.dims.Report(id, width, height)
}

// MeasurePorts records a post-layout reading of a node's dynamic ports.
func (s *Session) MeasurePorts(id string, m ports.Measurement) bool {
	if _, ok := s.store.Node(id); !ok {
		return false
	}
	if m.Zoom <= 0 {
		s.mu.Lock()
		m.Zoom = s.view.Zoom
		s.mu.Unlock()
	}
	s.tracker.Report(id, m)
	return true
}

// Handle feeds a pointer event to the controller.
func (s *Session) Handle(e interact.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.Handle(e)
}

// SelectMenu adds a node from the open context menu.
func (s *Session) SelectMenu(t flowcanvas.NodeType) (flowcanvas.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl.SelectMenu(t)
}

// View applies a toolbar zoom control.
func (s *Session) View(a ViewAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.view.Zoom
	switch a {
	case ZoomIn:
		s.view.ZoomIn()
	case ZoomOut:
		s.view.ZoomOut()
	case ResetZoom:
		s.view.ResetZoom()
	case ResetView:
		s.view.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	if s.view.Zoom != before {
		s.tracker.InvalidateAll()
	}
	return nil
}

// Generating reports whether a generation batch is running.
func (s *Session) Generating() bool {
	return s.resolver != nil && s.resolver.Generating()
}

// Generate runs a generation batch and waits for it.
func (s *Session) Generate(ctx context.Context) ([]resolve.Outcome, error) {
	if s.resolver == nil {
		return nil, ErrNoService
	}
	return s.resolver.Run(ctx)
}

// StartGeneration runs a batch in the background, detached from ctx's
// cancellation but keeping its values, including a ctxlog logger. It
// returns resolve.ErrBusy while a batch is running.
func (s *Session) StartGeneration(ctx context.Context) (<-chan []resolve.Outcome, error) {
	if s.resolver == nil {
		return nil, ErrNoService
	}
	return s.resolver.Start(context.WithoutCancel(ctx))
}

// History lists the canvas's past results, newest first.
func (s *Session) History(ctx context.Context, limit int) ([]flowcanvas.HistoryEntry, error) {
	return s.history.ListEntries(ctx, s.ID, limit)
}
