package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/internal/ctxlog"
)

var (
	ErrBusy    = errors.New("resolve: generation already running")
	ErrNoImage = errors.New("resolve: no image generated")
)

// Request is one call to the generation service.
type Request struct {
	Fields    map[string]string
	Reference *flowcanvas.Image
	Assets    []flowcanvas.Image
	Style     *flowcanvas.StyleAnalysis
	Model     string
}

// Service is the external image-generation boundary. AnalyzeStyle failures
// are tolerated; GenerateDesign failures fail the generator's run.
type Service interface {
	AnalyzeStyle(ctx context.Context, img flowcanvas.Image) (*flowcanvas.StyleAnalysis, error)
	GenerateDesign(ctx context.Context, req Request) (*flowcanvas.Result, error)
}

// Outcome reports what happened to one generator during a batch.
type Outcome struct {
	GeneratorID string
	Targets     []string
	// Created is the preview node added because the generator had no
	// outbound connections.
	Created string
	Err     error
}

// Resolver runs generation batches against one canvas store.
type Resolver struct {
	store         *flowcanvas.Store
	svc           Service
	logger        *slog.Logger
	history       flowcanvas.HistoryStore
	canvasID      string
	defaultModel  string
	previewOffset geom.Point

	generating atomic.Bool
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithHistory records every successful run of canvasID in h.
func WithHistory(canvasID string, h flowcanvas.HistoryStore) Option {
	return func(r *Resolver) {
		r.canvasID = canvasID
		r.history = h
	}
}

// WithDefaultModel is used for generators whose model field is empty.
func WithDefaultModel(model string) Option {
	return func(r *Resolver) { r.defaultModel = model }
}

// New creates a resolver over store calling svc.
func New(store *flowcanvas.Store, svc Service, opts ...Option) *Resolver {
	r := &Resolver{
		store:         store,
		svc:           svc,
		logger:        slog.Default(),
		previewOffset: geom.Pt(400, 0),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Generating reports whether a batch is in flight.
func (r *Resolver) Generating() bool { return r.generating.Load() }

// Run processes every generator node in the graph, one after another. A
// failing generator records its error on its targets and does not stop the
// batch. Run returns ErrBusy if another batch is in flight.
func (r *Resolver) Run(ctx context.Context) ([]Outcome, error) {
	if !r.generating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.generating.Store(false)
	return r.run(ctx), nil
}

// Start is Run in the background. The busy flag is taken before Start
// returns; the channel receives the outcomes when the batch ends.
func (r *Resolver) Start(ctx context.Context) (<-chan []Outcome, error) {
	if !r.generating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	done := make(chan []Outcome, 1)
	go func() {
		defer r.generating.Store(false)
		done <- r.run(ctx)
	}()
	return done, nil
}

func (r *Resolver) run(ctx context.Context) []Outcome {
	log := ctxlog.FromContext(ctx, r.logger)
	gens := r.store.Snapshot().OfType(flowcanvas.TypeGenerator)
	log.Info("generation started", "generators", len(gens))

	outcomes := make([]Outcome, 0, len(gens))
	for _, gen := range gens {
		in, ok := Collect(r.store.Snapshot(), gen.ID)
		if !ok {
			continue
		}
		outcomes = append(outcomes, r.runOne(ctx, log.With("generator", gen.ID), in))
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	log.Info("generation finished", "generators", len(outcomes), "failed", failed)
	return outcomes
}

func (r *Resolver) runOne(ctx context.Context, log *slog.Logger, in Inputs) Outcome {
	out := Outcome{GeneratorID: in.GeneratorID, Targets: in.Targets}

	for _, id := range in.Targets {
		r.write(log, id, flowcanvas.Patch{"result": nil, "error": nil})
	}

	res, err := r.generate(ctx, log, in)
	if err != nil {
		log.Error("generation failed", "error", err)
		for _, id := range in.Targets {
			r.write(log, id, flowcanvas.Patch{"result": nil, "error": err.Error()})
		}
		out.Err = err
		return out
	}

	done := flowcanvas.Patch{"result": res, "error": nil}
	for _, id := range in.Targets {
		r.write(log, id, done)
	}
	if len(in.Targets) == 0 {
		n, _, err := r.store.AddDownstream(in.GeneratorID, flowcanvas.TypePreview, in.Position.Add(r.previewOffset), done)
		if err != nil {
			log.Warn("could not attach preview", "error", err)
		} else {
			out.Created = n.ID
		}
	}

	r.record(ctx, log, in, res)
	return out
}

func (r *Resolver) generate(ctx context.Context, log *slog.Logger, in Inputs) (*flowcanvas.Result, error) {
	var style *flowcanvas.StyleAnalysis
	if in.Reference != nil {
		a, err := r.svc.AnalyzeStyle(ctx, *in.Reference)
		if err != nil || a == nil {
			log.Warn("style analysis failed, using default", "error", err)
			a = &flowcanvas.StyleAnalysis{StyleDescription: flowcanvas.DefaultStyleDescription}
		}
		style = a
	}

	model := in.Model
	if model == "" {
		model = r.defaultModel
	}
	res, err := r.svc.GenerateDesign(ctx, Request{
		Fields:    in.Fields,
		Reference: in.Reference,
		Assets:    in.Assets,
		Style:     style,
		Model:     model,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Image == nil || res.Image.Data == "" {
		return nil, ErrNoImage
	}
	return res, nil
}

// write applies p to a node; a node deleted mid-run is skipped.
func (r *Resolver) write(log *slog.Logger, id string, p flowcanvas.Patch) {
	if _, err := r.store.UpdateNodeData(id, p); err != nil {
		log.Warn("could not update target", "target", id, "error", err)
	}
}

func (r *Resolver) record(ctx context.Context, log *slog.Logger, in Inputs, res *flowcanvas.Result) {
	if r.history == nil {
		return
	}
	model := in.Model
	if model == "" {
		model = r.defaultModel
	}
	_, err := r.history.AddEntry(ctx, &flowcanvas.HistoryEntry{
		CanvasID:    r.canvasID,
		GeneratorID: in.GeneratorID,
		Model:       model,
		Result:      *res,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		log.Warn("could not record history", "error", fmt.Errorf("resolve: add history entry: %w", err))
	}
}
