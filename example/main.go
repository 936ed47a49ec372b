package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/editor"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/interact"
	"github.com/meikuraledutech/flowcanvas/ports"
	"github.com/meikuraledutech/flowcanvas/resolve"
)

var (
	title  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// stubService stands in for the image API: it fails any brief whose
// headline is "quota".
type stubService struct{}

func (stubService) AnalyzeStyle(ctx context.Context, img flowcanvas.Image) (*flowcanvas.StyleAnalysis, error) {
	return &flowcanvas.StyleAnalysis{StyleDescription: "Bold flat shapes on a dark background"}, nil
}

func (stubService) GenerateDesign(ctx context.Context, req resolve.Request) (*flowcanvas.Result, error) {
	if req.Fields["headline"] == "quota" {
		return nil, errors.New("quota exceeded")
	}
	style := "none"
	if req.Style != nil {
		style = req.Style.StyleDescription
	}
	return &flowcanvas.Result{
		Image: &flowcanvas.Image{Data: "iVBORw0KGgo=", MimeType: "image/png"},
		Text:  fmt.Sprintf("%d asset(s), style %q", len(req.Assets), style),
	}, nil
}

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	s := editor.NewSession("example", editor.Options{
		Service:      stubService{},
		DefaultModel: "gemini-3-pro-image-preview",
		Logger:       logger,
	})
	defer s.Close()

	// ── Build the graph ───────────────────────────────────────────────
	title.Println("1. build a canvas")
	ref := add(s, flowcanvas.TypeReference, 0, 0, flowcanvas.Patch{"image": flowcanvas.Image{Data: "UkVG", MimeType: "image/png"}})
	asset := add(s, flowcanvas.TypeAsset, 0, 200, flowcanvas.Patch{"image": flowcanvas.Image{Data: "QVNT", MimeType: "image/png"}})
	prompt := add(s, flowcanvas.TypePrompt, 0, 400, flowcanvas.Patch{"headline": "Sale"})
	gen := add(s, flowcanvas.TypeGenerator, 400, 200, nil)
	out := add(s, flowcanvas.TypePreview, 800, 200, nil)

	for _, from := range []string{ref, asset, prompt} {
		connect(s, from, gen)
	}

	// The last connection is drawn with the pointer, port to port.
	drag := []interact.Event{
		{Kind: interact.PointerDown, Screen: geom.Pt(700, 250), Target: interact.Target{Kind: interact.OnPort, NodeID: gen, PortID: ports.Output, Dir: ports.Out}},
		{Kind: interact.PointerMove, Screen: geom.Pt(760, 250)},
		{Kind: interact.PointerUp, Screen: geom.Pt(800, 250), Target: interact.Target{Kind: interact.OnPort, NodeID: out, PortID: ports.Input, Dir: ports.In}},
	}
	for _, e := range drag {
		if err := s.Handle(e); err != nil {
			log.Fatalf("event: %v", err)
		}
	}
	printScene(s)

	// ── Generate ──────────────────────────────────────────────────────
	title.Println("2. generate")
	report(s.Generate(ctx))
	printPreview(s, out)

	// ── A second, failing generator ───────────────────────────────────
	title.Println("3. isolate a failing generator")
	failing := add(s, flowcanvas.TypePrompt, 0, 700, flowcanvas.Patch{"headline": "quota"})
	gen2 := add(s, flowcanvas.TypeGenerator, 400, 700, nil)
	out2 := add(s, flowcanvas.TypePreview, 800, 700, nil)
	connect(s, failing, gen2)
	connect(s, gen2, out2)
	report(s.Generate(ctx))

	// The error lands on the failing generator's preview only.
	printPreview(s, out2)
	printPreview(s, out)

	// ── History ───────────────────────────────────────────────────────
	title.Println("4. history")
	entries, err := s.History(ctx, 10)
	if err != nil {
		log.Fatalf("history: %v", err)
	}
	for _, e := range entries {
		fmt.Printf("  %s  %s  %s\n", e.CreatedAt.Format("15:04:05"), e.GeneratorID, subtle.Sprint(e.Result.Text))
	}
}

func add(s *editor.Session, t flowcanvas.NodeType, x, y float64, patch flowcanvas.Patch) string {
	n, err := s.AddNode(t, geom.Pt(x, y))
	if err != nil {
		log.Fatalf("add %s: %v", t, err)
	}
	if patch != nil {
		if _, err := s.UpdateNode(n.ID, patch); err != nil {
			log.Fatalf("update %s: %v", n.ID, err)
		}
	}
	fmt.Printf("  + %s\n", n.ID)
	return n.ID
}

func connect(s *editor.Session, from, to string) {
	if _, ok := s.AddConnection(from, to); !ok {
		log.Fatalf("connect %s -> %s rejected", from, to)
	}
}

func report(outcomes []resolve.Outcome, err error) {
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			bad.Printf("  ✗ %s: %v\n", o.GeneratorID, o.Err)
		case o.Created != "":
			good.Printf("  ✓ %s -> new %s\n", o.GeneratorID, o.Created)
		default:
			good.Printf("  ✓ %s -> %v\n", o.GeneratorID, o.Targets)
		}
	}
}

func printPreview(s *editor.Session, id string) {
	n, ok := s.Store().Node(id)
	if !ok {
		return
	}
	printJSON(id, n.Data)
}

func printScene(s *editor.Session) {
	sc := s.Scene()
	fmt.Printf("  %d nodes, %d connections, state %s\n", len(sc.Nodes), len(sc.Connections), sc.State)
	for _, seg := range sc.Connections {
		fmt.Printf("  %s (%.0f,%.0f) -> (%.0f,%.0f)\n", subtle.Sprint(seg.ID[:13]), seg.From.X, seg.From.Y, seg.To.X, seg.To.Y)
	}
}

func printJSON(label string, v any) {
	b, _ := json.MarshalIndent(v, "  ", "  ")
	fmt.Printf("  %s\n  %s\n", subtle.Sprint(label), string(b))
}
