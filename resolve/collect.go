// Package resolve walks a canvas graph to assemble generation requests, calls
// the generation service and writes results back into the graph.
package resolve

import (
	"maps"

	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/geom"
)

// Inputs is everything one generator node needs for a run, resolved from a
// graph snapshot.
type Inputs struct {
	GeneratorID string
	Position    geom.Point
	Model       string
	Reference   *flowcanvas.Image
	Assets      []flowcanvas.Image
	Fields      map[string]string
	// Targets are the node ids on the generator's outbound connections.
	Targets []string
}

// Collect resolves the inputs of generatorID from g.
//
// The first connected reference node with an image supplies the reference;
// every connected asset with an image is an asset, in connection order;
// prompt and style fields are merged in connection order, later nodes
// overwriting earlier ones on the same key.
func Collect(g flowcanvas.Graph, generatorID string) (Inputs, bool) {
	gen, ok := g.Node(generatorID)
	if !ok || gen.Type != flowcanvas.TypeGenerator {
		return Inputs{}, false
	}

	in := Inputs{
		GeneratorID: gen.ID,
		Position:    gen.Position,
		Fields:      map[string]string{},
		Assets:      []flowcanvas.Image{},
	}
	if d, ok := gen.Data.(*flowcanvas.GeneratorData); ok {
		in.Model = d.Model
	}

	for _, c := range g.Inbound(gen.ID) {
		src, ok := g.Node(c.From)
		if !ok {
			continue
		}
		switch src.Type {
		case flowcanvas.TypeReference:
			if in.Reference == nil {
				in.Reference = imageOf(src)
			}
		case flowcanvas.TypeAsset:
			if img := imageOf(src); img != nil {
				in.Assets = append(in.Assets, *img)
			}
		case flowcanvas.TypePrompt, flowcanvas.TypeStyle:
			if f, ok := src.Data.(flowcanvas.Fielder); ok {
				maps.Copy(in.Fields, f.Fields())
			}
		}
	}

	for _, c := range g.Outbound(gen.ID) {
		in.Targets = append(in.Targets, c.To)
	}
	return in, true
}

func imageOf(n flowcanvas.Node) *flowcanvas.Image {
	src, ok := n.Data.(flowcanvas.Imager)
	if !ok {
		return nil
	}
	img := src.SourceImage()
	if img == nil || img.Data == "" {
		return nil
	}
	c := *img
	return &c
}
