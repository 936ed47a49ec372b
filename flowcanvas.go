// Package flowcanvas holds the node graph behind the design canvas: typed
// nodes, directed connections and the store that keeps them consistent.
package flowcanvas

import "github.com/meikuraledutech/flowcanvas/geom"

// NodeType identifies what a node contributes to a generation pass.
type NodeType string

const (
	TypeReference NodeType = "reference"
	TypeAsset     NodeType = "asset"
	TypePrompt    NodeType = "prompt"
	TypeStyle     NodeType = "style"
	TypeGenerator NodeType = "generator"
	TypePreview   NodeType = "preview"
)

// NodeTypes lists every node type in context-menu order.
var NodeTypes = []NodeType{TypeReference, TypeAsset, TypePrompt, TypeStyle, TypeGenerator, TypePreview}

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	for _, k := range NodeTypes {
		if k == t {
			return true
		}
	}
	return false
}

// HasInput reports whether nodes of this type expose an input port.
func (t NodeType) HasInput() bool {
	return t == TypeGenerator || t == TypePreview
}

// HasOutput reports whether nodes of this type expose an output port.
func (t NodeType) HasOutput() bool {
	return t != TypePreview && t.Valid()
}

// DefaultWidth is the initial width of a new node of this type.
func (t NodeType) DefaultWidth() float64 {
	switch t {
	case TypePreview:
		return 400
	case TypeReference, TypeAsset:
		return 250
	default:
		return 300
	}
}

// DefaultTitle is the header label of a new node of this type.
func (t NodeType) DefaultTitle() string {
	switch t {
	case TypeReference:
		return "Style Reference"
	case TypeAsset:
		return "Asset / Object"
	case TypePrompt:
		return "Brief / Text"
	case TypeStyle:
		return "Settings"
	case TypeGenerator:
		return "Model"
	case TypePreview:
		return "Result"
	}
	return string(t)
}

// Node is a positioned, typed unit of graph state.
// Position is the top-left corner in world coordinates.
type Node struct {
	ID       string     `json:"id"`
	Type     NodeType   `json:"type"`
	Position geom.Point `json:"position"`
	Data     NodeData   `json:"data"`
	Width    float64    `json:"width,omitempty"`
}

// Connection is a directed edge from one node's output to another's input.
// FromPort / ToPort are set only when a specific dynamic port was used.
type Connection struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	To       string `json:"to"`
	FromPort string `json:"from_port,omitempty"`
	ToPort   string `json:"to_port,omitempty"`
}

// Image is an inline image: base64 payload plus its MIME type.
type Image struct {
	Data     string `json:"data"`
	MimeType string `json:"mime_type"`
}

// Result is what a generator produced.
type Result struct {
	Image *Image `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

// StyleAnalysis describes the visual style of a reference image.
type StyleAnalysis struct {
	StyleDescription string      `json:"styleDescription"`
	ColorPalette     *Palette    `json:"colorPalette,omitempty"`
	Typography       *Typography `json:"typography,omitempty"`
}

type Palette struct {
	Primary    []string `json:"primary,omitempty"`
	Accent     []string `json:"accent,omitempty"`
	Background string   `json:"background,omitempty"`
}

type Typography struct {
	Style string `json:"style,omitempty"`
}

// DefaultStyleDescription is used when a reference image could not be analysed.
const DefaultStyleDescription = "Modern professional style"
