package flowcanvas

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// NodeData is the per-type payload of a node. Each node type has exactly one
// concrete variant; all of them carry a title and an Extra bag for keys the
// variant does not model.
type NodeData interface {
	Kind() NodeType
	Label() string
	blank() NodeData
}

// Fielder is implemented by the variants that feed text fields into a
// generation request.
type Fielder interface {
	Fields() map[string]string
}

// Imager is implemented by the variants that hold an uploaded image.
type Imager interface {
	SourceImage() *Image
}

// PortSpec is a dynamically added input port on a generator.
type PortSpec struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ReferenceData struct {
	Title string            `json:"title"`
	Image *Image            `json:"image"`
	Extra map[string]string `json:"extra,omitempty"`
}

type AssetData struct {
	Title string            `json:"title"`
	Image *Image            `json:"image"`
	Extra map[string]string `json:"extra,omitempty"`
}

type PromptData struct {
	Title                  string            `json:"title"`
	Headline               string            `json:"headline,omitempty"`
	Subheadline            string            `json:"subheadline,omitempty"`
	ProductDescription     string            `json:"productDescription,omitempty"`
	CTAText                string            `json:"ctaText,omitempty"`
	TargetAudience         string            `json:"targetAudience,omitempty"`
	AdditionalInstructions string            `json:"additionalInstructions,omitempty"`
	Extra                  map[string]string `json:"extra,omitempty"`
}

type StyleData struct {
	Title           string            `json:"title"`
	DesignType      string            `json:"designType,omitempty"`
	Mood            string            `json:"mood,omitempty"`
	Dimensions      string            `json:"dimensions,omitempty"`
	ColorPreference string            `json:"colorPreference,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

type GeneratorData struct {
	Title  string            `json:"title"`
	Model  string            `json:"model"`
	Inputs []PortSpec        `json:"inputs"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// PreviewData receives generation output. A nil Error together with a
// non-nil Result is a completed run; both nil is a pending or cleared one.
type PreviewData struct {
	Title  string            `json:"title"`
	Result *Result           `json:"result"`
	Error  *string           `json:"error"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// NewData returns the initial payload for a node of type t.
func NewData(t NodeType, model string) NodeData {
	title := t.DefaultTitle()
	switch t {
	case TypeReference:
		return &ReferenceData{Title: title}
	case TypeAsset:
		return &AssetData{Title: title}
	case TypePrompt:
		return &PromptData{Title: title}
	case TypeStyle:
		return &StyleData{Title: title}
	case TypeGenerator:
		return &GeneratorData{Title: title, Model: model, Inputs: []PortSpec{{ID: "image-1", Label: "Image 1"}}}
	case TypePreview:
		return &PreviewData{Title: title}
	}
	return nil
}

func (d *ReferenceData) Kind() NodeType { return TypeReference }
func (d *AssetData) Kind() NodeType     { return TypeAsset }
func (d *PromptData) Kind() NodeType    { return TypePrompt }
func (d *StyleData) Kind() NodeType     { return TypeStyle }
func (d *GeneratorData) Kind() NodeType { return TypeGenerator }
func (d *PreviewData) Kind() NodeType   { return TypePreview }

func (d *ReferenceData) Label() string { return d.Title }
func (d *AssetData) Label() string     { return d.Title }
func (d *PromptData) Label() string    { return d.Title }
func (d *StyleData) Label() string     { return d.Title }
func (d *GeneratorData) Label() string { return d.Title }
func (d *PreviewData) Label() string   { return d.Title }

func (d *ReferenceData) SourceImage() *Image { return d.Image }
func (d *AssetData) SourceImage() *Image     { return d.Image }

// Fields returns the non-empty brief fields keyed by their JSON names. Extra
// entries are included; a typed field wins over an Extra key of the same name.
func (d *PromptData) Fields() map[string]string {
	return collect(d.Extra,
		"headline", d.Headline,
		"subheadline", d.Subheadline,
		"productDescription", d.ProductDescription,
		"ctaText", d.CTAText,
		"targetAudience", d.TargetAudience,
		"additionalInstructions", d.AdditionalInstructions,
	)
}

func (d *StyleData) Fields() map[string]string {
	return collect(d.Extra,
		"designType", d.DesignType,
		"mood", d.Mood,
		"dimensions", d.Dimensions,
		"colorPreference", d.ColorPreference,
	)
}

func collect(extra map[string]string, kv ...string) map[string]string {
	out := make(map[string]string, len(kv)/2+len(extra))
	for k, v := range extra {
		if v != "" {
			out[k] = v
		}
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			out[kv[i]] = kv[i+1]
		}
	}
	return out
}

func (d *ReferenceData) blank() NodeData { return &ReferenceData{} }
func (d *AssetData) blank() NodeData     { return &AssetData{} }
func (d *PromptData) blank() NodeData    { return &PromptData{} }
func (d *StyleData) blank() NodeData     { return &StyleData{} }
func (d *GeneratorData) blank() NodeData { return &GeneratorData{} }
func (d *PreviewData) blank() NodeData   { return &PreviewData{} }

// Patch is a partial node-data update keyed by JSON field name. Applying it
// is a shallow merge: keys absent from the patch keep their value, a null
// value clears the field, and keys the variant does not model are ignored.
type Patch map[string]any

// Apply merges p over d and returns the result as a new value; d itself is
// never modified. Each key in p replaces the whole top-level field.
func (p Patch) Apply(d NodeData) (NodeData, error) {
	cur, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("flowcanvas: encode node data: %w", err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(cur, &fields); err != nil {
		return nil, fmt.Errorf("flowcanvas: decode node data: %w", err)
	}

	known := jsonKeys(d)
	for k, v := range p {
		if !known[k] {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPatch, k, err)
		}
		fields[k] = raw
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	next := d.blank()
	if err := json.Unmarshal(merged, next); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	return next, nil
}

// jsonKeys returns the exact JSON names of d's fields. encoding/json matches
// names case-insensitively on decode, so patch keys are filtered first.
func jsonKeys(d NodeData) map[string]bool {
	t := reflect.TypeOf(d)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}
