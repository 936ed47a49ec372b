package gemini

import "strings"

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType   string       `json:"responseMimeType,omitempty"`
	ResponseSchema     *schema      `json:"responseSchema,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Items      *schema            `json:"items,omitempty"`
}

var (
	str = &schema{Type: "STRING"}

	styleSchema = &schema{
		Type: "OBJECT",
		Properties: map[string]*schema{
			"styleDescription": str,
			"colorPalette": {
				Type: "OBJECT",
				Properties: map[string]*schema{
					"primary":    {Type: "ARRAY", Items: str},
					"accent":     {Type: "ARRAY", Items: str},
					"background": str,
				},
			},
			"typography": {
				Type:       "OBJECT",
				Properties: map[string]*schema{"style": str},
			},
		},
	}
)

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *APIError   `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

// text joins the text parts of the first candidate.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// APIError is the error body returned by the API. Its message is what
// surfaces on preview nodes, so it is returned unwrapped.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *APIError) Error() string { return e.Message }
