// Package gemini implements the generation service over the Gemini
// generateContent REST API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3/client"
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/resolve"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultStyleModel = "gemini-2.5-flash"
	DefaultImageModel = "gemini-3-pro-image-preview"
	DefaultTimeout    = 2 * time.Minute
)

var (
	ErrNoAPIKey     = errors.New("gemini: api key is not set")
	ErrNoCandidates = errors.New("gemini: no candidates returned")
	ErrNoAnalysis   = errors.New("gemini: no analysis returned")
)

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	StyleModel string
	ImageModel string
	Timeout    time.Duration
}

// Client implements resolve.Service.
type Client struct {
	http       *client.Client
	apiKey     string
	styleModel string
	imageModel string
}

var _ resolve.Service = (*Client)(nil)

// New creates a client. Empty config fields take their defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.StyleModel == "" {
		cfg.StyleModel = DefaultStyleModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = DefaultImageModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	hc := client.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &Client{
		http:       hc,
		apiKey:     cfg.APIKey,
		styleModel: cfg.StyleModel,
		imageModel: cfg.ImageModel,
	}, nil
}

// AnalyzeStyle asks the text model for a structured description of a
// reference image.
func (c *Client) AnalyzeStyle(ctx context.Context, img flowcanvas.Image) (*flowcanvas.StyleAnalysis, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: img.MimeType, Data: img.Data}},
			{Text: stylePrompt},
		}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   styleSchema,
		},
	}
	resp, err := c.generate(ctx, c.styleModel, req)
	if err != nil {
		return nil, err
	}

	text := resp.text()
	if text == "" {
		return nil, ErrNoAnalysis
	}
	var a flowcanvas.StyleAnalysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("gemini: decode analysis: %w", err)
	}
	if a.StyleDescription == "" {
		a.StyleDescription = flowcanvas.DefaultStyleDescription
	}
	return &a, nil
}

// GenerateDesign renders a design from the request. A response without an
// inline image is returned with a nil Image; the caller decides whether
// that is a failure.
func (c *Client) GenerateDesign(ctx context.Context, r resolve.Request) (*flowcanvas.Result, error) {
	parts := []part{{Text: BuildPrompt(r.Fields, r.Style, len(r.Assets))}}
	if r.Reference != nil {
		parts = append(parts, part{InlineData: &inlineData{MimeType: r.Reference.MimeType, Data: r.Reference.Data}})
	}
	for _, a := range r.Assets {
		parts = append(parts, part{InlineData: &inlineData{MimeType: a.MimeType, Data: a.Data}})
	}

	model := r.Model
	if model == "" {
		model = c.imageModel
	}
	resp, err := c.generate(ctx, model, generateRequest{
		Contents: []content{{Parts: parts}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig:        &imageConfig{AspectRatio: AspectRatio(r.Fields)},
		},
	})
	if err != nil {
		return nil, err
	}

	res := &flowcanvas.Result{Text: resp.text()}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil {
			res.Image = &flowcanvas.Image{Data: p.InlineData.Data, MimeType: p.InlineData.MimeType}
		}
	}
	return res, nil
}

func (c *Client) generate(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetJSON(body).
		Post("/models/" + model + ":generateContent")
	if err != nil {
		return nil, fmt.Errorf("gemini: request %s: %w", model, err)
	}
	defer resp.Close()

	var out generateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("gemini: decode response (status %d): %w", resp.StatusCode(), err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("gemini: unexpected status %d", resp.StatusCode())
	}
	if len(out.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return &out, nil
}
