// Package config loads flowcanvas settings from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/meikuraledutech/flowcanvas/gemini"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/ports"
)

// Config holds flowcanvas configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Canvas   CanvasConfig   `toml:"canvas"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// CanvasConfig controls viewport limits and port measurement.
type CanvasConfig struct {
	ZoomMin       float64 `toml:"zoom_min"`
	ZoomMax       float64 `toml:"zoom_max"`
	WheelFactor   float64 `toml:"wheel_factor"`
	ZoomStep      float64 `toml:"zoom_step"`
	CursorZoom    bool    `toml:"cursor_zoom"`
	NodeWidth     float64 `toml:"node_width"`
	NodeHeight    float64 `toml:"node_height"`
	SettleDelayMS int     `toml:"settle_delay_ms"`
	DefaultModel  string  `toml:"default_model"`
}

// GeminiConfig controls the generation service client.
type GeminiConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	StyleModel     string `toml:"style_model"`
	ImageModel     string `toml:"image_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DatabaseConfig selects the history backend. An empty URL keeps history
// in memory.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text", "json"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":3000"},
		Canvas: CanvasConfig{
			ZoomMin:       geom.ZoomMin,
			ZoomMax:       geom.ZoomMax,
			WheelFactor:   geom.WheelFactor,
			ZoomStep:      geom.ZoomStep,
			NodeWidth:     ports.DefaultSize.Width,
			NodeHeight:    ports.DefaultSize.Height,
			SettleDelayMS: int(ports.DefaultSettleDelay / time.Millisecond),
			DefaultModel:  gemini.DefaultImageModel,
		},
		Gemini: GeminiConfig{
			BaseURL:        gemini.DefaultBaseURL,
			StyleModel:     gemini.DefaultStyleModel,
			ImageModel:     gemini.DefaultImageModel,
			TimeoutSeconds: int(gemini.DefaultTimeout / time.Second),
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FLOWCANVAS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Limits returns the viewport limits.
func (c CanvasConfig) Limits() geom.Limits {
	return geom.Limits{Min: c.ZoomMin, Max: c.ZoomMax, WheelFactor: c.WheelFactor, Step: c.ZoomStep}
}

// FallbackSize is the node box assumed before a node reports its size.
func (c CanvasConfig) FallbackSize() ports.Size {
	s := ports.DefaultSize
	if c.NodeWidth > 0 {
		s.Width = c.NodeWidth
	}
	if c.NodeHeight > 0 {
		s.Height = c.NodeHeight
	}
	return s
}

// SettleDelay is the wait before a newly measured node is re-converted.
func (c CanvasConfig) SettleDelay() time.Duration {
	if c.SettleDelayMS <= 0 {
		return ports.DefaultSettleDelay
	}
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// Client returns the generation client settings.
func (g GeminiConfig) Client() gemini.Config {
	return gemini.Config{
		BaseURL:    g.BaseURL,
		APIKey:     g.APIKey,
		StyleModel: g.StyleModel,
		ImageModel: g.ImageModel,
		Timeout:    time.Duration(g.TimeoutSeconds) * time.Second,
	}
}
