package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FLOWCANVAS_ADDR", "DATABASE_URL", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, geom.DefaultLimits(), cfg.Canvas.Limits())
	assert.Equal(t, ports.DefaultSize, cfg.Canvas.FallbackSize())
	assert.Equal(t, ports.DefaultSettleDelay, cfg.Canvas.SettleDelay())
	assert.Equal(t, 2*time.Minute, cfg.Gemini.Client().Timeout)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "flowcanvas.toml")
		require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":8080"

[canvas]
zoom_max = 5.0
settle_delay_ms = 10

[log]
format = "json"
`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, 5.0, cfg.Canvas.Limits().Max)
		assert.Equal(t, geom.ZoomMin, cfg.Canvas.Limits().Min)
		assert.Equal(t, 10*time.Millisecond, cfg.Canvas.SettleDelay())
		assert.Equal(t, "json", cfg.Log.Format)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("env wins over file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("FLOWCANVAS_ADDR", ":9999")
		t.Setenv("DATABASE_URL", "postgres://localhost/canvas")
		t.Setenv("GEMINI_API_KEY", "k")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, ":9999", cfg.Server.Addr)
		assert.Equal(t, "postgres://localhost/canvas", cfg.Database.URL)
		assert.Equal(t, "k", cfg.Gemini.APIKey)
	})

	t.Run("bad toml", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[server\naddr="), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "flowcanvas.toml")

	cfg := Default()
	cfg.Canvas.CursorZoom = true
	cfg.Gemini.ImageModel = "other-model"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Canvas.CursorZoom)
	assert.Equal(t, "other-model", loaded.Gemini.ImageModel)
}
