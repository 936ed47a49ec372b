package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/editor"
	"github.com/meikuraledutech/flowcanvas/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct{}

func (stubService) AnalyzeStyle(ctx context.Context, img flowcanvas.Image) (*flowcanvas.StyleAnalysis, error) {
	return &flowcanvas.StyleAnalysis{StyleDescription: "stub"}, nil
}

func (stubService) GenerateDesign(ctx context.Context, req resolve.Request) (*flowcanvas.Result, error) {
	return &flowcanvas.Result{Image: &flowcanvas.Image{Data: "T1VU", MimeType: "image/png"}, Text: req.Fields["headline"]}, nil
}

type harness struct {
	t   *testing.T
	app *fiber.App
}

func newHarness(t *testing.T, svc resolve.Service) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	history := flowcanvas.NewMemoryHistory()
	m := editor.NewManager(editor.Options{Service: svc, History: history, Logger: logger, DefaultModel: "model-x"})
	t.Cleanup(m.CloseAll)
	return &harness{t: t, app: newApp(m, history, logger)}
}

func (h *harness) do(method, path string, body any) (int, []byte) {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.app.Test(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, out
}

func (h *harness) decode(raw []byte, v any) {
	h.t.Helper()
	require.NoError(h.t, json.Unmarshal(raw, v))
}

func (h *harness) canvas() string {
	h.t.Helper()
	status, body := h.do(http.MethodPost, "/canvas", nil)
	require.Equal(h.t, 201, status)
	var out struct {
		ID string `json:"id"`
	}
	h.decode(body, &out)
	return out.ID
}

func (h *harness) node(canvas string, typ flowcanvas.NodeType, x, y float64) string {
	h.t.Helper()
	status, body := h.do(http.MethodPost, "/canvas/"+canvas+"/nodes", fiber.Map{"type": typ, "x": x, "y": y})
	require.Equal(h.t, 201, status, string(body))
	var out struct {
		ID string `json:"id"`
	}
	h.decode(body, &out)
	return out.ID
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type sceneBody struct {
	Version     uint64           `json:"version"`
	Zoom        float64          `json:"zoom"`
	State       string           `json:"state"`
	Nodes       []map[string]any `json:"nodes"`
	Connections []editor.Segment `json:"connections"`
	Menu        *point           `json:"menu"`
	Generating  bool             `json:"generating"`
}

func TestCanvasLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	id := h.canvas()

	status, body := h.do(http.MethodGet, "/canvas/"+id, nil)
	require.Equal(t, 200, status)
	var sc sceneBody
	h.decode(body, &sc)
	assert.Empty(t, sc.Nodes)
	assert.Equal(t, "idle", sc.State)

	status, _ = h.do(http.MethodDelete, "/canvas/"+id, nil)
	assert.Equal(t, 204, status)
	status, _ = h.do(http.MethodGet, "/canvas/"+id, nil)
	assert.Equal(t, 404, status)
}

func TestNodeRoutes(t *testing.T) {
	h := newHarness(t, nil)
	id := h.canvas()
	prompt := h.node(id, flowcanvas.TypePrompt, 10, 20)
	assert.True(t, strings.HasPrefix(prompt, "prompt-"))

	status, _ := h.do(http.MethodPost, "/canvas/"+id+"/nodes", fiber.Map{"type": "banner"})
	assert.Equal(t, 400, status)

	status, _ = h.do(http.MethodPatch, "/canvas/"+id+"/nodes/"+prompt, fiber.Map{"headline": "Sale"})
	assert.Equal(t, 204, status)
	status, _ = h.do(http.MethodPatch, "/canvas/"+id+"/nodes/"+prompt, fiber.Map{"headline": 42})
	assert.Equal(t, 422, status)
	status, _ = h.do(http.MethodPatch, "/canvas/"+id+"/nodes/missing", fiber.Map{"headline": "x"})
	assert.Equal(t, 404, status)

	_, body := h.do(http.MethodGet, "/canvas/"+id, nil)
	var sc sceneBody
	h.decode(body, &sc)
	require.Len(t, sc.Nodes, 1)
	data := sc.Nodes[0]["data"].(map[string]any)
	assert.Equal(t, "Sale", data["headline"])
	assert.Equal(t, "Brief / Text", data["title"])

	status, body = h.do(http.MethodPost, "/canvas/"+id+"/nodes/"+prompt+"/size", fiber.Map{"width": 320, "height": 200})
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"changed":true}`, string(body))
	_, body = h.do(http.MethodPost, "/canvas/"+id+"/nodes/"+prompt+"/size", fiber.Map{"width": 320, "height": 200})
	assert.JSONEq(t, `{"changed":false}`, string(body))

	status, _ = h.do(http.MethodPost, "/canvas/"+id+"/nodes/"+prompt+"/inputs", nil)
	assert.Equal(t, 404, status, "only generators take inputs")
	gen := h.node(id, flowcanvas.TypeGenerator, 400, 0)
	status, body = h.do(http.MethodPost, "/canvas/"+id+"/nodes/"+gen+"/inputs", nil)
	assert.Equal(t, 201, status)
	var port flowcanvas.PortSpec
	h.decode(body, &port)
	assert.Equal(t, "Image 2", port.Label)

	status, _ = h.do(http.MethodPost, "/canvas/"+id+"/nodes/"+gen+"/ports", fiber.Map{
		"origin": fiber.Map{"x": 400, "y": 0},
		"ports":  fiber.Map{port.ID: fiber.Map{"x": 392, "y": 142}},
	})
	assert.Equal(t, 204, status)

	status, _ = h.do(http.MethodDelete, "/canvas/"+id+"/nodes/"+prompt, nil)
	assert.Equal(t, 204, status)
	status, _ = h.do(http.MethodDelete, "/canvas/"+id+"/nodes/"+prompt, nil)
	assert.Equal(t, 204, status, "deleting twice is a no-op")
}

func TestConnectionRoutes(t *testing.T) {
	h := newHarness(t, nil)
	id := h.canvas()
	a := h.node(id, flowcanvas.TypePrompt, 0, 0)
	b := h.node(id, flowcanvas.TypeGenerator, 400, 0)

	status, body := h.do(http.MethodPost, "/canvas/"+id+"/connections", fiber.Map{"from": a, "to": b})
	require.Equal(t, 201, status)
	var conn flowcanvas.Connection
	h.decode(body, &conn)

	status, _ = h.do(http.MethodPost, "/canvas/"+id+"/connections", fiber.Map{"from": a, "to": b})
	assert.Equal(t, 204, status, "duplicate ignored")
	status, _ = h.do(http.MethodPost, "/canvas/"+id+"/connections", fiber.Map{"from": a, "to": a})
	assert.Equal(t, 204, status, "self connection ignored")

	_, body = h.do(http.MethodGet, "/canvas/"+id, nil)
	var sc sceneBody
	h.decode(body, &sc)
	require.Len(t, sc.Connections, 1)
	assert.Equal(t, 300.0, sc.Connections[0].From.X)
	assert.Equal(t, 400.0, sc.Connections[0].To.X)

	status, _ = h.do(http.MethodDelete, "/canvas/"+id+"/connections/"+conn.ID, nil)
	assert.Equal(t, 204, status)
	_, body = h.do(http.MethodGet, "/canvas/"+id, nil)
	h.decode(body, &sc)
	assert.Empty(t, sc.Connections)
}

func TestPointerRoutes(t *testing.T) {
	h := newHarness(t, nil)
	id := h.canvas()
	a := h.node(id, flowcanvas.TypePrompt, 0, 0)
	b := h.node(id, flowcanvas.TypeGenerator, 400, 0)

	status, body := h.do(http.MethodPost, "/canvas/"+id+"/events", []fiber.Map{
		{"kind": "down", "screen": fiber.Map{"x": 300, "y": 50}, "target": fiber.Map{"kind": "port", "node_id": a, "port_id": "output", "dir": "out"}},
		{"kind": "move", "screen": fiber.Map{"x": 380, "y": 50}},
	})
	require.Equal(t, 200, status, string(body))
	var sc sceneBody
	h.decode(body, &sc)
	assert.Equal(t, "drawing_connection", sc.State)

	_, body = h.do(http.MethodPost, "/canvas/"+id+"/events", []fiber.Map{
		{"kind": "up", "screen": fiber.Map{"x": 400, "y": 50}, "target": fiber.Map{"kind": "port", "node_id": b, "port_id": "input", "dir": "in"}},
	})
	h.decode(body, &sc)
	assert.Equal(t, "idle", sc.State)
	assert.Len(t, sc.Connections, 1)

	status, _ = h.do(http.MethodPost, "/canvas/"+id+"/events", []fiber.Map{{"kind": "tap"}})
	assert.Equal(t, 400, status)

	t.Run("context menu", func(t *testing.T) {
		status, _ := h.do(http.MethodPost, "/canvas/"+id+"/menu", fiber.Map{"type": "style"})
		assert.Equal(t, 409, status)

		_, body := h.do(http.MethodPost, "/canvas/"+id+"/events", []fiber.Map{
			{"kind": "contextmenu", "screen": fiber.Map{"x": 50, "y": 60}, "target": fiber.Map{"kind": "canvas"}},
		})
		var sc sceneBody
		h.decode(body, &sc)
		require.NotNil(t, sc.Menu)

		status, body = h.do(http.MethodPost, "/canvas/"+id+"/menu", fiber.Map{"type": "style"})
		require.Equal(t, 201, status)
		var n struct {
			ID       string `json:"id"`
			Position point  `json:"position"`
		}
		h.decode(body, &n)
		assert.True(t, strings.HasPrefix(n.ID, "style-"))
		assert.Equal(t, 50.0, n.Position.X)
	})

	t.Run("view", func(t *testing.T) {
		status, body := h.do(http.MethodPost, "/canvas/"+id+"/view", fiber.Map{"action": "zoom_in"})
		require.Equal(t, 200, status)
		var sc sceneBody
		h.decode(body, &sc)
		assert.InDelta(t, 1.1, sc.Zoom, 1e-9)

		_, body = h.do(http.MethodPost, "/canvas/"+id+"/view", fiber.Map{"action": "reset"})
		h.decode(body, &sc)
		assert.Equal(t, 1.0, sc.Zoom)

		status, _ = h.do(http.MethodPost, "/canvas/"+id+"/view", fiber.Map{"action": "spin"})
		assert.Equal(t, 400, status)
	})
}

func TestGenerateRoute(t *testing.T) {
	t.Run("without service", func(t *testing.T) {
		h := newHarness(t, nil)
		id := h.canvas()
		status, _ := h.do(http.MethodPost, "/canvas/"+id+"/generate", nil)
		assert.Equal(t, 503, status)
	})

	t.Run("runs in background and records history", func(t *testing.T) {
		h := newHarness(t, stubService{})
		id := h.canvas()
		prompt := h.node(id, flowcanvas.TypePrompt, 0, 0)
		gen := h.node(id, flowcanvas.TypeGenerator, 400, 0)
		h.do(http.MethodPatch, "/canvas/"+id+"/nodes/"+prompt, fiber.Map{"headline": "Sale"})
		h.do(http.MethodPost, "/canvas/"+id+"/connections", fiber.Map{"from": prompt, "to": gen})

		status, _ := h.do(http.MethodPost, "/canvas/"+id+"/generate", nil)
		require.Equal(t, 202, status)

		var entries []flowcanvas.HistoryEntry
		require.Eventually(t, func() bool {
			_, body := h.do(http.MethodGet, "/canvas/"+id+"/history?limit=5", nil)
			h.decode(body, &entries)
			return len(entries) == 1
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, gen, entries[0].GeneratorID)
		assert.Equal(t, "Sale", entries[0].Result.Text)

		_, body := h.do(http.MethodGet, "/canvas/"+id, nil)
		var sc sceneBody
		h.decode(body, &sc)
		assert.Len(t, sc.Nodes, 3, "a preview is attached")

		status, body = h.do(http.MethodGet, "/history/"+entries[0].ID, nil)
		assert.Equal(t, 200, status)
		var e flowcanvas.HistoryEntry
		h.decode(body, &e)
		assert.Equal(t, entries[0].ID, e.ID)

		status, _ = h.do(http.MethodGet, "/history/missing", nil)
		assert.Equal(t, 404, status)
		status, _ = h.do(http.MethodGet, "/canvas/"+id+"/history?limit=x", nil)
		assert.Equal(t, 400, status)
	})
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowcanvas.toml")
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init-config", "--path", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), path)

	cmd = rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"init-config", "--path", path})
	assert.Error(t, cmd.Execute(), "existing file is not overwritten")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("warn", "json", &buf)
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
