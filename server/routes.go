package main

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/meikuraledutech/flowcanvas"
	"github.com/meikuraledutech/flowcanvas/editor"
	"github.com/meikuraledutech/flowcanvas/geom"
	"github.com/meikuraledutech/flowcanvas/interact"
	"github.com/meikuraledutech/flowcanvas/internal/ctxlog"
	"github.com/meikuraledutech/flowcanvas/ports"
	"github.com/meikuraledutech/flowcanvas/resolve"
)

type nodeRequest struct {
	Type flowcanvas.NodeType `json:"type"`
	X    float64             `json:"x"`
	Y    float64             `json:"y"`
}

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type connectionRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type menuRequest struct {
	Type flowcanvas.NodeType `json:"type"`
}

type viewRequest struct {
	Action editor.ViewAction `json:"action"`
}

func newApp(m *editor.Manager, history flowcanvas.HistoryStore, logger *slog.Logger) *fiber.App {
	app := fiber.New()

	app.Use(func(c fiber.Ctx) error {
		l := logger.With("request_id", uuid.NewString())
		c.SetContext(ctxlog.WithLogger(c.Context(), l))
		err := c.Next()
		l.Debug("request", "method", c.Method(), "path", c.Path(), "status", c.Response().StatusCode())
		return err
	})

	withSession := func(h func(c fiber.Ctx, s *editor.Session) error) fiber.Handler {
		return func(c fiber.Ctx) error {
			s, ok := m.Get(c.Params("id"))
			if !ok {
				return c.Status(404).JSON(fiber.Map{"error": "canvas not found"})
			}
			return h(c, s)
		}
	}

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := history.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := history.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Canvas ────────────────────────────────────────────────────────
	app.Post("/canvas", func(c fiber.Ctx) error {
		s := m.Create()
		ctxlog.FromContext(c.Context(), logger).Info("canvas opened", "canvas", s.ID)
		return c.Status(201).JSON(fiber.Map{"id": s.ID})
	})

	app.Get("/canvas/:id", withSession(func(c fiber.Ctx, s *editor.Session) error {
		return c.JSON(s.Scene())
	}))

	app.Delete("/canvas/:id", func(c fiber.Ctx) error {
		m.Close(c.Params("id"))
		return c.SendStatus(204)
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/canvas/:id/nodes", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var req nodeRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		n, err := s.AddNode(req.Type, geom.Pt(req.X, req.Y))
		if errors.Is(err, flowcanvas.ErrUnknownNodeType) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(n)
	}))

	app.Patch("/canvas/:id/nodes/:node", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var patch flowcanvas.Patch
		if err := c.Bind().JSON(&patch); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		ok, err := s.UpdateNode(c.Params("node"), patch)
		if errors.Is(err, flowcanvas.ErrInvalidPatch) {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		return c.SendStatus(204)
	}))

	app.Delete("/canvas/:id/nodes/:node", withSession(func(c fiber.Ctx, s *editor.Session) error {
		s.DeleteNode(c.Params("node"))
		return c.SendStatus(204)
	}))

	app.Post("/canvas/:id/nodes/:node/inputs", withSession(func(c fiber.Ctx, s *editor.Session) error {
		p, ok := s.AddImageInput(c.Params("node"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "generator not found"})
		}
		return c.Status(201).JSON(p)
	}))

	app.Post("/canvas/:id/nodes/:node/size", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var req sizeRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		return c.JSON(fiber.Map{"changed": s.Resize(c.Params("node"), req.Width, req.Height)})
	}))

	app.Post("/canvas/:id/nodes/:node/ports", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var req ports.Measurement
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if !s.MeasurePorts(c.Params("node"), req) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		return c.SendStatus(204)
	}))

	// ── Connections ───────────────────────────────────────────────────
	app.Post("/canvas/:id/connections", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var req connectionRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		conn, ok := s.AddConnection(req.From, req.To)
		if !ok {
			// Self, duplicate and dangling connections are ignored.
			return c.SendStatus(204)
		}
		return c.Status(201).JSON(conn)
	}))

	app.Delete("/canvas/:id/connections/:conn", withSession(func(c fiber.Ctx, s *editor.Session) error {
		s.DeleteConnection(c.Params("conn"))
		return c.SendStatus(204)
	}))

	// ── Pointer ───────────────────────────────────────────────────────
	app.Post("/canvas/:id/events", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var events []interact.Event
		if err := c.Bind().JSON(&events); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		for _, e := range events {
			if err := s.Handle(e); err != nil {
				return c.Status(400).JSON(fiber.Map{"error": err.Error()})
			}
		}
		return c.JSON(s.Scene())
	}))

	app.Post("/canvas/:id/menu", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var req menuRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		n, err := s.SelectMenu(req.Type)
		if errors.Is(err, interact.ErrMenuClosed) {
			return c.Status(409).JSON(fiber.Map{"error": "context menu is not open"})
		}
		if errors.Is(err, flowcanvas.ErrUnknownNodeType) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(n)
	}))

	app.Post("/canvas/:id/view", withSession(func(c fiber.Ctx, s *editor.Session) error {
		var req viewRequest
		if err := c.Bind().JSON(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := s.View(req.Action); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(s.Scene())
	}))

	// ── Generation ────────────────────────────────────────────────────
	app.Post("/canvas/:id/generate", withSession(func(c fiber.Ctx, s *editor.Session) error {
		ctx := ctxlog.WithLogger(c.Context(), ctxlog.FromContext(c.Context(), logger).With("canvas", s.ID))
		_, err := s.StartGeneration(ctx)
		if errors.Is(err, resolve.ErrBusy) {
			return c.Status(409).JSON(fiber.Map{"error": "generation already running"})
		}
		if errors.Is(err, editor.ErrNoService) {
			return c.Status(503).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(202).JSON(fiber.Map{"message": "generation started"})
	}))

	app.Get("/canvas/:id/history", func(c fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid limit"})
		}
		entries, err := history.ListEntries(c.Context(), c.Params("id"), limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(entries)
	})

	app.Get("/history/:entry", func(c fiber.Ctx) error {
		e, err := history.GetEntry(c.Context(), c.Params("entry"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if e == nil {
			return c.Status(404).JSON(fiber.Map{"error": "entry not found"})
		}
		return c.JSON(e)
	})

	return app
}
