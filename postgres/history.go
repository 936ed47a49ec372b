package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/flowcanvas"
)

// AddEntry inserts one history entry.
// If e.ID is empty, a UUID is auto-generated; a zero CreatedAt becomes now.
// Returns the entry ID (generated or provided).
func (s *PGStore) AddEntry(ctx context.Context, e *flowcanvas.HistoryEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO canvas_history (id, canvas_id, generator_id, model, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.CanvasID, e.GeneratorID, e.Model, e.Result, e.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("flowcanvas: insert history entry: %w", err)
	}

	return e.ID, nil
}

// GetEntry fetches a single entry by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetEntry(ctx context.Context, id string) (*flowcanvas.HistoryEntry, error) {
	var e flowcanvas.HistoryEntry
	err := s.db.QueryRow(ctx,
		`SELECT id, canvas_id, generator_id, model, result, created_at
		 FROM canvas_history WHERE id = $1`, id,
	).Scan(&e.ID, &e.CanvasID, &e.GeneratorID, &e.Model, &e.Result, &e.CreatedAt)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("flowcanvas: get history entry: %w", err)
	}

	return &e, nil
}

// ListEntries returns a canvas's entries, newest first. A limit <= 0 means
// no limit. Returns an empty slice (not nil) if none found.
func (s *PGStore) ListEntries(ctx context.Context, canvasID string, limit int) ([]flowcanvas.HistoryEntry, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, canvas_id, generator_id, model, result, created_at
		 FROM canvas_history WHERE canvas_id = $1
		 ORDER BY created_at DESC, id
		 LIMIT $2`, canvasID, lim)
	if err != nil {
		return nil, fmt.Errorf("flowcanvas: list history: %w", err)
	}
	defer rows.Close()

	entries := []flowcanvas.HistoryEntry{}
	for rows.Next() {
		var e flowcanvas.HistoryEntry
		if err := rows.Scan(&e.ID, &e.CanvasID, &e.GeneratorID, &e.Model, &e.Result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("flowcanvas: scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flowcanvas: rows history: %w", err)
	}

	return entries, nil
}

// DeleteEntries removes every entry of a canvas.
// No error if the canvas has none.
func (s *PGStore) DeleteEntries(ctx context.Context, canvasID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM canvas_history WHERE canvas_id = $1`, canvasID)
	if err != nil {
		return fmt.Errorf("flowcanvas: delete history: %w", err)
	}
	return nil
}
