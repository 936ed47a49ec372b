package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS canvas_history (
    id           TEXT PRIMARY KEY,
    canvas_id    TEXT NOT NULL,
    generator_id TEXT NOT NULL,
    model        TEXT NOT NULL DEFAULT '',
    result       JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_canvas_history_canvas ON canvas_history(canvas_id, created_at DESC);
`

// CreateSchema creates the canvas_history table if it doesn't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the canvas_history table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS canvas_history CASCADE;`)
	return err
}
