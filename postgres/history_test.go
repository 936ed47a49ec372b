package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/flowcanvas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ flowcanvas.HistoryStore = (*PGStore)(nil)

func newStore(t *testing.T) *PGStore {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL is not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.CreateSchema(ctx))
	return s
}

func TestHistory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	canvas := "canvas-test-" + time.Now().Format("150405.000000000")
	t.Cleanup(func() { _ = s.DeleteEntries(context.Background(), canvas) })

	base := time.Now().UTC().Truncate(time.Millisecond)
	var ids []string
	for i, text := range []string{"one", "two", "three"} {
		id, err := s.AddEntry(ctx, &flowcanvas.HistoryEntry{
			CanvasID:    canvas,
			GeneratorID: "generator-1",
			Model:       "model-x",
			Result: flowcanvas.Result{
				Image: &flowcanvas.Image{Data: "QUJD", MimeType: "image/png"},
				Text:  text,
			},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	t.Run("get", func(t *testing.T) {
		e, err := s.GetEntry(ctx, ids[0])
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, "one", e.Result.Text)
		assert.Equal(t, "image/png", e.Result.Image.MimeType)
		assert.Equal(t, "model-x", e.Model)

		e, err = s.GetEntry(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, e)
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := s.ListEntries(ctx, canvas, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "three", all[0].Result.Text)

		two, err := s.ListEntries(ctx, canvas, 2)
		require.NoError(t, err)
		assert.Len(t, two, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.DeleteEntries(ctx, canvas))
		all, err := s.ListEntries(ctx, canvas, 0)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})
}
