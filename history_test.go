package flowcanvas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("lists newest first with limit", func(t *testing.T) {
		h := NewMemoryHistory()
		for _, text := range []string{"one", "two", "three"} {
			_, err := h.AddEntry(ctx, &HistoryEntry{CanvasID: "c1", Result: Result{Text: text}})
			require.NoError(t, err)
		}
		_, err := h.AddEntry(ctx, &HistoryEntry{CanvasID: "c2", Result: Result{Text: "other"}})
		require.NoError(t, err)

		got, err := h.ListEntries(ctx, "c1", 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "three", got[0].Result.Text)
		assert.Equal(t, "two", got[1].Result.Text)
		assert.NotEmpty(t, got[0].ID)
		assert.False(t, got[0].CreatedAt.IsZero())
	})

	t.Run("empty canvas returns empty slice", func(t *testing.T) {
		h := NewMemoryHistory()
		got, err := h.ListEntries(ctx, "none", 0)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("delete is scoped to canvas", func(t *testing.T) {
		h := NewMemoryHistory()
		_, _ = h.AddEntry(ctx, &HistoryEntry{CanvasID: "c1"})
		_, _ = h.AddEntry(ctx, &HistoryEntry{CanvasID: "c2"})

		require.NoError(t, h.DeleteEntries(ctx, "c1"))
		c1, _ := h.ListEntries(ctx, "c1", 0)
		c2, _ := h.ListEntries(ctx, "c2", 0)
		assert.Empty(t, c1)
		assert.Len(t, c2, 1)
	})
	t.Run("get by id", func(t *testing.T) {
		h := NewMemoryHistory()
		id, err := h.AddEntry(ctx, &HistoryEntry{CanvasID: "c1", GeneratorID: "generator-1"})
		require.NoError(t, err)

		e, err := h.GetEntry(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Equal(t, "generator-1", e.GeneratorID)

		e, err = h.GetEntry(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, e)
	})
}
