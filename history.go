package flowcanvas

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryHistory implements HistoryStore in process memory. It is used by
// canvases that run without a database.
type MemoryHistory struct {
	mu      sync.Mutex
	entries []HistoryEntry
}

// NewMemoryHistory creates an empty in-memory history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (m *MemoryHistory) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards every entry.
func (m *MemoryHistory) DropSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// AddEntry stores a copy of e. Missing ID and CreatedAt are filled in on e.
func (m *MemoryHistory) AddEntry(ctx context.Context, e *HistoryEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return e.ID, nil
}

// GetEntry returns the entry with the given id, or nil, nil if not found.
func (m *MemoryHistory) GetEntry(ctx context.Context, id string) (*HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

// ListEntries returns a canvas's entries, newest first. A limit <= 0 means
// no limit. Returns an empty slice (not nil) if none found.
func (m *MemoryHistory) ListEntries(ctx context.Context, canvasID string, limit int) ([]HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []HistoryEntry{}
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].CanvasID != canvasID {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// DeleteEntries removes every entry of a canvas.
func (m *MemoryHistory) DeleteEntries(ctx context.Context, canvasID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = slices.DeleteFunc(m.entries, func(e HistoryEntry) bool {
		return e.CanvasID == canvasID
	})
	return nil
}
