package flowcanvas

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownNodeType = errors.New("flowcanvas: unknown node type")
	ErrInvalidPatch    = errors.New("flowcanvas: invalid patch")
	ErrNodeNotFound    = errors.New("flowcanvas: node not found")
	ErrDangling        = errors.New("flowcanvas: connection references missing node")
)

// HistoryEntry is one successful generator run.
type HistoryEntry struct {
	ID          string    `json:"id,omitempty"`
	CanvasID    string    `json:"canvas_id"`
	GeneratorID string    `json:"generator_id"`
	Model       string    `json:"model"`
	Result      Result    `json:"result"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryStore defines the contract for recording generation results.
type HistoryStore interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Entries
	AddEntry(ctx context.Context, e *HistoryEntry) (string, error)
	GetEntry(ctx context.Context, id string) (*HistoryEntry, error)
	ListEntries(ctx context.Context, canvasID string, limit int) ([]HistoryEntry, error)
	DeleteEntries(ctx context.Context, canvasID string) error
}
