package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/pkg/memory"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// Storage is the persistence boundary for the engine: saves keyed by
// id, and memory chunks with a per-save keyword index.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Save file operations
	PutSave(ctx context.Context, save *state.SaveFile) error
	GetSave(ctx context.Context, id uuid.UUID) (*state.SaveFile, error)
	DeleteSave(ctx context.Context, id uuid.UUID) error
	ListSaves(ctx context.Context) ([]uuid.UUID, error)

	// Memory chunk operations
	PutMemoryChunk(ctx context.Context, chunk memory.Chunk) error
	MemoryChunksBySave(ctx context.Context, saveID string) ([]memory.Chunk, error)
	MemoryChunksByKeywords(ctx context.Context, saveID string, keywords []string) ([]memory.Chunk, error)
	DeleteMemoryChunks(ctx context.Context, saveID string) error
}
