// Package engine is the session controller: it routes player actions
// through either the generative turn pipeline or the local combat
// resolver, owns the in-flight guard, and runs background memory
// summarization.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/internal/services"
	"github.com/jwebster45206/saga-engine/internal/storage"
	"github.com/jwebster45206/saga-engine/pkg/memory"
)

// ErrTurnInProgress is returned when a turn is submitted while another
// one is still being processed for the same save.
var ErrTurnInProgress = errors.New("a turn is already being processed for this save")

// ErrSaveNotFound is returned for unknown save IDs.
var ErrSaveNotFound = errors.New("save not found")

// Config carries the engine's tunables.
type Config struct {
	// ModelName is the primary narrative model.
	ModelName string
	// BackendModelName handles background work (summaries). Falls
	// back to ModelName when empty.
	BackendModelName string
	// AutoPinMemories controls whether turn-summary memories start
	// pinned.
	AutoPinMemories bool
}

// Engine processes turns for saves.
type Engine struct {
	storage  storage.Storage
	executor *services.Executor
	memIndex *memory.Index
	logger   *slog.Logger
	cfg      Config

	inFlightMu sync.Mutex
	inFlight   map[uuid.UUID]bool

	// Background summarization cancellation, one slot per save.
	bgMu     sync.Mutex
	bgCancel map[uuid.UUID]context.CancelFunc
}

// New creates an engine. The memory index is wired internally against
// the same storage and executor.
func New(store storage.Storage, executor *services.Executor, logger *slog.Logger, cfg Config) *Engine {
	e := &Engine{
		storage:  store,
		executor: executor,
		logger:   logger,
		cfg:      cfg,
		inFlight: make(map[uuid.UUID]bool),
		bgCancel: make(map[uuid.UUID]context.CancelFunc),
	}
	summarizer := &executorSummarizer{
		executor: executor,
		model:    cfg.BackendModelName,
	}
	if summarizer.model == "" {
		summarizer.model = cfg.ModelName
	}
	e.memIndex = memory.NewIndex(store, summarizer, logger)
	return e
}

// acquire marks a save as having a turn in flight. At most one turn
// per save may be processing; a second submission is rejected rather
// than queued.
func (e *Engine) acquire(id uuid.UUID) bool {
	e.inFlightMu.Lock()
	defer e.inFlightMu.Unlock()
	if e.inFlight[id] {
		return false
	}
	e.inFlight[id] = true
	return true
}

func (e *Engine) release(id uuid.UUID) {
	e.inFlightMu.Lock()
	defer e.inFlightMu.Unlock()
	delete(e.inFlight, id)
}

// Close cancels any background work.
func (e *Engine) Close() {
	e.bgMu.Lock()
	defer e.bgMu.Unlock()
	for id, cancel := range e.bgCancel {
		cancel()
		delete(e.bgCancel, id)
	}
}
