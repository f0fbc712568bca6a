package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/pkg/memory"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Saves are deep-copied
// on the way in and out so tests cannot alias internal state.
type MockStorage struct {
	mu     sync.Mutex
	saves  map[uuid.UUID]*state.SaveFile
	chunks map[string][]memory.Chunk // save id -> chunks

	// Error hooks for failure-path tests.
	PingErr     error
	PutSaveErr  error
	GetSaveErr  error
	PutChunkErr error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		saves:  make(map[uuid.UUID]*state.SaveFile),
		chunks: make(map[string][]memory.Chunk),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error { return m.PingErr }
func (m *MockStorage) Close() error                   { return nil }

func (m *MockStorage) PutSave(ctx context.Context, save *state.SaveFile) error {
	if m.PutSaveErr != nil {
		return m.PutSaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := copySave(save)
	if err != nil {
		return err
	}
	m.saves[save.ID] = cp
	return nil
}

func (m *MockStorage) GetSave(ctx context.Context, id uuid.UUID) (*state.SaveFile, error) {
	if m.GetSaveErr != nil {
		return nil, m.GetSaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	save, ok := m.saves[id]
	if !ok {
		return nil, nil
	}
	cp, err := copySave(save)
	if err != nil {
		return nil, err
	}
	if cp.State != nil {
		cp.State.Hydrate()
	}
	return cp, nil
}

func (m *MockStorage) DeleteSave(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, id)
	return nil
}

func (m *MockStorage) ListSaves(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(m.saves))
	for id := range m.saves {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockStorage) PutMemoryChunk(ctx context.Context, chunk memory.Chunk) error {
	if m.PutChunkErr != nil {
		return m.PutChunkErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.chunks[chunk.SaveID]
	for i := range existing {
		if existing[i].ID == chunk.ID {
			existing[i] = chunk
			return nil
		}
	}
	m.chunks[chunk.SaveID] = append(existing, chunk)
	return nil
}

func (m *MockStorage) MemoryChunksBySave(ctx context.Context, saveID string) ([]memory.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]memory.Chunk(nil), m.chunks[saveID]...), nil
}

func (m *MockStorage) MemoryChunksByKeywords(ctx context.Context, saveID string, keywords []string) ([]memory.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		want[kw] = true
	}
	var result []memory.Chunk
	for _, chunk := range m.chunks[saveID] {
		for _, kw := range chunk.Keywords {
			if want[kw] {
				result = append(result, chunk)
				break
			}
		}
	}
	return result, nil
}

func (m *MockStorage) DeleteMemoryChunks(ctx context.Context, saveID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, saveID)
	return nil
}

func copySave(save *state.SaveFile) (*state.SaveFile, error) {
	cp := *save
	if save.State != nil {
		st, err := save.State.DeepCopy()
		if err != nil {
			return nil, err
		}
		cp.State = st
	}
	return &cp, nil
}
