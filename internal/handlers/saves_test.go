package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/saga-engine/internal/storage"
	"github.com/jwebster45206/saga-engine/pkg/genre"
	"github.com/jwebster45206/saga-engine/pkg/memory"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

func newSaveFixture(t *testing.T) (*SaveHandler, *storage.MockStorage) {
	t.Helper()
	store := storage.NewMockStorage()
	return NewSaveHandler(store, handlerLogger()), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSaveHandler_Create(t *testing.T) {
	h, store := newSaveFixture(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/saves", CreateSaveRequest{
		Name:       "first journey",
		PlayerName: "Linh",
		BaseStats:  &state.Stats{Strength: 14, Agility: 12},
		Settings:   &state.WorldSettings{Genre: genre.Cultivation},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var created state.SaveFile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "first journey", created.Name)
	require.NotNil(t, created.State)
	assert.Equal(t, "Linh", created.State.Character.Name)
	assert.Equal(t, 14, created.State.Character.Stats.Strength)
	assert.Equal(t, genre.Cultivation, created.Settings.Genre)

	stored, err := store.GetSave(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestSaveHandler_CreateValidation(t *testing.T) {
	h, _ := newSaveFixture(t)

	tests := []struct {
		name string
		body CreateSaveRequest
	}{
		{"missing player name", CreateSaveRequest{Settings: &state.WorldSettings{}}},
		{"missing settings", CreateSaveRequest{PlayerName: "Linh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/v1/saves", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func seededSave(t *testing.T, store *storage.MockStorage) *state.SaveFile {
	t.Helper()
	gs := state.NewGameState(&state.Character{ID: "pc_linh", Name: "Linh"})
	gs.Turns = []state.Turn{{Story: "the journey begins"}}
	gs.History = []*state.GameState{{}}
	save := &state.SaveFile{
		ID:       gs.ID,
		Name:     "seeded",
		State:    gs,
		Settings: &state.WorldSettings{Genre: genre.Generic},
	}
	require.NoError(t, store.PutSave(context.Background(), save))
	return save
}

func TestSaveHandler_ListAndGet(t *testing.T) {
	h, store := newSaveFixture(t)
	save := seededSave(t, store)

	rec := doJSON(t, h, http.MethodGet, "/v1/saves", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list map[string][]uuid.UUID
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, []uuid.UUID{save.ID}, list["saves"])

	rec = doJSON(t, h, http.MethodGet, "/v1/saves/"+save.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got state.SaveFile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, save.ID, got.ID)
	assert.Equal(t, "seeded", got.Name)
}

func TestSaveHandler_ListEmpty(t *testing.T) {
	h, _ := newSaveFixture(t)

	rec := doJSON(t, h, http.MethodGet, "/v1/saves", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"saves": []}`, rec.Body.String())
}

func TestSaveHandler_GetNotFound(t *testing.T) {
	h, _ := newSaveFixture(t)
	rec := doJSON(t, h, http.MethodGet, "/v1/saves/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveHandler_BadID(t *testing.T) {
	h, _ := newSaveFixture(t)
	rec := doJSON(t, h, http.MethodGet, "/v1/saves/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveHandler_Delete(t *testing.T) {
	h, store := newSaveFixture(t)
	save := seededSave(t, store)
	require.NoError(t, store.PutMemoryChunk(context.Background(), memory.Chunk{
		ID:     memory.ChunkID(save.ID, 15),
		SaveID: save.ID.String(),
	}))

	rec := doJSON(t, h, http.MethodDelete, "/v1/saves/"+save.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stored, err := store.GetSave(context.Background(), save.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	chunks, err := store.MemoryChunksBySave(context.Background(), save.ID.String())
	require.NoError(t, err)
	assert.Empty(t, chunks, "deleting a save must drop its memory chunks")
}

func TestSaveHandler_Export(t *testing.T) {
	h, store := newSaveFixture(t)
	save := seededSave(t, store)

	rec := doJSON(t, h, http.MethodGet, "/v1/saves/"+save.ID.String()+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), save.ID.String()+".json")

	var exported state.SaveFile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&exported))
	require.NotNil(t, exported.State)
	assert.Len(t, exported.State.Turns, 1, "the transcript travels with the export")
	assert.Empty(t, exported.State.History, "rollback history is stripped from exports")
}

func TestSaveHandler_ImportNew(t *testing.T) {
	h, store := newSaveFixture(t)

	gs := state.NewGameState(&state.Character{ID: "pc_linh", Name: "Linh"})
	doc := state.SaveFile{
		ID:       gs.ID,
		Name:     "imported",
		State:    gs,
		Settings: &state.WorldSettings{Genre: genre.Generic},
	}

	rec := doJSON(t, h, http.MethodPost, "/v1/saves/import", doc)
	require.Equal(t, http.StatusCreated, rec.Code)

	stored, err := store.GetSave(context.Background(), gs.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "imported", stored.Name)
}

func TestSaveHandler_ImportConflict(t *testing.T) {
	h, store := newSaveFixture(t)
	save := seededSave(t, store)

	doc := state.SaveFile{
		ID:       save.ID,
		Name:     "replacement",
		State:    save.State,
		Settings: save.Settings,
	}

	rec := doJSON(t, h, http.MethodPost, "/v1/saves/import", doc)
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := store.GetSave(context.Background(), save.ID)
	require.NoError(t, err)
	assert.Equal(t, "seeded", stored.Name, "a rejected import must not replace the save")

	rec = doJSON(t, h, http.MethodPost, "/v1/saves/import?overwrite=true", doc)
	require.Equal(t, http.StatusCreated, rec.Code)

	stored, err = store.GetSave(context.Background(), save.ID)
	require.NoError(t, err)
	assert.Equal(t, "replacement", stored.Name)
}

func TestSaveHandler_ImportValidation(t *testing.T) {
	h, _ := newSaveFixture(t)

	rec := doJSON(t, h, http.MethodPost, "/v1/saves/import", state.SaveFile{
		Settings: &state.WorldSettings{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveHandler_ImportRequiresPlayerCharacter(t *testing.T) {
	h, store := newSaveFixture(t)

	gs := state.NewGameState(&state.Character{ID: "pc_linh", Name: "Linh"})
	gs.Character = nil
	doc := state.SaveFile{
		ID:       gs.ID,
		State:    gs,
		Settings: &state.WorldSettings{Genre: genre.Generic},
	}

	rec := doJSON(t, h, http.MethodPost, "/v1/saves/import", doc)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Error, "player character")

	stored, err := store.GetSave(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
