package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/internal/storage"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// SaveHandler handles CRUD plus export/import for save files at
// /v1/saves, /v1/saves/{id}, /v1/saves/{id}/export and /v1/saves/import.
type SaveHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSaveHandler(storage storage.Storage, logger *slog.Logger) *SaveHandler {
	return &SaveHandler{
		storage: storage,
		logger:  logger,
	}
}

type CreateSaveRequest struct {
	Name       string               `json:"name,omitempty"`
	PlayerName string               `json:"player_name"`
	BaseStats  *state.Stats         `json:"base_stats,omitempty"`
	Settings   *state.WorldSettings `json:"settings"`
}

func (h *SaveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/saves"), "/")

	switch {
	case rest == "":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			h.methodNotAllowed(w)
		}

	case rest == "import":
		if r.Method != http.MethodPost {
			h.methodNotAllowed(w)
			return
		}
		h.handleImport(w, r)

	default:
		idPart, sub, _ := strings.Cut(rest, "/")
		id, err := uuid.Parse(idPart)
		if err != nil {
			h.logger.Warn("Invalid save id in path", "path", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid save ID"})
			return
		}

		switch {
		case sub == "export":
			if r.Method != http.MethodGet {
				h.methodNotAllowed(w)
				return
			}
			h.handleExport(w, r, id)
		case sub == "":
			switch r.Method {
			case http.MethodGet:
				h.handleGet(w, r, id)
			case http.MethodDelete:
				h.handleDelete(w, r, id)
			default:
				h.methodNotAllowed(w)
			}
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Not found"})
		}
	}
}

func (h *SaveHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.PlayerName == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "player_name is required"})
		return
	}
	if req.Settings == nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "settings is required"})
		return
	}

	player := &state.Character{Name: req.PlayerName}
	if req.BaseStats != nil {
		player.BaseStats = *req.BaseStats
	}
	gs := state.NewGameState(player)

	save := &state.SaveFile{
		ID:        gs.ID,
		Name:      req.Name,
		State:     gs,
		Settings:  req.Settings,
		UpdatedAt: time.Now(),
	}

	if err := h.storage.PutSave(r.Context(), save); err != nil {
		h.logger.Error("Error creating save", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to create save"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(save); err != nil {
		h.logger.Error("Error encoding save response", "error", err)
	}
}

func (h *SaveHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListSaves(r.Context())
	if err != nil {
		h.logger.Error("Error listing saves", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to list saves"})
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string][]uuid.UUID{"saves": ids})
}

func (h *SaveHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	save, err := h.storage.GetSave(r.Context(), id)
	if err != nil {
		h.logger.Error("Error loading save", "save_id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load save"})
		return
	}
	if save == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Save not found"})
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(save); err != nil {
		h.logger.Error("Error encoding save response", "error", err)
	}
}

func (h *SaveHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteSave(r.Context(), id); err != nil {
		h.logger.Error("Error deleting save", "save_id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to delete save"})
		return
	}
	if err := h.storage.DeleteMemoryChunks(r.Context(), id.String()); err != nil {
		h.logger.Warn("Error deleting memory chunks for save", "save_id", id, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SaveHandler) handleExport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	save, err := h.storage.GetSave(r.Context(), id)
	if err != nil {
		h.logger.Error("Error loading save for export", "save_id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to load save"})
		return
	}
	if save == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Save not found"})
		return
	}

	export, err := save.ForExport()
	if err != nil {
		h.logger.Error("Error preparing export", "save_id", id, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to export save"})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+id.String()+".json\"")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(export); err != nil {
		h.logger.Error("Error encoding export", "save_id", id, "error", err)
	}
}

func (h *SaveHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	var save state.SaveFile
	if err := json.NewDecoder(r.Body).Decode(&save); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid save document"})
		return
	}
	if save.State == nil || save.Settings == nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Save document must include state and settings"})
		return
	}
	if save.State.Character == nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Save document has no player character"})
		return
	}
	if save.ID == uuid.Nil {
		save.ID = save.State.ID
	}
	if save.ID == uuid.Nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Save document has no ID"})
		return
	}

	// Overwriting an existing save requires an explicit confirmation flag.
	existing, err := h.storage.GetSave(r.Context(), save.ID)
	if err != nil {
		h.logger.Error("Error checking for existing save", "save_id", save.ID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to import save"})
		return
	}
	if existing != nil && r.URL.Query().Get("overwrite") != "true" {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "A save with this ID already exists. Retry with ?overwrite=true to replace it."})
		return
	}

	save.State.Hydrate()
	save.UpdatedAt = time.Now()

	if err := h.storage.PutSave(r.Context(), &save); err != nil {
		h.logger.Error("Error importing save", "save_id", save.ID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to import save"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(&save); err != nil {
		h.logger.Error("Error encoding import response", "error", err)
	}
}

func (h *SaveHandler) methodNotAllowed(w http.ResponseWriter) {
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
}
