package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/saga-engine/internal/engine"
	"github.com/jwebster45206/saga-engine/internal/services"
	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/combat"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnHandler accepts player actions and returns the resolved turn.
type TurnHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewTurnHandler(engine *engine.Engine, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		engine: engine,
		logger: logger,
	}
}

func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed"})
		return
	}

	var req chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid turn request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := req.Validate(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := h.engine.ProcessTurn(r.Context(), req, nil)
	if err != nil {
		h.writeTurnError(w, req, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Error encoding turn response", "error", err)
	}
}

func (h *TurnHandler) writeTurnError(w http.ResponseWriter, req chat.TurnRequest, err error) {
	var apiErr *services.APIError

	switch {
	case errors.Is(err, engine.ErrSaveNotFound):
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Save not found"})

	case errors.Is(err, engine.ErrTurnInProgress):
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "A turn is already being processed for this save"})

	case errors.Is(err, combat.ErrNoOpponent):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "No opponent available for combat"})

	case errors.Is(err, state.ErrInvalidTurnStructure):
		h.logger.Error("Turn resolution produced invalid structure", "save_id", req.SaveID, "error", err)
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "The storyteller returned an unusable response. Please retry."})

	case errors.As(err, &apiErr):
		h.logger.Error("Turn resolution failed upstream", "save_id", req.SaveID, "kind", apiErr.Kind, "error", err)
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "The storyteller is unavailable. Please retry."})

	default:
		h.logger.Error("Error processing turn", "save_id", req.SaveID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "Internal server error"})
	}
}
