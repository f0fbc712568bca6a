package chat

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	RoleUser   = "user"
	RoleModel  = "model" // narrator response
	RoleSystem = "system"
)

// Message is a single prompt message sent to or received from the
// generative backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest is a player action submitted against a save.
type TurnRequest struct {
	SaveID uuid.UUID `json:"save_id"`
	Action string    `json:"action"`
}

func (tr *TurnRequest) Validate() error {
	if tr.SaveID == uuid.Nil {
		return fmt.Errorf("save_id is required")
	}
	if tr.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}

// TurnResponse is the visible result of a resolved turn.
type TurnResponse struct {
	SaveID     uuid.UUID `json:"save_id"`
	Story      string    `json:"story"`
	Actions    []string  `json:"actions,omitempty"`
	InCombat   bool      `json:"in_combat"`
	CombatLog  []string  `json:"combat_log,omitempty"`
	TokenCount int       `json:"token_count,omitempty"`
}
