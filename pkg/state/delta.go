package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTurnStructure indicates the model response violated the
// turn contract (missing narrative, actions or time cost). This is a
// contract violation, not a parsing hiccup: it is fatal for the turn
// and must never partially apply.
var ErrInvalidTurnStructure = errors.New("invalid turn structure")

// Combat status directives the model may emit.
const (
	CombatStart = "start"
	CombatEnd   = "end"
)

// Intimate-scene directives the model may emit.
const (
	SceneStart = "start"
	SceneStop  = "stop"
)

// CombatDirective is the model's instruction to enter or leave combat.
type CombatDirective struct {
	Status       string   `json:"status"` // "start" or "end"
	CombatantIDs []string `json:"combatant_ids,omitempty"`
}

// TurnSummary is the model's compressed account of the turn.
type TurnSummary struct {
	Text       string `json:"text"`
	WorldEvent string `json:"world_event,omitempty"`
}

// CharacterDelta is a partial-field update for one entity. Fields are
// deep-merged: nested objects merge key by key, arrays and scalars
// replace wholesale.
type CharacterDelta struct {
	EntityID string                 `json:"entity_id"`
	Fields   map[string]interface{} `json:"fields"`
}

// StoreUpdate adjusts or creates a merchant store (cultivation genre).
type StoreUpdate struct {
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	Items []Item `json:"items,omitempty"`
}

// GuildUpdate adjusts or creates a guild record (cultivation genre).
type GuildUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Rank        string `json:"rank,omitempty"`
}

// CanonUpdate adjusts the fanfiction timeline state.
type CanonUpdate struct {
	EventName          string `json:"event_name,omitempty"`
	EventStatus        string `json:"event_status,omitempty"`
	CompatibilityDelta int    `json:"compatibility_delta,omitempty"`
	InterventionPoints int    `json:"intervention_points,omitempty"`
}

// JobUpdate adjusts or creates a job record (modern-life genre).
type JobUpdate struct {
	Title    string `json:"title"`
	Employer string `json:"employer,omitempty"`
	Salary   int    `json:"salary,omitempty"`
	Status   string `json:"status,omitempty"`
}

// AssetUpdate adjusts or creates an asset record (modern-life genre).
type AssetUpdate struct {
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Value int    `json:"value,omitempty"`
}

// TurnDelta is the validated structured response for one turn. It is
// a compact description of changes, much faster for the model to
// generate than a full game state.
type TurnDelta struct {
	Story           string   `json:"story"`
	Actions         []string `json:"actions"`
	TimeCostMinutes *int     `json:"time_cost_minutes"`
	Weather         string   `json:"weather,omitempty"`

	NewNPCs      []Character `json:"new_npcs,omitempty"`
	NewLocations []Entity    `json:"new_locations,omitempty"`
	NewFactions  []Entity    `json:"new_factions,omitempty"`
	NewMonsters  []Character `json:"new_monsters,omitempty"`

	Combat        *CombatDirective `json:"combat,omitempty"`
	Summary       *TurnSummary     `json:"summary,omitempty"`
	IntimateScene string           `json:"intimate_scene,omitempty"` // "start", "stop" or empty

	NewQuests       []Quest          `json:"new_quests,omitempty"`
	CharacterDeltas []CharacterDelta `json:"character_deltas,omitempty"`

	StoreUpdates []StoreUpdate `json:"store_updates,omitempty"`
	GuildUpdates []GuildUpdate `json:"guild_updates,omitempty"`
	CanonUpdate  *CanonUpdate  `json:"canon_update,omitempty"`
	JobUpdates   []JobUpdate   `json:"job_updates,omitempty"`
	AssetUpdates []AssetUpdate `json:"asset_updates,omitempty"`
}

// ParseTurnDelta decodes the model's raw text into a TurnDelta.
// Markdown code fences around the JSON document are tolerated.
// A decode failure is a format error, distinct from the structural
// validation done by Validate.
func ParseTurnDelta(raw string) (*TurnDelta, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response body")
	}
	var delta TurnDelta
	if err := json.Unmarshal([]byte(cleaned), &delta); err != nil {
		return nil, fmt.Errorf("failed to parse turn response: %w", err)
	}
	return &delta, nil
}

// Validate checks the turn contract: a non-empty narrative, a
// non-empty action list and a numeric time cost. Any violation is
// ErrInvalidTurnStructure.
func (d *TurnDelta) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil delta", ErrInvalidTurnStructure)
	}
	if strings.TrimSpace(d.Story) == "" {
		return fmt.Errorf("%w: missing story", ErrInvalidTurnStructure)
	}
	if len(d.Actions) == 0 {
		return fmt.Errorf("%w: missing actions", ErrInvalidTurnStructure)
	}
	if d.TimeCostMinutes == nil {
		return fmt.Errorf("%w: missing time cost", ErrInvalidTurnStructure)
	}
	if *d.TimeCostMinutes < 0 {
		return fmt.Errorf("%w: negative time cost", ErrInvalidTurnStructure)
	}
	return nil
}

// StripCodeFences trims whitespace and removes a surrounding markdown
// code fence, with or without a language hint.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language hint line ("json" etc.).
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 8 && !strings.ContainsAny(first, "{}[]") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
