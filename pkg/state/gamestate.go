package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/genre"
)

// Turn is one resolved exchange: a player action and the narrative and
// state changes it produced. Turns are immutable once appended.
type Turn struct {
	ID           uuid.UUID      `json:"id"`
	Story        string         `json:"story"`
	Messages     []chat.Message `json:"messages,omitempty"`
	ChosenAction string         `json:"chosen_action,omitempty"`
	TokenCount   int            `json:"token_count,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	WorldEvent   string         `json:"world_event,omitempty"`
}

// Memory is a short-term memory snippet extracted from a turn summary.
// Pinned memories are kept in prompts until the user unpins them.
type Memory struct {
	Text      string    `json:"text"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Quest tracks a goal given to the player.
type Quest struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"` // "active", "completed", "failed"
	Objectives  []string `json:"objectives,omitempty"`
}

// Store is a merchant inventory (cultivation genre).
type Store struct {
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	Items []Item `json:"items,omitempty"`
}

// Guild is an organization record (cultivation genre).
type Guild struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Rank        string   `json:"rank,omitempty"` // player's rank, empty if not a member
	Members     []string `json:"members,omitempty"`
}

// Job is an occupation record (modern-life genre).
type Job struct {
	Title    string `json:"title"`
	Employer string `json:"employer,omitempty"`
	Salary   int    `json:"salary,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Asset is an owned property or holding (modern-life genre).
type Asset struct {
	Name  string `json:"name"`
	Kind  string `json:"kind,omitempty"`
	Value int    `json:"value,omitempty"`
}

// CanonEvent is one entry in a fanfiction canon timeline.
type CanonEvent struct {
	Name   string `json:"name"`
	Time   string `json:"time,omitempty"`
	Status string `json:"status,omitempty"` // "pending", "occurred", "diverged"
}

// KnowledgeBase holds every non-player entity known to the session,
// grouped by kind. Lists are append-only except for in-place edits.
type KnowledgeBase struct {
	NPCs      []Character `json:"npcs,omitempty"`
	Locations []Entity    `json:"locations,omitempty"`
	Factions  []Entity    `json:"factions,omitempty"`
	Monsters  []Character `json:"monsters,omitempty"`
	PCs       []Character `json:"pcs,omitempty"`
}

// FanficSettings is the fanfiction-genre world configuration.
type FanficSettings struct {
	SourceWork         string       `json:"source_work,omitempty"`
	CanonCompatibility int          `json:"canon_compatibility"` // 0..100
	InterventionPoints int          `json:"intervention_points,omitempty"`
	Timeline           []CanonEvent `json:"timeline,omitempty"`
}

// WorldSettings is the configuration chosen at world creation. It is
// mostly immutable during play; small increments (canon compatibility,
// intervention points) arrive through the same delta mechanism as
// game state.
type WorldSettings struct {
	Genre          genre.Genre     `json:"genre"`
	Setting        string          `json:"setting,omitempty"`
	Difficulty     string          `json:"difficulty,omitempty"`
	NarrativeVoice string          `json:"narrative_voice,omitempty"`
	WritingStyle   string          `json:"writing_style,omitempty"`
	LoreRules      []string        `json:"lore_rules,omitempty"`
	Fanfic         *FanficSettings `json:"fanfic,omitempty"`
}

// GameState is the root aggregate for one play session. The engine
// holds a single live instance; every applied turn produces a new
// value and pushes the previous one onto History.
type GameState struct {
	ID        uuid.UUID  `json:"id"`
	Character *Character `json:"character"`

	KnowledgeBase KnowledgeBase `json:"knowledge_base"`

	Turns    []Turn   `json:"turns,omitempty"`
	Actions  []string `json:"actions,omitempty"`
	Memories []Memory `json:"memories,omitempty"`

	// History holds snapshots of prior states for rollback. It is
	// stripped at export time.
	History []*GameState `json:"history,omitempty"`

	GameTime GameTime `json:"game_time"`

	IsInCombat       bool     `json:"is_in_combat"`
	Combatants       []string `json:"combatants,omitempty"` // entity IDs, player first
	CombatTurnNumber int      `json:"combat_turn_number,omitempty"`
	CombatLog        []string `json:"combat_log,omitempty"`

	IsIntimateScene   bool `json:"is_intimate_scene,omitempty"`
	IntimateSceneStep int  `json:"intimate_scene_step,omitempty"`

	Quests     []Quest           `json:"quests,omitempty"`
	SectStores []Store           `json:"sect_stores,omitempty"`
	Guilds     []Guild           `json:"guilds,omitempty"`
	Jobs       []Job             `json:"jobs,omitempty"`
	Assets     []Asset           `json:"assets,omitempty"`
	WorldState map[string]string `json:"world_state,omitempty"`

	TotalTokens int `json:"total_tokens"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewGameState creates a fresh session state for the given player
// character.
func NewGameState(player *Character) *GameState {
	gs := &GameState{
		ID:        uuid.New(),
		Character: player,
		GameTime:  NewGameTime(),
		CreatedAt: time.Now(),
	}
	gs.Hydrate()
	return gs
}

// Hydrate normalizes a state loaded from storage: fills defaults on
// every entity and recomputes all derived character stats. Safe to
// call repeatedly.
func (gs *GameState) Hydrate() {
	if gs == nil {
		return
	}
	gs.Character.Hydrate()
	for i := range gs.KnowledgeBase.NPCs {
		gs.KnowledgeBase.NPCs[i].Hydrate()
	}
	for i := range gs.KnowledgeBase.Monsters {
		gs.KnowledgeBase.Monsters[i].Hydrate()
	}
	for i := range gs.KnowledgeBase.PCs {
		gs.KnowledgeBase.PCs[i].Hydrate()
	}
	for i := range gs.KnowledgeBase.Locations {
		gs.KnowledgeBase.Locations[i].Hydrate()
	}
	for i := range gs.KnowledgeBase.Factions {
		gs.KnowledgeBase.Factions[i].Hydrate()
	}
	if !gs.IsInCombat {
		gs.Combatants = nil
	}
}

// DeepCopy returns an independent copy of the game state via a JSON
// round trip.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gamestate: %w", err)
	}
	var cp GameState
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &cp, nil
}

// FindCharacter locates the player or a knowledge-base character by
// entity ID. Returns nil if no match.
func (gs *GameState) FindCharacter(id string) *Character {
	if id == "" {
		return nil
	}
	if gs.Character != nil && gs.Character.ID == id {
		return gs.Character
	}
	for i := range gs.KnowledgeBase.NPCs {
		if gs.KnowledgeBase.NPCs[i].ID == id {
			return &gs.KnowledgeBase.NPCs[i]
		}
	}
	for i := range gs.KnowledgeBase.Monsters {
		if gs.KnowledgeBase.Monsters[i].ID == id {
			return &gs.KnowledgeBase.Monsters[i]
		}
	}
	for i := range gs.KnowledgeBase.PCs {
		if gs.KnowledgeBase.PCs[i].ID == id {
			return &gs.KnowledgeBase.PCs[i]
		}
	}
	return nil
}

// FindCharacterByName locates a knowledge-base character by name or
// display name, case-sensitive.
func (gs *GameState) FindCharacterByName(name string) *Character {
	if name == "" {
		return nil
	}
	if gs.Character != nil && (gs.Character.Name == name || gs.Character.DisplayName == name) {
		return gs.Character
	}
	for i := range gs.KnowledgeBase.NPCs {
		if gs.KnowledgeBase.NPCs[i].Name == name || gs.KnowledgeBase.NPCs[i].DisplayName == name {
			return &gs.KnowledgeBase.NPCs[i]
		}
	}
	for i := range gs.KnowledgeBase.Monsters {
		if gs.KnowledgeBase.Monsters[i].Name == name || gs.KnowledgeBase.Monsters[i].DisplayName == name {
			return &gs.KnowledgeBase.Monsters[i]
		}
	}
	return nil
}

// EntityNames returns the names and display names of every known
// character entity, used for best-effort matching against narrative
// text.
func (gs *GameState) EntityNames() []string {
	var names []string
	add := func(c *Character) {
		if c.Name != "" {
			names = append(names, c.Name)
		}
		if c.DisplayName != "" && c.DisplayName != c.Name {
			names = append(names, c.DisplayName)
		}
	}
	for i := range gs.KnowledgeBase.NPCs {
		add(&gs.KnowledgeBase.NPCs[i])
	}
	for i := range gs.KnowledgeBase.Monsters {
		add(&gs.KnowledgeBase.Monsters[i])
	}
	for i := range gs.KnowledgeBase.PCs {
		add(&gs.KnowledgeBase.PCs[i])
	}
	return names
}

// SaveFile is the exportable unit of persistence: one game state plus
// its world settings.
type SaveFile struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name,omitempty"`
	State     *GameState     `json:"state"`
	Settings  *WorldSettings `json:"settings"`
	UpdatedAt time.Time      `json:"updated_at,omitempty"`
}

// ForExport returns a copy of the save with rollback history stripped,
// suitable for a self-contained archive.
func (sf *SaveFile) ForExport() (*SaveFile, error) {
	if sf.State == nil {
		return nil, fmt.Errorf("save has no state")
	}
	cp, err := sf.State.DeepCopy()
	if err != nil {
		return nil, err
	}
	cp.History = nil
	return &SaveFile{
		ID:        sf.ID,
		Name:      sf.Name,
		State:     cp,
		Settings:  sf.Settings,
		UpdatedAt: sf.UpdatedAt,
	}, nil
}
