package prompts

import (
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// PromptState is a reduced game state for LLM prompts. Long free-text
// fields (backstory, descriptions, full turn history, rollback
// snapshots) are stripped so prompt size stays bounded regardless of
// how long the session has run.
type PromptState struct {
	Character  *PromptCharacter   `json:"character"`
	NPCs       []PromptCharacter  `json:"npcs,omitempty"`
	Monsters   []PromptCharacter  `json:"monsters,omitempty"`
	Locations  []string           `json:"locations,omitempty"`
	Factions   []string           `json:"factions,omitempty"`
	GameTime   state.GameTime     `json:"game_time"`
	Quests     []state.Quest      `json:"active_quests,omitempty"`
	Memories   []string           `json:"pinned_memories,omitempty"`
	InCombat   bool               `json:"in_combat,omitempty"`
	Combatants []string           `json:"combatants,omitempty"`
	SceneStep  int                `json:"scene_step,omitempty"`
	WorldState map[string]string  `json:"world_state,omitempty"`
	SectStores []state.Store      `json:"sect_stores,omitempty"`
	Guilds     []state.Guild      `json:"guilds,omitempty"`
	Jobs       []state.Job        `json:"jobs,omitempty"`
	Assets     []state.Asset      `json:"assets,omitempty"`
}

// PromptCharacter is the structurally relevant slice of a character:
// identity, stats, resources and mood, with descriptions and
// backstories removed.
type PromptCharacter struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Species     string                   `json:"species,omitempty"`
	Personality string                   `json:"personality,omitempty"`
	Stats       state.Stats              `json:"stats"`
	Health      int                      `json:"health"`
	MaxHealth   int                      `json:"max_health"`
	Qi          int                      `json:"qi,omitempty"`
	Money       int                      `json:"money,omitempty"`
	Stress      int                      `json:"stress,omitempty"`
	Mood        *state.Mood              `json:"mood,omitempty"`
	Equipment   map[string]string        `json:"equipment,omitempty"` // slot -> item name
	Skills      []state.Skill            `json:"skills,omitempty"`
	KeyMemories []string                 `json:"key_memories,omitempty"`
}

// ToPromptState projects a full game state down to its prompt form.
func ToPromptState(gs *state.GameState) *PromptState {
	ps := &PromptState{
		Character:  toPromptCharacter(gs.Character),
		GameTime:   gs.GameTime,
		InCombat:   gs.IsInCombat,
		Combatants: gs.Combatants,
		SceneStep:  gs.IntimateSceneStep,
		WorldState: gs.WorldState,
		SectStores: gs.SectStores,
		Guilds:     gs.Guilds,
		Jobs:       gs.Jobs,
		Assets:     gs.Assets,
	}

	for i := range gs.KnowledgeBase.NPCs {
		ps.NPCs = append(ps.NPCs, *toPromptCharacter(&gs.KnowledgeBase.NPCs[i]))
	}
	for i := range gs.KnowledgeBase.Monsters {
		ps.Monsters = append(ps.Monsters, *toPromptCharacter(&gs.KnowledgeBase.Monsters[i]))
	}
	for _, loc := range gs.KnowledgeBase.Locations {
		ps.Locations = append(ps.Locations, loc.DisplayName)
	}
	for _, f := range gs.KnowledgeBase.Factions {
		ps.Factions = append(ps.Factions, f.DisplayName)
	}

	for _, q := range gs.Quests {
		if q.Status == "" || q.Status == "active" {
			ps.Quests = append(ps.Quests, q)
		}
	}
	for _, m := range gs.Memories {
		if m.Pinned {
			ps.Memories = append(ps.Memories, m.Text)
		}
	}
	return ps
}

func toPromptCharacter(c *state.Character) *PromptCharacter {
	if c == nil {
		return nil
	}
	pc := &PromptCharacter{
		ID:          c.ID,
		Name:        c.DisplayName,
		Species:     c.Species,
		Personality: c.Personality,
		Stats:       c.Stats,
		Health:      c.Health,
		MaxHealth:   c.MaxHealth,
		Qi:          c.Qi,
		Money:       c.Money,
		Stress:      c.Stress,
		Mood:        c.Mood,
		Skills:      c.Skills,
		KeyMemories: c.KeyMemories,
	}
	if len(c.Equipment) > 0 {
		pc.Equipment = make(map[string]string, len(c.Equipment))
		for slot, item := range c.Equipment {
			pc.Equipment[slot] = item.Name
		}
	}
	return pc
}
