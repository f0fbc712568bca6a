package state

// Stats holds the numeric attributes shared by the player character,
// NPCs and monsters. Effective stats are always derived from BaseStats
// plus equipped item effects; see Character.Hydrate.
type Stats struct {
	Strength     int `json:"strength"`
	Agility      int `json:"agility"`
	Endurance    int `json:"endurance"`
	Intelligence int `json:"intelligence"`
	Willpower    int `json:"willpower"`
	Charisma     int `json:"charisma"`
}

// Add returns the component-wise sum of two stat blocks.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Strength:     s.Strength + o.Strength,
		Agility:      s.Agility + o.Agility,
		Endurance:    s.Endurance + o.Endurance,
		Intelligence: s.Intelligence + o.Intelligence,
		Willpower:    s.Willpower + o.Willpower,
		Charisma:     s.Charisma + o.Charisma,
	}
}

// Item is an object a character can hold or equip. Equipped items
// contribute their Effects to the owner's derived stats.
type Item struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Slot        string `json:"slot,omitempty"` // e.g. "weapon", "armor", "accessory"
	Effects     Stats  `json:"effects,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
}

// Skill is a learnable ability with progression tracking.
type Skill struct {
	Name    string `json:"name"`
	Level   int    `json:"level,omitempty"`
	XP      int    `json:"xp,omitempty"`
	Mastery string `json:"mastery,omitempty"` // e.g. "novice", "adept", "master"
	Talent  int    `json:"talent,omitempty"`  // innate aptitude multiplier
}

// Relationship describes how a character regards one other entity.
type Relationship struct {
	Closeness int      `json:"closeness"` // -100..100
	Influence int      `json:"influence"` // 0..100
	Flags     []string `json:"flags,omitempty"`
}

// Mood is the character's current emotional state.
type Mood struct {
	Current   string `json:"current,omitempty"`
	Intensity int    `json:"intensity,omitempty"` // 0..100
	Reason    string `json:"reason,omitempty"`
}

// MaxKeyMemories bounds the per-character key memory ring buffer.
const MaxKeyMemories = 15

// Character represents the player character or any NPC/monster in the
// knowledge base. BaseStats are the unmodified attributes; Stats are
// recomputed from BaseStats plus equipment on every hydration and must
// never be trusted from storage.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`

	Species     string `json:"species,omitempty"`
	Age         int    `json:"age,omitempty"`
	Personality string `json:"personality,omitempty"`
	Backstory   string `json:"backstory,omitempty"`

	BaseStats Stats `json:"base_stats"`
	Stats     Stats `json:"stats"`

	Equipment     map[string]Item          `json:"equipment,omitempty"` // slot -> item
	Inventory     []Item                   `json:"inventory,omitempty"`
	Skills        []Skill                  `json:"skills,omitempty"`
	Relationships map[string]*Relationship `json:"relationships,omitempty"` // entity id -> relationship
	Mood          *Mood                    `json:"mood,omitempty"`

	Health    int `json:"health"`
	MaxHealth int `json:"max_health"`
	Qi        int `json:"qi,omitempty"`
	MaxQi     int `json:"max_qi,omitempty"`
	Money     int `json:"money,omitempty"`
	Stress    int `json:"stress,omitempty"`

	KeyMemories []string `json:"key_memories,omitempty"`
}

// Hydrate fills defaults and recomputes derived fields. It is safe to
// call repeatedly: hydrating an already-hydrated character is a no-op.
func (c *Character) Hydrate() {
	if c == nil {
		return
	}
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.Name == "" {
		c.Name = "Unknown"
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Name
	}
	if c.Equipment == nil {
		c.Equipment = make(map[string]Item)
	}
	if c.Relationships == nil {
		c.Relationships = make(map[string]*Relationship)
	}

	// Effective stats are always base + equipment. Whatever was
	// persisted in Stats is discarded.
	derived := c.BaseStats
	for _, item := range c.Equipment {
		derived = derived.Add(item.Effects)
	}
	c.Stats = derived

	// Vitals are defaulted only for a character that has never carried
	// any: once MaxHealth is known, Health 0 means defeated and must
	// survive merges and reloads. Out-of-range values are clamped.
	if c.MaxHealth <= 0 {
		c.MaxHealth = 100
		if c.Health <= 0 {
			c.Health = c.MaxHealth
		}
	}
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
	if c.Health < 0 {
		c.Health = 0
	}
	if len(c.KeyMemories) > MaxKeyMemories {
		c.KeyMemories = c.KeyMemories[len(c.KeyMemories)-MaxKeyMemories:]
	}
}

// AddKeyMemory appends a memory, evicting the oldest entry when the
// ring exceeds MaxKeyMemories.
func (c *Character) AddKeyMemory(text string) {
	if text == "" {
		return
	}
	c.KeyMemories = append(c.KeyMemories, text)
	if len(c.KeyMemories) > MaxKeyMemories {
		c.KeyMemories = c.KeyMemories[len(c.KeyMemories)-MaxKeyMemories:]
	}
}

// Entity is a non-character world entity (location or faction).
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Hydrate fills name defaults, mirroring Character.Hydrate.
func (e *Entity) Hydrate() {
	if e == nil {
		return
	}
	if e.Name == "" {
		e.Name = e.ID
	}
	if e.Name == "" {
		e.Name = "Unknown"
	}
	if e.DisplayName == "" {
		e.DisplayName = e.Name
	}
}
