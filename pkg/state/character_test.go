package state

import (
	"fmt"
	"testing"
)

func TestCharacter_HydrateDerivesStats(t *testing.T) {
	c := &Character{
		ID:   "pc_linh",
		Name: "Linh",
		BaseStats: Stats{
			Strength: 12,
			Agility:  14,
		},
		// Stale derived stats from storage must be discarded.
		Stats: Stats{Strength: 99, Agility: 99},
		Equipment: map[string]Item{
			"weapon": {Name: "Iron Sword", Effects: Stats{Strength: 2}},
			"armor":  {Name: "Leather Vest", Effects: Stats{Agility: 1, Endurance: 3}},
		},
	}

	c.Hydrate()

	if c.Stats.Strength != 14 {
		t.Errorf("expected strength 14 (12 base + 2 weapon), got %d", c.Stats.Strength)
	}
	if c.Stats.Agility != 15 {
		t.Errorf("expected agility 15 (14 base + 1 armor), got %d", c.Stats.Agility)
	}
	if c.Stats.Endurance != 3 {
		t.Errorf("expected endurance 3 (0 base + 3 armor), got %d", c.Stats.Endurance)
	}
	if c.BaseStats.Strength != 12 {
		t.Errorf("base stats must not change on hydrate, got %d", c.BaseStats.Strength)
	}
}

func TestCharacter_HydrateIsIdempotent(t *testing.T) {
	c := &Character{
		ID:        "npc_1",
		BaseStats: Stats{Strength: 10},
		Equipment: map[string]Item{
			"weapon": {Name: "Staff", Effects: Stats{Strength: 1}},
		},
	}

	c.Hydrate()
	first := *c
	c.Hydrate()

	if c.Stats != first.Stats {
		t.Errorf("second hydrate changed stats: %+v vs %+v", c.Stats, first.Stats)
	}
	if c.Health != first.Health || c.MaxHealth != first.MaxHealth {
		t.Errorf("second hydrate changed health: %d/%d vs %d/%d",
			c.Health, c.MaxHealth, first.Health, first.MaxHealth)
	}
}

func TestCharacter_HydrateDefaults(t *testing.T) {
	c := &Character{ID: "npc_lan"}
	c.Hydrate()

	if c.Name != "npc_lan" {
		t.Errorf("expected name to default to id, got %q", c.Name)
	}
	if c.DisplayName != "npc_lan" {
		t.Errorf("expected display name to default to name, got %q", c.DisplayName)
	}
	if c.MaxHealth != 100 {
		t.Errorf("expected default max health 100, got %d", c.MaxHealth)
	}
	if c.Health != 100 {
		t.Errorf("expected health to fill to max, got %d", c.Health)
	}
}

func TestCharacter_HydrateKeepsZeroHealth(t *testing.T) {
	// A defeated character reloaded from storage must stay defeated.
	c := &Character{ID: "mon_wolf", Name: "Shadow Wolf", Health: 0, MaxHealth: 100}
	c.Hydrate()

	if c.Health != 0 {
		t.Errorf("health = %d, want 0 to survive hydration", c.Health)
	}
	if c.MaxHealth != 100 {
		t.Errorf("max health = %d, want 100", c.MaxHealth)
	}
}

func TestCharacter_HydrateClampsHealth(t *testing.T) {
	over := &Character{ID: "pc", Health: 150, MaxHealth: 100}
	over.Hydrate()
	if over.Health != 100 {
		t.Errorf("health = %d, want clamp to max 100", over.Health)
	}

	negative := &Character{ID: "pc", Health: -5, MaxHealth: 100}
	negative.Hydrate()
	if negative.Health != 0 {
		t.Errorf("health = %d, want clamp to 0", negative.Health)
	}
}

func TestCharacter_AddKeyMemoryEvictsOldest(t *testing.T) {
	c := &Character{ID: "pc"}
	for i := 0; i < MaxKeyMemories+5; i++ {
		c.AddKeyMemory(fmt.Sprintf("memory %d", i))
	}

	if len(c.KeyMemories) != MaxKeyMemories {
		t.Fatalf("expected %d memories, got %d", MaxKeyMemories, len(c.KeyMemories))
	}
	if c.KeyMemories[0] != "memory 5" {
		t.Errorf("expected oldest surviving memory to be %q, got %q", "memory 5", c.KeyMemories[0])
	}
	if c.KeyMemories[len(c.KeyMemories)-1] != fmt.Sprintf("memory %d", MaxKeyMemories+4) {
		t.Errorf("expected newest memory last, got %q", c.KeyMemories[len(c.KeyMemories)-1])
	}
}

func TestCharacter_AddKeyMemoryIgnoresEmpty(t *testing.T) {
	c := &Character{ID: "pc"}
	c.AddKeyMemory("")
	if len(c.KeyMemories) != 0 {
		t.Errorf("expected no memories, got %d", len(c.KeyMemories))
	}
}
