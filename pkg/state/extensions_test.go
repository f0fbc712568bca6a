package state

import (
	"testing"

	"github.com/jwebster45206/saga-engine/pkg/genre"
)

func TestExtensionFor(t *testing.T) {
	if ExtensionFor(genre.Cultivation) == nil {
		t.Error("cultivation should have an extension")
	}
	if ExtensionFor(genre.Fanfiction) == nil {
		t.Error("fanfiction should have an extension")
	}
	if ExtensionFor(genre.ModernLife) == nil {
		t.Error("modern life should have an extension")
	}
	if ExtensionFor(genre.Generic) != nil {
		t.Error("generic should have no extension")
	}
}

func TestApplyCultivation_UpsertsByName(t *testing.T) {
	gs := testGameState()
	gs.SectStores = []Store{{Name: "Azure Pavilion", Owner: "Old Wu"}}
	gs.Guilds = []Guild{{Name: "Iron Talisman Guild", Rank: "novice"}}

	d := &TurnDelta{
		StoreUpdates: []StoreUpdate{
			{Name: "Azure Pavilion", Items: []Item{{Name: "Qi Pill", Quantity: 3}}},
			{Name: "Red Lantern Stall", Owner: "Granny Su"},
		},
		GuildUpdates: []GuildUpdate{
			{Name: "Iron Talisman Guild", Rank: "adept"},
		},
	}

	if err := applyCultivation(gs, &WorldSettings{}, d); err != nil {
		t.Fatal(err)
	}

	if len(gs.SectStores) != 2 {
		t.Fatalf("expected 2 stores, got %d", len(gs.SectStores))
	}
	if gs.SectStores[0].Owner != "Old Wu" {
		t.Error("untouched store fields must survive an update")
	}
	if len(gs.SectStores[0].Items) != 1 || gs.SectStores[0].Items[0].Name != "Qi Pill" {
		t.Errorf("store items not updated: %+v", gs.SectStores[0].Items)
	}
	if gs.SectStores[1].Name != "Red Lantern Stall" {
		t.Errorf("new store not appended: %+v", gs.SectStores[1])
	}
	if gs.Guilds[0].Rank != "adept" {
		t.Errorf("guild rank = %q, want %q", gs.Guilds[0].Rank, "adept")
	}
}

func TestApplyFanfiction_CompatibilityClamped(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		delta    int
		expected int
	}{
		{"normal decrease", 80, -15, 65},
		{"floor at zero", 10, -50, 0},
		{"ceiling at hundred", 95, 20, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := testGameState()
			ws := &WorldSettings{
				Genre: genre.Fanfiction,
				Fanfic: &FanficSettings{
					CanonCompatibility: tt.start,
					Timeline: []CanonEvent{
						{Name: "The Tournament", Status: "pending"},
					},
				},
			}
			d := &TurnDelta{CanonUpdate: &CanonUpdate{
				EventName:          "The Tournament",
				EventStatus:        "diverged",
				CompatibilityDelta: tt.delta,
			}}

			if err := applyFanfiction(gs, ws, d); err != nil {
				t.Fatal(err)
			}
			if ws.Fanfic.CanonCompatibility != tt.expected {
				t.Errorf("compatibility = %d, want %d", ws.Fanfic.CanonCompatibility, tt.expected)
			}
			if ws.Fanfic.Timeline[0].Status != "diverged" {
				t.Errorf("timeline status = %q, want %q", ws.Fanfic.Timeline[0].Status, "diverged")
			}
		})
	}
}

func TestApplyFanfiction_InterventionPointsFloor(t *testing.T) {
	gs := testGameState()
	ws := &WorldSettings{Fanfic: &FanficSettings{CanonCompatibility: 50, InterventionPoints: 2}}
	d := &TurnDelta{CanonUpdate: &CanonUpdate{InterventionPoints: -5}}

	if err := applyFanfiction(gs, ws, d); err != nil {
		t.Fatal(err)
	}
	if ws.Fanfic.InterventionPoints != 0 {
		t.Errorf("intervention points = %d, want 0", ws.Fanfic.InterventionPoints)
	}
}

func TestApplyModernLife_UpsertsJobsAndAssets(t *testing.T) {
	gs := testGameState()
	gs.Jobs = []Job{{Title: "Barista", Employer: "Corner Cafe", Salary: 1800}}

	d := &TurnDelta{
		JobUpdates: []JobUpdate{
			{Title: "Barista", Status: "quit"},
			{Title: "Junior Developer", Employer: "Startup", Salary: 3200, Status: "active"},
		},
		AssetUpdates: []AssetUpdate{
			{Name: "Used Motorbike", Kind: "vehicle", Value: 900},
		},
	}

	if err := applyModernLife(gs, &WorldSettings{}, d); err != nil {
		t.Fatal(err)
	}

	if len(gs.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(gs.Jobs))
	}
	if gs.Jobs[0].Status != "quit" || gs.Jobs[0].Salary != 1800 {
		t.Errorf("job update wrong: %+v", gs.Jobs[0])
	}
	if len(gs.Assets) != 1 || gs.Assets[0].Value != 900 {
		t.Errorf("asset not added: %+v", gs.Assets)
	}
}
