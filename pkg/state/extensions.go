package state

import (
	"github.com/jwebster45206/saga-engine/pkg/genre"
)

// extensions is the single dispatch table mapping each genre to its
// auxiliary delta step. Genres absent from the table (including
// Generic) perform no extra work.
var extensions = map[genre.Genre]ExtensionFunc{
	genre.Cultivation: applyCultivation,
	genre.Fanfiction:  applyFanfiction,
	genre.ModernLife:  applyModernLife,
}

// ExtensionFor returns the genre-specific apply step, or nil when the
// genre has none.
func ExtensionFor(g genre.Genre) ExtensionFunc {
	return extensions[g]
}

// applyCultivation merges store, crafting and guild records for the
// cultivation genre. Records are upserted by name.
func applyCultivation(gs *GameState, ws *WorldSettings, d *TurnDelta) error {
	for _, su := range d.StoreUpdates {
		if su.Name == "" {
			continue
		}
		updated := false
		for i := range gs.SectStores {
			if gs.SectStores[i].Name != su.Name {
				continue
			}
			if su.Owner != "" {
				gs.SectStores[i].Owner = su.Owner
			}
			if len(su.Items) > 0 {
				gs.SectStores[i].Items = su.Items
			}
			updated = true
			break
		}
		if !updated {
			gs.SectStores = append(gs.SectStores, Store{Name: su.Name, Owner: su.Owner, Items: su.Items})
		}
	}

	for _, gu := range d.GuildUpdates {
		if gu.Name == "" {
			continue
		}
		updated := false
		for i := range gs.Guilds {
			if gs.Guilds[i].Name != gu.Name {
				continue
			}
			if gu.Description != "" {
				gs.Guilds[i].Description = gu.Description
			}
			if gu.Rank != "" {
				gs.Guilds[i].Rank = gu.Rank
			}
			updated = true
			break
		}
		if !updated {
			gs.Guilds = append(gs.Guilds, Guild{Name: gu.Name, Description: gu.Description, Rank: gu.Rank})
		}
	}
	return nil
}

// applyFanfiction updates canon timeline status and the compatibility
// score, clamped to [0,100].
func applyFanfiction(gs *GameState, ws *WorldSettings, d *TurnDelta) error {
	if d.CanonUpdate == nil || ws == nil {
		return nil
	}
	if ws.Fanfic == nil {
		ws.Fanfic = &FanficSettings{CanonCompatibility: 100}
	}
	cu := d.CanonUpdate

	if cu.EventName != "" && cu.EventStatus != "" {
		for i := range ws.Fanfic.Timeline {
			if ws.Fanfic.Timeline[i].Name == cu.EventName {
				ws.Fanfic.Timeline[i].Status = cu.EventStatus
				break
			}
		}
	}

	score := ws.Fanfic.CanonCompatibility + cu.CompatibilityDelta
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	ws.Fanfic.CanonCompatibility = score

	if cu.InterventionPoints != 0 {
		ws.Fanfic.InterventionPoints += cu.InterventionPoints
		if ws.Fanfic.InterventionPoints < 0 {
			ws.Fanfic.InterventionPoints = 0
		}
	}
	return nil
}

// applyModernLife merges job and asset records, upserted by title and
// name respectively.
func applyModernLife(gs *GameState, ws *WorldSettings, d *TurnDelta) error {
	for _, ju := range d.JobUpdates {
		if ju.Title == "" {
			continue
		}
		updated := false
		for i := range gs.Jobs {
			if gs.Jobs[i].Title != ju.Title {
				continue
			}
			if ju.Employer != "" {
				gs.Jobs[i].Employer = ju.Employer
			}
			if ju.Salary != 0 {
				gs.Jobs[i].Salary = ju.Salary
			}
			if ju.Status != "" {
				gs.Jobs[i].Status = ju.Status
			}
			updated = true
			break
		}
		if !updated {
			gs.Jobs = append(gs.Jobs, Job{Title: ju.Title, Employer: ju.Employer, Salary: ju.Salary, Status: ju.Status})
		}
	}

	for _, au := range d.AssetUpdates {
		if au.Name == "" {
			continue
		}
		updated := false
		for i := range gs.Assets {
			if gs.Assets[i].Name != au.Name {
				continue
			}
			if au.Kind != "" {
				gs.Assets[i].Kind = au.Kind
			}
			gs.Assets[i].Value = au.Value
			updated = true
			break
		}
		if !updated {
			gs.Assets = append(gs.Assets, Asset{Name: au.Name, Kind: au.Kind, Value: au.Value})
		}
	}
	return nil
}
