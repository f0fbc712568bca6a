package prompts

import "github.com/jwebster45206/saga-engine/pkg/genre"

// BaseSystemPrompt opens every turn prompt regardless of genre.
const BaseSystemPrompt = `You are the narrator of an interactive fiction game. ` +
	`Continue the story from the player's action, keeping strict consistency ` +
	`with the game state you are given. Mark every entity mention in summaries ` +
	`with tags like [NPC:Name], [LOC:Name], [FACTION:Name] or [MONSTER:Name].`

// ResponseContract instructs the model on the required response shape.
// The same structure is enforced again by schema and by local
// validation after parse.
const ResponseContract = `Respond with a single JSON object containing at minimum: ` +
	`"story" (the narrative for this turn), "actions" (4 suggested next actions), ` +
	`and "time_cost_minutes" (integer minutes the action took). Optional fields: ` +
	`"weather", "new_npcs", "new_locations", "new_factions", "new_monsters", ` +
	`"combat" {"status","combatant_ids"}, "summary" {"text","world_event"}, ` +
	`"intimate_scene", "new_quests", "character_deltas", "store_updates", ` +
	`"guild_updates", "canon_update", "job_updates", "asset_updates". ` +
	`Do not wrap the JSON in markdown fences.`

// NoMemoryMarker is injected when retrieval finds nothing relevant, so
// the model does not invent past events.
const NoMemoryMarker = "No relevant long-term memory for this action."

// genreTemplates maps a genre prompt key to its instruction template.
// Template wording is intentionally minimal; the mechanics live in the
// structured contract, not the prose.
var genreTemplates = map[string]string{
	"cultivation": `The world is a xianxia cultivation setting. Track qi, ` +
		`cultivation realms, sects, sect stores, crafting and guilds. Use ` +
		`"store_updates" and "guild_updates" for merchant and guild changes.`,
	"fanfiction": `The story is fanfiction layered over an existing canon. ` +
		`Respect the canon timeline in the world settings. Report divergence ` +
		`through "canon_update" with a compatibility delta.`,
	"modern_life": `The setting is contemporary daily life. Track jobs, ` +
		`income and owned assets. Use "job_updates" and "asset_updates".`,
	"generic": `Keep the tone and rules implied by the world settings.`,
}

// TemplateFor returns the instruction template for a genre, falling
// back to the generic template.
func TemplateFor(g genre.Genre) string {
	if t, ok := genreTemplates[g.PromptKey()]; ok {
		return t
	}
	return genreTemplates["generic"]
}

// SummarySystemPrompt drives the background memory-chunk
// summarization call.
const SummarySystemPrompt = `Summarize the following game transcript in a short ` +
	`paragraph, then list 5 to 10 lowercase keywords capturing its people, places ` +
	`and events. Respond with a JSON object {"summary": "...", "keywords": [...]}.`

// TurnResponseSchema is the structural contract sent to backends that
// support schema-constrained output. Local validation re-checks the
// required fields regardless.
func TurnResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"story":             map[string]interface{}{"type": "string"},
			"actions":           map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
			"time_cost_minutes": map[string]interface{}{"type": "integer"},
			"weather":           map[string]interface{}{"type": "string"},
			"summary": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":        map[string]interface{}{"type": "string"},
					"world_event": map[string]interface{}{"type": "string"},
				},
			},
			"combat": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"status":        map[string]interface{}{"type": "string", "enum": []string{"start", "end"}},
					"combatant_ids": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
				},
			},
		},
		"required": []string{"story", "actions", "time_cost_minutes"},
	}
}

// SummaryResponseSchema constrains the memory summarization response.
func SummaryResponseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"summary": map[string]interface{}{"type": "string"},
			"keywords": map[string]interface{}{
				"type":     "array",
				"items":    map[string]interface{}{"type": "string"},
				"minItems": 5,
				"maxItems": 10,
			},
		},
		"required": []string{"summary", "keywords"},
	}
}
