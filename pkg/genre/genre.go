// Package genre defines the closed set of supported narrative genres.
// Every component that branches on genre goes through this package
// rather than matching raw strings.
package genre

import "strings"

// Genre selects the narrative ruleset, prompt template and auxiliary
// state-update logic for a session.
type Genre string

const (
	// Cultivation is the xianxia progression genre with sects,
	// stores, crafting and guilds.
	Cultivation Genre = "cultivation"
	// Fanfiction layers the story over an existing canon timeline
	// with a compatibility score.
	Fanfiction Genre = "fanfiction"
	// ModernLife tracks jobs and assets in a contemporary setting.
	ModernLife Genre = "modern_life"
	// Generic is the fallback for unrecognized genres.
	Generic Genre = "generic"
)

// All lists the supported genres, excluding the Generic fallback.
var All = []Genre{Cultivation, Fanfiction, ModernLife}

// Parse normalizes a raw genre string, falling back to Generic for
// anything unrecognized.
func Parse(raw string) Genre {
	switch Genre(strings.ToLower(strings.TrimSpace(raw))) {
	case Cultivation:
		return Cultivation
	case Fanfiction:
		return Fanfiction
	case ModernLife:
		return ModernLife
	default:
		return Generic
	}
}

// PromptKey returns the instruction-template key for the genre.
// Unrecognized genres use the generic template.
func (g Genre) PromptKey() string {
	switch g {
	case Cultivation, Fanfiction, ModernLife:
		return string(g)
	default:
		return string(Generic)
	}
}
