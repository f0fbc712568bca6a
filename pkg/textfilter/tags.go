// Package textfilter handles the inline entity tags the narrative
// model embeds in story and summary text, e.g. "[NPC:Lan]" or
// "[LOC:Thanh Van Son]".
package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var tagPattern = regexp.MustCompile(`\[(NPC|PC|LOC|FACTION|MONSTER|ITEM|SKILL):([^\]\n]+)\]`)

// Tag is one parsed entity mention.
type Tag struct {
	Kind string // "NPC", "LOC", ...
	Name string
}

// ExtractTags returns every entity tag in the text, in order of
// appearance. Duplicate mentions are preserved.
func ExtractTags(text string) []Tag {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]Tag, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, Tag{Kind: m[1], Name: strings.TrimSpace(m[2])})
	}
	return tags
}

// StripTags replaces every entity tag with its bare name, leaving
// clean prose for display and tokenization.
func StripTags(text string) string {
	return tagPattern.ReplaceAllString(text, "$2")
}

var folder = cases.Fold()

// Fold lowercases text for case-insensitive comparison. Uses Unicode
// case folding so Vietnamese diacritics survive intact.
func Fold(text string) string {
	return folder.String(text)
}

// ContainsFold reports whether s contains substr under case folding.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
