package memory

import (
	"strings"
	"unicode"

	"github.com/jwebster45206/saga-engine/pkg/textfilter"
)

// stopWords are high-frequency words excluded from keyword sets. The
// list mixes Vietnamese and English function words; tokenization
// itself is language-agnostic.
var stopWords = map[string]bool{
	// Vietnamese
	"và": true, "là": true, "của": true, "có": true, "không": true,
	"một": true, "những": true, "các": true, "được": true, "trong": true,
	"cho": true, "với": true, "này": true, "đã": true, "khi": true,
	"tôi": true, "bạn": true, "anh": true, "chị": true, "nhưng": true,
	"thì": true, "rất": true, "ra": true, "vào": true, "lại": true,
	"đến": true, "về": true, "như": true, "sẽ": true, "cũng": true,
	// English
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "into": true, "then": true, "they": true,
	"you": true, "your": true, "his": true, "her": true, "was": true,
	"are": true, "has": true, "have": true, "had": true, "but": true,
}

// Tokenize builds the keyword set for a piece of text: entity tags are
// reduced to their names, the text is case-folded, punctuation is
// stripped, and short or stop-listed words are dropped. The result
// preserves first-seen order and contains no duplicates.
func Tokenize(text string) []string {
	clean := textfilter.Fold(textfilter.StripTags(text))

	fields := strings.FieldsFunc(clean, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	var words []string
	for _, w := range fields {
		if len([]rune(w)) <= 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}

// QueryKeywords builds the retrieval keyword set for a player action:
// the tokenized query plus the name of every known entity whose name
// appears verbatim (case-insensitively) in the query text.
func QueryKeywords(query string, entityNames []string) []string {
	words := Tokenize(query)
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		seen[w] = true
	}
	for _, name := range entityNames {
		if name == "" || !textfilter.ContainsFold(query, name) {
			continue
		}
		folded := textfilter.Fold(name)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		words = append(words, folded)
	}
	return words
}

// Intersection counts how many chunk keywords appear in the query set.
func Intersection(chunkKeywords []string, querySet map[string]bool) int {
	n := 0
	for _, kw := range chunkKeywords {
		if querySet[kw] {
			n++
		}
	}
	return n
}
