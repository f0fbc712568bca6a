package memory

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "drops stop words and short words",
			text:     "The wolf and the hunter in a cave",
			expected: []string{"wolf", "hunter", "cave"},
		},
		{
			name:     "drops duplicates keeping first-seen order",
			text:     "sword sword shrine sword shrine",
			expected: []string{"sword", "shrine"},
		},
		{
			name:     "case folds",
			text:     "SHRINE Keeper",
			expected: []string{"shrine", "keeper"},
		},
		{
			name:     "reduces entity tags to names",
			text:     "[NPC:Lan] gave directions",
			expected: []string{"lan", "gave", "directions"},
		},
		{
			name:     "vietnamese stop words",
			text:     "Linh và Lan được vào thành phố",
			expected: []string{"linh", "lan", "thành", "phố"},
		},
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.text, got, tt.expected)
			}
		})
	}
}

func TestQueryKeywords_AddsMentionedEntities(t *testing.T) {
	got := QueryKeywords("ask the Shrine Keeper about the wolf",
		[]string{"Shrine Keeper", "Shadow Wolf", "Lan"})

	want := map[string]bool{}
	for _, kw := range got {
		want[kw] = true
	}

	if !want["shrine keeper"] {
		t.Errorf("expected mentioned entity name in keywords, got %v", got)
	}
	if want["shadow wolf"] || want["lan"] {
		t.Errorf("unmentioned entities must not be added, got %v", got)
	}
	if !want["wolf"] {
		t.Errorf("ordinary tokens must survive, got %v", got)
	}
}

func TestQueryKeywords_NoDuplicateEntityName(t *testing.T) {
	got := QueryKeywords("find lan", []string{"lan"})
	count := 0
	for _, kw := range got {
		if kw == "lan" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("entity name duplicated: %v", got)
	}
}

func TestIntersection(t *testing.T) {
	querySet := map[string]bool{"wolf": true, "shrine": true, "night": true}

	tests := []struct {
		name     string
		keywords []string
		expected int
	}{
		{"no overlap", []string{"market", "gold"}, 0},
		{"partial overlap", []string{"wolf", "market"}, 1},
		{"full overlap", []string{"wolf", "shrine", "night"}, 3},
		{"empty keywords", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersection(tt.keywords, querySet); got != tt.expected {
				t.Errorf("Intersection(%v) = %d, want %d", tt.keywords, got, tt.expected)
			}
		})
	}
}
