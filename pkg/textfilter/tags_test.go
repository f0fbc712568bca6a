package textfilter

import "testing"

func TestExtractTags(t *testing.T) {
	text := "[NPC:Lan] met [PC:Linh] at [LOC:Thanh Van Son], hunted by a [MONSTER:Shadow Wolf]."
	tags := ExtractTags(text)

	if len(tags) != 4 {
		t.Fatalf("expected 4 tags, got %d: %v", len(tags), tags)
	}
	if tags[0] != (Tag{Kind: "NPC", Name: "Lan"}) {
		t.Errorf("first tag = %+v", tags[0])
	}
	if tags[2] != (Tag{Kind: "LOC", Name: "Thanh Van Son"}) {
		t.Errorf("third tag = %+v", tags[2])
	}
	if tags[3].Name != "Shadow Wolf" {
		t.Errorf("monster name = %q", tags[3].Name)
	}
}

func TestExtractTags_NoTags(t *testing.T) {
	if tags := ExtractTags("plain prose with [brackets] but no tags"); tags != nil {
		t.Errorf("expected nil, got %v", tags)
	}
}

func TestExtractTags_DuplicatesPreserved(t *testing.T) {
	tags := ExtractTags("[NPC:Lan] spoke, and [NPC:Lan] laughed.")
	if len(tags) != 2 {
		t.Errorf("expected duplicates preserved, got %d", len(tags))
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"[NPC:Lan] waves.", "Lan waves."},
		{"Heading to [LOC:Thanh Van Son] now.", "Heading to Thanh Van Son now."},
		{"no tags here", "no tags here"},
		{"[ITEM:Qi Pill] and [SKILL:Sword Heart]", "Qi Pill and Sword Heart"},
	}
	for _, tt := range tests {
		if got := StripTags(tt.in); got != tt.expected {
			t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestContainsFold(t *testing.T) {
	tests := []struct {
		s, substr string
		expected  bool
	}{
		{"The Shadow Wolf lunges", "shadow wolf", true},
		{"Trường Giang chảy xiết", "trường giang", true},
		{"nothing here", "wolf", false},
		{"ĐẠI HỘI VÕ LÂM", "đại hội", true},
	}
	for _, tt := range tests {
		if got := ContainsFold(tt.s, tt.substr); got != tt.expected {
			t.Errorf("ContainsFold(%q, %q) = %v, want %v", tt.s, tt.substr, got, tt.expected)
		}
	}
}
