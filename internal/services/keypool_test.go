package services

import "testing"

func TestNewKeyPool(t *testing.T) {
	tests := []struct {
		name       string
		userKeys   []string
		defaultKey string
		wantLen    int
		wantFirst  string
	}{
		{"user keys win", []string{"k1", "k2"}, "def", 2, "k1"},
		{"empty entries filtered", []string{"", "k1", ""}, "def", 1, "k1"},
		{"default fallback", nil, "def", 1, "def"},
		{"all empty", []string{"", ""}, "", 0, ""},
		{"nothing", nil, "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewKeyPool(tt.userKeys, tt.defaultKey)
			if pool.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", pool.Len(), tt.wantLen)
			}
			if pool.Current() != tt.wantFirst {
				t.Errorf("Current() = %q, want %q", pool.Current(), tt.wantFirst)
			}
		})
	}
}

func TestKeyPoolRotate(t *testing.T) {
	pool := NewKeyPool([]string{"k1", "k2", "k3"}, "")

	seen := []string{pool.Current()}
	for i := 0; i < 3; i++ {
		if !pool.Rotate() {
			t.Fatal("rotation must succeed with multiple keys")
		}
		seen = append(seen, pool.Current())
	}

	want := []string{"k1", "k2", "k3", "k1"}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("rotation order = %v, want %v", seen, want)
		}
	}
}

func TestKeyPoolRotateSingleKey(t *testing.T) {
	pool := NewKeyPool([]string{"only"}, "")
	if pool.Rotate() {
		t.Error("a single-key pool must not rotate")
	}
	if pool.Current() != "only" {
		t.Errorf("Current() = %q, want %q", pool.Current(), "only")
	}

	empty := NewKeyPool(nil, "")
	if empty.Rotate() {
		t.Error("an empty pool must not rotate")
	}
}
