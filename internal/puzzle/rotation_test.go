package puzzle

import "testing"

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		last int
		n    int
		want int
	}{
		{"missing cursor starts at zero", -1, 16, 0},
		{"middle of the list", 4, 16, 5},
		{"wraps at the end", 15, 16, 0},
		{"stale index past a shrunk list wraps", 20, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Advance(Cursor{Name: TitleCursor, LastIndex: tt.last}, tt.n)
			if got.LastIndex != tt.want {
				t.Errorf("Advance(%d, %d) = %d, want %d", tt.last, tt.n, got.LastIndex, tt.want)
			}
		})
	}
}

func TestAdvanceFullCycle(t *testing.T) {
	// Every title gets used exactly once before any repeats.
	seen := make(map[int]bool)
	c := Cursor{Name: TitleCursor, LastIndex: -1}
	for i := 0; i < len(Titles); i++ {
		c = Advance(c, len(Titles))
		if seen[c.LastIndex] {
			t.Fatalf("index %d repeated after %d advances", c.LastIndex, i+1)
		}
		seen[c.LastIndex] = true
	}
	if len(seen) != len(Titles) {
		t.Errorf("cycle covered %d of %d titles", len(seen), len(Titles))
	}
}

func TestRotationLists(t *testing.T) {
	if len(Titles) != 16 {
		t.Errorf("len(Titles) = %d, want 16", len(Titles))
	}
	if len(Themes) != 4 {
		t.Errorf("len(Themes) = %d, want 4", len(Themes))
	}
}
