package puzzle

import "testing"

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		san  []string
		want string
	}{
		{"mate in one", []string{"Qxf7#"}, "Find the forced mate in 1 move."},
		{"mate in two", []string{"Qh5", "g6", "Qxg6#"}, "Find the forced mate in 2 moves."},
		{"mate in three", []string{"a", "b", "c", "d", "e", "Qg7#"}, "Find the forced mate in 3 moves."},
		{"check finish", []string{"Bb5", "a6", "Qa5+"}, "Use a check to force the win."},
		{"quiet finish", []string{"Nxd5", "exd5", "Bxd5"}, "Find the best move to gain a decisive advantage."},
		{"empty", nil, "Find the best move to solve the puzzle."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.san); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeTheme(t *testing.T) {
	tests := []struct {
		name  string
		theme string
		san   []string
		want  string
	}{
		{"mateIn1", "mateIn1", []string{"Qxf7#"}, "Find the forced checkmate in 1 move."},
		{"mateIn2", "mateIn2", nil, "Find the forced checkmate in 2 moves."},
		{"advantage", "advantage", nil, "Find the best sequence of moves to gain a decisive advantage."},
		{"unknown theme falls back", "endgame", []string{"Qxf7#"}, "Find the forced mate in 1 move."},
		{"mateIn with junk suffix falls back", "mateInX", nil, "Find the best move to solve the puzzle."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeTheme(tt.theme, tt.san); got != tt.want {
				t.Errorf("DescribeTheme = %q, want %q", got, tt.want)
			}
		})
	}
}
