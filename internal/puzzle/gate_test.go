package puzzle

import "testing"

func TestGateAccept(t *testing.T) {
	tests := []struct {
		name string
		gate Gate
		san  []string
		want bool
	}{
		{"six half-moves fit three full moves", Gate{MaxFullMoves: 3}, make([]string, 6), true},
		{"seven half-moves round up to four", Gate{MaxFullMoves: 3}, make([]string, 7), false},
		{"single move", Gate{MaxFullMoves: 3}, []string{"Qxf7#"}, true},
		{"empty solution", Gate{MaxFullMoves: 3}, nil, false},
		{"zero limit falls back to the default", Gate{}, make([]string, 6), true},
		{"tighter limit", Gate{MaxFullMoves: 1}, make([]string, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := tt.gate.Accept(tt.san)
			if got != tt.want {
				t.Errorf("Accept = %v (%q), want %v", got, reason, tt.want)
			}
			if !got && reason == "" {
				t.Error("rejection carried no reason")
			}
		})
	}
}

func TestGateMaxHalfMoves(t *testing.T) {
	if got := (Gate{MaxFullMoves: 3}).MaxHalfMoves(); got != 6 {
		t.Errorf("MaxHalfMoves = %d, want 6", got)
	}
	if got := (Gate{}).MaxHalfMoves(); got != DefaultMaxFullMoves*2 {
		t.Errorf("MaxHalfMoves = %d, want default %d", got, DefaultMaxFullMoves*2)
	}
}
