package chess

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/freeeve/pgn/v3"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		movetext string
		offset   int
		uci      []string
		want     []string
	}{
		{
			name: "opening moves",
			uci:  []string{"e2e4", "e7e5", "g1f3"},
			want: []string{"e4", "e5", "Nf3"},
		},
		{
			name:     "mate gets the mate suffix",
			movetext: "1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6",
			offset:   6,
			uci:      []string{"h5f7"},
			want:     []string{"Qxf7#"},
		},
		{
			name:     "check gets the check suffix",
			movetext: "1. d4 c5 2. dxc5",
			offset:   3,
			uci:      []string{"d8a5"},
			want:     []string{"Qa5+"},
		},
		{
			name:     "castling",
			movetext: "1. e4 e5 2. Nf3 Nf6 3. Bc4 Bc5",
			offset:   6,
			uci:      []string{"e1g1"},
			want:     []string{"O-O"},
		},
		{
			name:     "pawn capture names the source file",
			movetext: "1. e4 d5",
			offset:   2,
			uci:      []string{"e4d5", "d8d5"},
			want:     []string{"exd5", "Qxd5"},
		},
		{
			name:     "piece capture",
			movetext: "1. e4 e5 2. Nf3 Nc6 3. Bb5 a6 4. Bxc6",
			offset:   7,
			uci:      []string{"d7c6"},
			want:     []string{"dxc6"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := pgn.NewStartingPosition()
			if tt.movetext != "" {
				p, err := Resolve(GameRecord{PGN: tt.movetext}, tt.offset)
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
				pos = p
			}
			got, err := Convert(pos, tt.uci)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Convert = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertPromotion(t *testing.T) {
	pos, err := Resolve(GameRecord{FEN: "8/P7/8/8/8/8/k6K/8 w - - 0 1"}, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, err := Convert(pos, []string{"a7a8q"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []string{"a8=Q+"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Convert = %v, want %v", got, want)
	}
}

func TestConvertDisambiguation(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		uci  []string
		want []string
	}{
		{
			name: "file disambiguation",
			// Knights on a8 and c8 both reach b6.
			fen:  "N1N5/8/8/8/8/8/8/k6K w - - 0 1",
			uci:  []string{"a8b6"},
			want: []string{"Nab6"},
		},
		{
			name: "rank disambiguation",
			// Rooks on a1 and a5 both reach a3.
			fen:  "8/7k/8/R7/8/8/8/R3K3 w - - 0 1",
			uci:  []string{"a1a3"},
			want: []string{"R1a3"},
		},
		{
			name: "no disambiguator when squares differ",
			fen:  "8/7k/8/R7/8/8/8/R3K3 w - - 0 1",
			uci:  []string{"a5b5"},
			want: []string{"Rb5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := Resolve(GameRecord{FEN: tt.fen}, 0)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			got, err := Convert(pos, tt.uci)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Convert = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertEnPassant(t *testing.T) {
	pos, err := Resolve(GameRecord{PGN: "1. e4 e6 2. e5 d5"}, 4)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, err := Convert(pos, []string{"e5d6"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	// The capture file is named even though the target square is empty.
	want := []string{"exd6"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Convert = %v, want %v", got, want)
	}
}

func TestConvertRoundTrip(t *testing.T) {
	// Replaying the produced notation must land on the same positions as
	// applying the original coordinate moves, ply by ply.
	uci := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5c6", "d7c6", "e1g1"}

	start := pgn.NewStartingPosition().Pack()
	san, err := Convert(start.Unpack(), uci)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(san) != len(uci) {
		t.Fatalf("converted %d of %d moves", len(san), len(uci))
	}

	byUCI := start.Unpack()
	bySAN := start.Unpack()
	for i := range uci {
		mv, ok := MatchLegal(byUCI, uci[i])
		if !ok {
			t.Fatalf("ply %d: %q not legal", i, uci[i])
		}
		if err := pgn.ApplyMove(byUCI, mv); err != nil {
			t.Fatalf("ply %d: apply %q: %v", i, uci[i], err)
		}

		parsed, err := pgn.ParseSAN(bySAN, strings.TrimRight(san[i], "+#"))
		if err != nil {
			t.Fatalf("ply %d: parse %q: %v", i, san[i], err)
		}
		if err := pgn.ApplyMove(bySAN, parsed); err != nil {
			t.Fatalf("ply %d: apply %q: %v", i, san[i], err)
		}

		if got, want := bySAN.ToFEN(), byUCI.ToFEN(); got != want {
			t.Fatalf("ply %d (%s): replayed position %q, want %q", i, san[i], got, want)
		}
	}
}

func TestConvertStopsAtIllegalMove(t *testing.T) {
	pos := pgn.NewStartingPosition()
	got, err := Convert(pos, []string{"e2e4", "e7e5", "e4e5"})

	var illegal *IllegalMoveError
	if !errors.As(err, &illegal) {
		t.Fatalf("Convert error = %v, want *IllegalMoveError", err)
	}
	if illegal.Index != 2 || illegal.Move != "e4e5" {
		t.Errorf("IllegalMoveError = %+v, want index 2 move e4e5", illegal)
	}
	want := []string{"e4", "e5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("partial conversion = %v, want %v", got, want)
	}
}

func TestConvertRejectsGarbage(t *testing.T) {
	pos := pgn.NewStartingPosition()
	if _, err := Convert(pos, []string{"zz99"}); err == nil {
		t.Error("Convert accepted a non-move")
	}
}

func TestConvertFromClonesMatches(t *testing.T) {
	// Convert advances the position it is given, so callers clone via
	// Pack/Unpack. Two clones of the same position must convert alike.
	pos, err := Resolve(GameRecord{PGN: "1. e4 e5 2. Nf3 Nc6"}, 4)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	packed := pos.Pack()

	first, err := Convert(packed.Unpack(), []string{"f1b5", "a7a6"})
	if err != nil {
		t.Fatalf("first Convert: %v", err)
	}
	second, err := Convert(packed.Unpack(), []string{"f1b5", "a7a6"})
	if err != nil {
		t.Fatalf("second Convert: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("conversions differ: %v vs %v", first, second)
	}
	if want := []string{"Bb5", "a6"}; !reflect.DeepEqual(first, want) {
		t.Errorf("Convert = %v, want %v", first, want)
	}
}

func TestUCIRendering(t *testing.T) {
	tests := []struct {
		name string
		mv   pgn.Mv
		want string
	}{
		{"pawn push", pgn.Mv{From: 12, To: 28}, "e2e4"},
		{"knight hop", pgn.Mv{From: 6, To: 21}, "g1f3"},
		{"promotion", pgn.Mv{From: 48, To: 56, Promo: pgn.PromoQueen}, "a7a8q"},
		{"underpromotion", pgn.Mv{From: 48, To: 56, Promo: pgn.PromoKnight}, "a7a8n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UCI(tt.mv); got != tt.want {
				t.Errorf("UCI = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatchLegalRejectsPseudoLegal(t *testing.T) {
	// The white rook on e2 is pinned against its king by the rook on e8.
	// Sideways moves leave the king in check and must not match; moves
	// along the pin stay legal.
	pos, err := Resolve(GameRecord{FEN: "4r1k1/8/8/8/8/8/4R3/4K3 w - - 0 1"}, 0)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := MatchLegal(pos, "e2c2"); ok {
		t.Error("MatchLegal accepted a move that leaves the king in check")
	}
	if _, ok := MatchLegal(pos, "e2e3"); !ok {
		t.Error("MatchLegal rejected a legal move along the pin")
	}
}
