package chess

import (
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// IllegalMoveError reports the first coordinate move that failed the
// legality check, and its 0-based index in the solution sequence.
type IllegalMoveError struct {
	Index int
	Move  string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %q at index %d", e.Move, e.Index)
}

// Convert translates coordinate-format moves into algebraic notation,
// advancing pos as it goes. Conversion is strictly sequential: each SAN
// is only defined by the position the previous moves left behind, so the
// caller must hand in a fresh position per call.
//
// Legality is strict: a coordinate move must match a generated fully
// legal move by source square, destination square, and promotion piece.
// Pseudo-legal moves (right shape, own king left attacked) never match
// and stop conversion. On failure the SAN produced so far is returned
// together with an *IllegalMoveError naming the move and its index.
func Convert(pos *pgn.GameState, uciMoves []string) ([]string, error) {
	san := make([]string, 0, len(uciMoves))
	for i, u := range uciMoves {
		mv, ok := MatchLegal(pos, u)
		if !ok {
			return san, &IllegalMoveError{Index: i, Move: u}
		}
		notation := SAN(pos, mv)
		if err := pgn.ApplyMove(pos, mv); err != nil {
			return san, &IllegalMoveError{Index: i, Move: u}
		}
		san = append(san, notation+annotation(pos))
	}
	return san, nil
}

// MatchLegal finds the legal move equal to the given coordinate string,
// if any.
func MatchLegal(pos *pgn.GameState, uci string) (pgn.Mv, bool) {
	want := strings.ToLower(strings.TrimSpace(uci))
	for _, mv := range pgn.GenerateLegalMoves(pos) {
		if UCI(mv) == want {
			return mv, true
		}
	}
	return pgn.Mv{}, false
}

// SAN renders a legal move in standard algebraic notation from the
// position it is played in, without a check or mate suffix. Castling is
// flagged on the move itself; captures, promotions, and piece
// disambiguation come from the pre-move position.
func SAN(pos *pgn.GameState, mv pgn.Mv) string {
	if mv.Flags == 4 { // castling
		if mv.To > mv.From {
			return "O-O"
		}
		return "O-O-O"
	}

	files := "abcdefgh"
	ranks := "12345678"
	fromFile := int(mv.From) % 8
	fromRank := int(mv.From) / 8
	toFile := int(mv.To) % 8
	toRank := int(mv.To) / 8

	piece := pos.PieceAt(mv.From)
	isPawn := piece == 'P' || piece == 'p'
	// Flags == 2 marks en passant, where the target square is empty.
	isCapture := pos.PieceAt(mv.To) != 0 || (isPawn && mv.Flags == 2)

	if isPawn {
		var san string
		if isCapture {
			san = string(files[fromFile]) + "x" + string(files[toFile]) + string(ranks[toRank])
		} else {
			san = string(files[toFile]) + string(ranks[toRank])
		}
		switch mv.Promo {
		case pgn.PromoQueen:
			san += "=Q"
		case pgn.PromoRook:
			san += "=R"
		case pgn.PromoBishop:
			san += "=B"
		case pgn.PromoKnight:
			san += "=N"
		}
		return san
	}

	pieceChar := piece
	if piece >= 'a' && piece <= 'z' {
		pieceChar = piece - 32
	}
	san := string(pieceChar)

	// Another piece of the same type reaching the same square forces a
	// file, rank, or full-square disambiguator.
	disambig := ""
	for _, other := range pgn.GenerateLegalMoves(pos) {
		if other.To != mv.To || other.From == mv.From {
			continue
		}
		otherPiece := pos.PieceAt(other.From)
		otherUpper := otherPiece
		if otherPiece >= 'a' && otherPiece <= 'z' {
			otherUpper = otherPiece - 32
		}
		if otherUpper != pieceChar {
			continue
		}
		otherFromFile := int(other.From) % 8
		otherFromRank := int(other.From) / 8
		if fromFile != otherFromFile {
			disambig = string(files[fromFile])
		} else if fromRank != otherFromRank {
			disambig = string(ranks[fromRank])
		} else {
			disambig = string(files[fromFile]) + string(ranks[fromRank])
		}
		break
	}
	san += disambig

	if isCapture {
		san += "x"
	}
	return san + string(files[toFile]) + string(ranks[toRank])
}

// annotation returns "#" when the side to move is checkmated, "+" when
// merely in check. Called on the position after the move was applied.
func annotation(pos *pgn.GameState) string {
	if !pos.IsInCheck() {
		return ""
	}
	if len(pgn.GenerateLegalMoves(pos)) == 0 {
		return "#"
	}
	return "+"
}

// UCI renders a move in coordinate notation (e2e4, e7e8q).
func UCI(mv pgn.Mv) string {
	files := "abcdefgh"
	ranks := "12345678"

	s := string(files[mv.From%8]) + string(ranks[mv.From/8]) +
		string(files[mv.To%8]) + string(ranks[mv.To/8])

	switch mv.Promo {
	case pgn.PromoQueen:
		s += "q"
	case pgn.PromoRook:
		s += "r"
	case pgn.PromoBishop:
		s += "b"
	case pgn.PromoKnight:
		s += "n"
	}
	return s
}
