// Package chess resolves puzzle starting positions from game records and
// converts coordinate-format solutions into algebraic notation. Board
// state, legality, and SAN come from pgn/v3; this package adds the replay
// and annotation logic around it.
package chess

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// ErrMalformedGameRecord means a game record yielded no position at all:
// no FEN, no parseable move, nothing to replay. Partial parse failures do
// not produce this error; they degrade to a best-effort position.
var ErrMalformedGameRecord = errors.New("malformed game record")

// GameRecord is the game context a puzzle arrives with. At least one of
// FEN, PGN, or UCIMoves must be set. When FEN is set, replay starts from
// that position instead of the standard starting position.
type GameRecord struct {
	FEN      string
	PGN      string   // movetext like "1. e4 e5 2. Nf3 ..."
	UCIMoves []string // coordinate moves, e.g. from an offline dump
}

// moveNumberRegex matches move numbers like "1." or "12..."
var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

// Resolve replays the game record from its start and returns the position
// after exactly min(plyOffset, available plies) half-moves.
//
// Convention: plyOffset counts the plies played before the puzzle
// position, so the first solution move is made from the returned
// position. Records that carry one trailing ply past the offset (the
// off-by-one convention some payload variants use) are handled by
// construction, since replay stops at the offset and the extra ply is
// never applied.
func Resolve(record GameRecord, plyOffset int) (*pgn.GameState, error) {
	if plyOffset < 0 {
		return nil, fmt.Errorf("negative ply offset %d", plyOffset)
	}
	if record.FEN == "" && record.PGN == "" && len(record.UCIMoves) == 0 {
		return nil, fmt.Errorf("%w: empty record", ErrMalformedGameRecord)
	}

	pos := pgn.NewStartingPosition()
	if record.FEN != "" {
		p, err := pgn.NewGame(record.FEN)
		if err != nil {
			return nil, fmt.Errorf("%w: bad FEN %q: %v", ErrMalformedGameRecord, record.FEN, err)
		}
		pos = p
	}

	applied := 0
	switch {
	case len(record.UCIMoves) > 0:
		for _, u := range record.UCIMoves {
			if applied >= plyOffset {
				break
			}
			mv, ok := MatchLegal(pos, u)
			if !ok {
				break
			}
			if err := pgn.ApplyMove(pos, mv); err != nil {
				break
			}
			applied++
		}
	case record.PGN != "":
		applied = replayMovetext(pos, record.PGN, plyOffset)
	}

	// A record that is all moves and produced none of them is unusable.
	if record.FEN == "" && plyOffset > 0 && applied == 0 {
		return nil, fmt.Errorf("%w: no replayable moves", ErrMalformedGameRecord)
	}
	return pos, nil
}

// replayMovetext applies up to limit plies from PGN movetext, skipping
// tokens that do not parse as moves, and returns the number applied.
func replayMovetext(pos *pgn.GameState, movetext string, limit int) int {
	// Remove move numbers: "1. e4 e5 2. Nf3" -> "e4 e5 Nf3"
	cleaned := moveNumberRegex.ReplaceAllString(movetext, "")
	applied := 0
	for _, tok := range strings.Fields(cleaned) {
		if applied >= limit {
			break
		}
		if skipToken(tok) {
			continue
		}
		// Check/mate/annotation suffixes are not part of the move
		san := strings.TrimRight(tok, "+#!?")
		mv, err := pgn.ParseSAN(pos, san)
		if err != nil {
			continue
		}
		if err := pgn.ApplyMove(pos, mv); err != nil {
			continue
		}
		applied++
	}
	return applied
}

func skipToken(tok string) bool {
	if tok == "" || tok[0] == '$' || tok[0] == '{' || tok[0] == '}' || tok[0] == '(' || tok[0] == ')' {
		return true
	}
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}

// SideToMove reports "white" or "black" for a position.
func SideToMove(pos *pgn.GameState) string {
	if strings.Contains(pos.ToFEN(), " w ") {
		return "white"
	}
	return "black"
}
