package puzzle

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/gosimple/slug"

	"github.com/chessdaily/puzzlefeed/internal/chess"
)

// Compose assembles the persisted puzzle and solution records from the
// resolved starting position and the converted solution. The position is
// serialized flat (a 64-character string), the side to move is stored as
// an explicit value, and the identifier is stable across re-runs on the
// same source puzzle.
func Compose(pos *pgn.GameState, san []string, title, description string, raw Raw, now time.Time) (Record, Solution) {
	id := StableID(raw)
	sourceID := raw.ID
	if sourceID == "" {
		sourceID = id
	}
	createdBy := raw.Source
	if createdBy == "" {
		createdBy = "Lichess"
	}
	now = now.UTC()

	rec := Record{
		ID:           id,
		PuzzleID:     sourceID,
		Title:        title,
		Slug:         slug.Make(title),
		Description:  description,
		Board:        SerializeBoard(pos),
		FirstMove:    chess.SideToMove(pos),
		CreatedAt:    now,
		CreatedBy:    createdBy,
		HasSolutions: len(san) > 0,
		Date:         now.Format("2006-01-02"),
	}
	sol := Solution{
		ID:          id,
		PuzzleID:    sourceID,
		Moves:       san,
		LastUpdated: now,
	}
	return rec, sol
}

// StableID returns the record identifier: the source's native id when
// present, otherwise a digest of the puzzle's defining fields. The same
// source puzzle always maps to the same id, which is what the dedup
// check relies on.
func StableID(raw Raw) string {
	if raw.ID != "" {
		return raw.ID
	}
	h := sha256.New()
	io.WriteString(h, raw.GameFEN)
	io.WriteString(h, "\x00")
	io.WriteString(h, raw.GamePGN)
	io.WriteString(h, "\x00")
	io.WriteString(h, strconv.Itoa(raw.InitialPly))
	for _, m := range raw.Solution {
		io.WriteString(h, "\x00")
		io.WriteString(h, m)
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// SerializeBoard flattens the position into the 64-character string the
// app renders: ranks 8 down to 1, files a to h, one piece letter per
// square, a space for an empty square. Flat by construction, which is
// what the store requires (no arrays of arrays).
func SerializeBoard(pos *pgn.GameState) string {
	fen := pos.ToFEN()
	board := fen
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		board = fen[:i]
	}

	var b strings.Builder
	b.Grow(64)
	for _, r := range board {
		switch {
		case r == '/':
		case r >= '1' && r <= '8':
			for i := 0; i < int(r-'0'); i++ {
				b.WriteByte(' ')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
