// Package puzzle holds the domain model of the normalization pipeline:
// raw source payloads, the acceptance rule, presentation metadata, and
// the storage-safe records the store persists.
package puzzle

import "time"

// Raw is the payload a puzzle source produces, before normalization.
// Immutable once fetched.
type Raw struct {
	ID         string   // source identifier, may be empty
	InitialPly int      // plies played before the puzzle position
	Solution   []string // coordinate-format solution moves
	Rating     int      // informational only
	GamePGN    string   // movetext of the source game
	GameFEN    string   // direct position, when the source supplies one
	GameMoves  []string // coordinate moves, when the source supplies them
	Theme      string   // source theme (e.g. "mateIn2"), when fetched by theme
	Source     string   // e.g. "Lichess"
}

// Record is the persisted puzzle document.
type Record struct {
	ID           string
	PuzzleID     string
	Title        string
	Slug         string
	Description  string
	Board        string // 64 chars, ranks 8..1, files a..h, space = empty
	FirstMove    string // "white" or "black"
	CreatedAt    time.Time
	CreatedBy    string
	HasSolutions bool
	Date         string // ISO day, e.g. "2026-08-28"
}

// Solution is the persisted solution document, keyed like its Record and
// retired together with it.
type Solution struct {
	ID          string
	PuzzleID    string
	Moves       []string // flat algebraic sequence, never nested
	LastUpdated time.Time
}
