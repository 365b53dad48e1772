// Package source provides puzzle sources: the Lichess API (by rating
// window or by theme) and the offline Lichess puzzle-database dump.
package source

import (
	"context"
	"errors"

	"github.com/chessdaily/puzzlefeed/internal/puzzle"
)

// ErrSourceUnavailable wraps connectivity-class source failures: the
// endpoint is unreachable, returns a non-success status, or the payload
// is missing required fields.
var ErrSourceUnavailable = errors.New("puzzle source unavailable")

// A Source produces one candidate puzzle per call. Candidates are raw:
// the pipeline still has to resolve, convert, and gate them.
type Source interface {
	Next(ctx context.Context) (*puzzle.Raw, error)
}
