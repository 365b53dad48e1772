package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/chessdaily/puzzlefeed/internal/puzzle"
)

// Archive reads puzzles from a local copy of the Lichess puzzle database
// (lichess_db_puzzle.csv, optionally zstd-compressed as published). It
// returns the first row that fits the rating window and length limit,
// skipping the rest of the stream.
//
// Dump columns: PuzzleId, FEN, Moves, Rating, RatingDeviation,
// Popularity, NbPlays, Themes, GameUrl, OpeningTags. The FEN is the
// position before the opponent's last move; the first entry of Moves is
// that move and the solution proper starts one ply later.
type Archive struct {
	Path         string
	MinRating    int
	MaxRating    int
	MaxHalfMoves int // 0 = no length pre-filter
}

func (a *Archive) Next(ctx context.Context) (*puzzle.Raw, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(a.Path, ".zst") {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		defer zr.Close()
		r = zr
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	first := true
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := cr.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: no archived puzzle fits the filters", ErrSourceUnavailable)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == "PuzzleId" {
				continue // header
			}
		}
		if raw, ok := a.parseRow(row); ok {
			return raw, nil
		}
	}
}

func (a *Archive) parseRow(row []string) (*puzzle.Raw, bool) {
	if len(row) < 4 || row[0] == "" || row[1] == "" {
		return nil, false
	}
	rating, _ := strconv.Atoi(row[3])
	if a.MinRating > 0 && rating < a.MinRating {
		return nil, false
	}
	if a.MaxRating > 0 && rating > a.MaxRating {
		return nil, false
	}
	moves := strings.Fields(row[2])
	if len(moves) < 2 {
		return nil, false
	}
	if a.MaxHalfMoves > 0 && len(moves)-1 > a.MaxHalfMoves {
		return nil, false
	}
	return &puzzle.Raw{
		ID:         row[0],
		InitialPly: 1,
		Solution:   moves[1:],
		Rating:     rating,
		GameFEN:    row[1],
		GameMoves:  moves[:1],
		Source:     "Lichess",
	}, true
}
