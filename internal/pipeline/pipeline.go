// Package pipeline drives one upload cycle: fetch a candidate puzzle,
// normalize its solution into standard notation, gate it on length,
// attach rotating metadata and write it to the store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"

	"github.com/chessdaily/puzzlefeed/internal/chess"
	"github.com/chessdaily/puzzlefeed/internal/puzzle"
	"github.com/chessdaily/puzzlefeed/internal/source"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, rec puzzle.Record, sol puzzle.Solution) error
	Retire(ctx context.Context, olderThan time.Time) (int, error)
	AdvanceCursor(ctx context.Context, name string, n int) (int, error)
}

// Verifier optionally checks the solution's first move against an
// engine before upload.
type Verifier interface {
	Agrees(pos *pgn.GameState, firstMove string) (bool, error)
}

// Outcome classifies how a run ended.
type Outcome int

const (
	OutcomeUploaded Outcome = iota
	OutcomeDuplicate
	OutcomeSkipped
	OutcomeSourceFailed
	OutcomeMalformedGame
	OutcomeStoreFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSourceFailed:
		return "source failed"
	case OutcomeMalformedGame:
		return "malformed game"
	case OutcomeStoreFailed:
		return "store failed"
	}
	return "unknown"
}

// ErrNoSuitablePuzzle means every fetched candidate was rejected before
// the attempt budget ran out.
var ErrNoSuitablePuzzle = errors.New("no suitable puzzle found")

// Config wires a pipeline run.
type Config struct {
	Source source.Source
	Store  Store

	// Verifier is optional. When set, a disagreement is logged; with
	// VerifyStrict it also rejects the candidate.
	Verifier     Verifier
	VerifyStrict bool

	Logger zerolog.Logger

	MaxFullMoves  int           // solution length cap, default puzzle.DefaultMaxFullMoves
	MaxAttempts   int           // fetch attempts before giving up, default 10
	AttemptDelay  time.Duration // pause between fetch attempts, default 2s
	RetentionDays int           // puzzles older than this are retired, default 30

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Pipeline runs upload cycles against a source and a store.
type Pipeline struct {
	cfg  Config
	gate puzzle.Gate
	log  zerolog.Logger
}

// New validates the config and applies defaults.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("pipeline: source required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("pipeline: store required")
	}
	if cfg.MaxFullMoves == 0 {
		cfg.MaxFullMoves = puzzle.DefaultMaxFullMoves
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.AttemptDelay == 0 {
		cfg.AttemptDelay = 2 * time.Second
	}
	if cfg.RetentionDays == 0 {
		cfg.RetentionDays = 30
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pipeline{
		cfg:  cfg,
		gate: puzzle.Gate{MaxFullMoves: cfg.MaxFullMoves},
		log:  cfg.Logger,
	}, nil
}

// Run executes one cycle and reports how it ended. Only store failures
// and malformed games are also returned as errors; rejection outcomes
// carry ErrNoSuitablePuzzle so callers can distinguish "nothing good
// today" from breakage.
func (p *Pipeline) Run(ctx context.Context) (Outcome, error) {
	now := p.cfg.Now()

	// Retirement first so a full store never blocks new uploads.
	cutoff := now.AddDate(0, 0, -p.cfg.RetentionDays)
	if retired, err := p.cfg.Store.Retire(ctx, cutoff); err != nil {
		p.log.Error().Err(err).Msg("retirement pass failed, continuing")
	} else if retired > 0 {
		p.log.Info().Int("count", retired).Msg("retired old puzzles")
	}

	raw, err := p.fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSuitablePuzzle) {
			return OutcomeSkipped, err
		}
		return OutcomeSourceFailed, err
	}

	pos, err := chess.Resolve(chess.GameRecord{
		FEN:      raw.GameFEN,
		PGN:      raw.GamePGN,
		UCIMoves: raw.GameMoves,
	}, raw.InitialPly)
	if err != nil {
		return OutcomeMalformedGame, fmt.Errorf("resolve position: %w", err)
	}
	packed := pos.Pack()

	work := packed.Unpack()
	san, err := chess.Convert(work, raw.Solution)
	if err != nil {
		var illegal *chess.IllegalMoveError
		if errors.As(err, &illegal) {
			p.log.Warn().
				Str("puzzle", raw.ID).
				Int("index", illegal.Index).
				Str("move", illegal.Move).
				Msg("solution has illegal move, skipping")
			return OutcomeSkipped, ErrNoSuitablePuzzle
		}
		return OutcomeSkipped, fmt.Errorf("convert solution: %w", err)
	}

	if ok, reason := p.gate.Accept(san); !ok {
		p.log.Info().Str("puzzle", raw.ID).Str("reason", reason).Msg("puzzle rejected")
		return OutcomeSkipped, ErrNoSuitablePuzzle
	}

	if p.cfg.Verifier != nil && len(raw.Solution) > 0 {
		agrees, err := p.cfg.Verifier.Agrees(packed.Unpack(), raw.Solution[0])
		switch {
		case err != nil:
			p.log.Warn().Err(err).Str("puzzle", raw.ID).Msg("engine verification unavailable")
		case !agrees && p.cfg.VerifyStrict:
			p.log.Info().Str("puzzle", raw.ID).Msg("engine disagrees with solution, skipping")
			return OutcomeSkipped, ErrNoSuitablePuzzle
		case !agrees:
			p.log.Warn().Str("puzzle", raw.ID).Msg("engine disagrees with solution")
		}
	}

	id := puzzle.StableID(*raw)
	exists, err := p.cfg.Store.Exists(ctx, id)
	if err != nil {
		// Degraded dedup: better a rare duplicate than no upload.
		p.log.Warn().Err(err).Str("id", id).Msg("duplicate check failed, proceeding")
	} else if exists {
		p.log.Info().Str("id", id).Msg("puzzle already stored")
		return OutcomeDuplicate, nil
	}

	idx, err := p.cfg.Store.AdvanceCursor(ctx, puzzle.TitleCursor, len(puzzle.Titles))
	if err != nil {
		return OutcomeStoreFailed, fmt.Errorf("advance title rotation: %w", err)
	}
	title := puzzle.Titles[idx]

	description := puzzle.Describe(san)
	if raw.Theme != "" {
		description = puzzle.DescribeTheme(raw.Theme, san)
	}

	rec, sol := puzzle.Compose(packed.Unpack(), san, title, description, *raw, now)
	if err := p.cfg.Store.Upsert(ctx, rec, sol); err != nil {
		return OutcomeStoreFailed, fmt.Errorf("upsert puzzle: %w", err)
	}

	p.log.Info().
		Str("id", rec.ID).
		Str("title", rec.Title).
		Int("moves", len(sol.Moves)).
		Msg("puzzle uploaded")
	return OutcomeUploaded, nil
}

// fetch pulls candidates from the source until one passes the cheap
// length pre-filter or the attempt budget runs out. Conversion can
// still reject a candidate afterwards; the pre-filter only saves the
// expensive work for obviously long solutions.
func (p *Pipeline) fetch(ctx context.Context) (*puzzle.Raw, error) {
	maxHalf := p.gate.MaxHalfMoves()
	var lastErr error
	fetched := false
	for attempt := 0; attempt < p.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.cfg.AttemptDelay):
			}
		}

		raw, err := p.cfg.Source.Next(ctx)
		if err != nil {
			lastErr = err
			p.log.Warn().Err(err).Int("attempt", attempt+1).Msg("fetch failed")
			continue
		}
		fetched = true
		if len(raw.Solution) == 0 || len(raw.Solution) > maxHalf {
			p.log.Debug().
				Str("puzzle", raw.ID).
				Int("half_moves", len(raw.Solution)).
				Msg("solution length out of range, refetching")
			continue
		}
		return raw, nil
	}
	// The source only counts as down when it never produced a candidate;
	// a transient blip among filtered-out candidates is still "nothing
	// suitable today".
	if !fetched && lastErr != nil {
		return nil, fmt.Errorf("source exhausted after %d attempts: %w", p.cfg.MaxAttempts, lastErr)
	}
	return nil, ErrNoSuitablePuzzle
}
