// Package engine spot-checks accepted solutions with a UCI engine. It is
// optional: the pipeline runs without it unless a Stockfish path is
// configured.
package engine

import (
	"fmt"

	"github.com/freeeve/pgn/v3"
	"github.com/freeeve/uci"
	"github.com/rs/zerolog"
)

// Config configures the verifier.
type Config struct {
	StockfishPath string
	Depth         int // search depth, default 18
	HashMB        int
	Threads       int
	Logger        zerolog.Logger
}

// Verifier asks Stockfish for the best move in the puzzle position and
// compares it with the solution's first move.
type Verifier struct {
	engine *uci.Engine
	log    zerolog.Logger
	depth  int
}

// NewVerifier starts a Stockfish process and applies the engine options.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.StockfishPath == "" {
		return nil, fmt.Errorf("stockfish path required")
	}
	if cfg.Depth == 0 {
		cfg.Depth = 18
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = 128
	}
	if cfg.Threads == 0 {
		cfg.Threads = 2
	}

	engine, err := uci.NewEngine(cfg.StockfishPath)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	opts := uci.Options{
		Hash:    cfg.HashMB,
		Threads: cfg.Threads,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}

	return &Verifier{engine: engine, log: cfg.Logger, depth: cfg.Depth}, nil
}

// Close shuts down the engine process.
func (v *Verifier) Close() error {
	if v.engine != nil {
		v.engine.Close()
	}
	return nil
}

// Agrees reports whether the engine's best move from the position
// matches the given coordinate move. Engine trouble is returned as an
// error so callers can decide whether to treat the check as advisory.
func (v *Verifier) Agrees(pos *pgn.GameState, firstMove string) (bool, error) {
	fen := pos.ToFEN()
	if err := v.engine.SetFEN(fen); err != nil {
		return false, fmt.Errorf("set FEN: %w", err)
	}

	results, err := v.engine.GoDepth(v.depth, uci.HighestDepthOnly)
	if err != nil {
		return false, fmt.Errorf("engine search: %w", err)
	}
	if len(results.Results) == 0 {
		return false, fmt.Errorf("no results from engine")
	}

	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}
	if len(best.BestMoves) == 0 {
		return false, fmt.Errorf("engine returned no best move")
	}

	v.log.Debug().
		Str("fen", fen).
		Str("engine", best.BestMoves[0]).
		Str("solution", firstMove).
		Msg("verified first move")
	return best.BestMoves[0] == firstMove, nil
}
