// Command schedule runs the upload pipeline on a cron schedule. It is
// the long-running counterpart to the one-shot upload command: one
// puzzle per tick, failures logged and retried at the next tick.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/chessdaily/puzzlefeed/internal/engine"
	"github.com/chessdaily/puzzlefeed/internal/logx"
	"github.com/chessdaily/puzzlefeed/internal/pipeline"
	"github.com/chessdaily/puzzlefeed/internal/puzzle"
	"github.com/chessdaily/puzzlefeed/internal/source"
	"github.com/chessdaily/puzzlefeed/internal/store"
)

func main() {
	_ = godotenv.Load()

	defaultDSN := os.Getenv("PUZZLEFEED_DB_DSN")
	defaultStockfish := os.Getenv("STOCKFISH_PATH")

	var (
		dbDSN         = flag.String("db", defaultDSN, "Postgres DSN (env PUZZLEFEED_DB_DSN)")
		migrate       = flag.Bool("migrate", true, "Apply schema migrations on startup")
		schedule      = flag.String("cron", "0 6 * * *", "Cron expression for upload runs")
		mode          = flag.String("mode", "rated", "Puzzle source: rated or theme")
		ratingMin     = flag.Int("rating-min", 1200, "Rating floor for candidate puzzles")
		ratingMax     = flag.Int("rating-max", 1600, "Rating ceiling for candidate puzzles")
		maxAttempts   = flag.Int("max-attempts", 15, "Fetch attempts per run before giving up")
		attemptDelay  = flag.Duration("attempt-delay", 2*time.Second, "Pause between fetch attempts")
		maxMoves      = flag.Int("max-moves", 3, "Longest accepted solution in full moves")
		retentionDays = flag.Int("retention-days", 30, "Retire puzzles older than this many days")
		timeout       = flag.Duration("timeout", 30*time.Second, "HTTP timeout for the puzzle source")
		baseURL       = flag.String("base-url", source.DefaultBaseURL, "Puzzle source base URL")
		stockfish     = flag.String("stockfish", defaultStockfish, "Stockfish binary for verification (env STOCKFISH_PATH)")
		verifyStrict  = flag.Bool("verify-strict", false, "Reject puzzles the engine disagrees with")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logJSON       = flag.Bool("log-json", true, "Emit JSON logs instead of console output")
	)
	flag.Parse()

	logger := logx.NewLogger(*logLevel, *logJSON)

	if *dbDSN == "" {
		fmt.Fprintln(os.Stderr, "Usage: schedule --db <postgres-dsn> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *mode != "rated" && *mode != "theme" {
		fmt.Fprintf(os.Stderr, "unknown mode %q (want rated or theme)\n", *mode)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *migrate {
		if err := store.ApplyMigrations(ctx, *dbDSN); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	pool, err := store.Connect(ctx, *dbDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to store")
	}
	defer pool.Close()
	st := store.New(pool, logger)

	var verifier pipeline.Verifier
	if *stockfish != "" {
		v, err := engine.NewVerifier(engine.Config{StockfishPath: *stockfish, Logger: logger})
		if err != nil {
			logger.Warn().Err(err).Msg("engine unavailable, skipping verification")
		} else {
			defer v.Close()
			verifier = v
		}
	}

	run := func() {
		src, err := tickSource(ctx, st, *mode, *baseURL, *timeout, *ratingMin, *ratingMax, logger)
		if err != nil {
			logger.Error().Err(err).Msg("build puzzle source, skipping tick")
			return
		}
		p, err := pipeline.New(pipeline.Config{
			Source:        src,
			Store:         st,
			Verifier:      verifier,
			VerifyStrict:  *verifyStrict,
			Logger:        logger,
			MaxFullMoves:  *maxMoves,
			MaxAttempts:   *maxAttempts,
			AttemptDelay:  *attemptDelay,
			RetentionDays: *retentionDays,
		})
		if err != nil {
			logger.Error().Err(err).Msg("build pipeline, skipping tick")
			return
		}
		outcome, err := p.Run(ctx)
		if err != nil && !errors.Is(err, pipeline.ErrNoSuitablePuzzle) {
			logger.Error().Err(err).Str("outcome", outcome.String()).Msg("scheduled run finished")
			return
		}
		logger.Info().Str("outcome", outcome.String()).Msg("scheduled run finished")
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, run); err != nil {
		logger.Fatal().Err(err).Str("cron", *schedule).Msg("invalid cron expression")
	}
	c.Start()
	logger.Info().Str("cron", *schedule).Str("mode", *mode).Msg("scheduler started")

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("gave up waiting for running job")
	}
}

// tickSource builds a fresh source per tick; theme mode advances the
// theme rotation so consecutive days cover different themes.
func tickSource(ctx context.Context, st *store.Store, mode, baseURL string, timeout time.Duration, ratingMin, ratingMax int, logger zerolog.Logger) (source.Source, error) {
	client := source.NewClient(baseURL, timeout, logger)
	if mode == "rated" {
		return &source.RatedSource{Client: client, Lower: ratingMin, Upper: ratingMax}, nil
	}
	idx, err := st.AdvanceCursor(ctx, puzzle.ThemeCursor, len(puzzle.Themes))
	if err != nil {
		return nil, fmt.Errorf("advance theme rotation: %w", err)
	}
	theme := puzzle.Themes[idx]
	logger.Info().Str("theme", theme).Msg("selected theme")
	return &source.ThemedSource{Client: client, Theme: theme}, nil
}
