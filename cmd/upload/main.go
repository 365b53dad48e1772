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
	"github.com/rs/zerolog"

	"github.com/chessdaily/puzzlefeed/internal/engine"
	"github.com/chessdaily/puzzlefeed/internal/logx"
	"github.com/chessdaily/puzzlefeed/internal/pipeline"
	"github.com/chessdaily/puzzlefeed/internal/puzzle"
	"github.com/chessdaily/puzzlefeed/internal/source"
	"github.com/chessdaily/puzzlefeed/internal/store"
)

// Exit codes, scripted against by the scheduler and ops cron jobs.
const (
	exitOK                = 0 // uploaded or already stored
	exitNoSuitablePuzzle  = 2
	exitSourceUnavailable = 3
	exitMalformedGame     = 4
	exitStoreUnavailable  = 5
)

func main() {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	defaultDSN := os.Getenv("PUZZLEFEED_DB_DSN")
	defaultStockfish := os.Getenv("STOCKFISH_PATH")

	var (
		dbDSN         = flag.String("db", defaultDSN, "Postgres DSN (env PUZZLEFEED_DB_DSN)")
		migrate       = flag.Bool("migrate", true, "Apply schema migrations before running")
		mode          = flag.String("mode", "rated", "Puzzle source: rated, theme or archive")
		archivePath   = flag.String("archive", "", "Path to puzzle CSV for archive mode (supports .zst)")
		ratingMin     = flag.Int("rating-min", 1200, "Rating floor for candidate puzzles")
		ratingMax     = flag.Int("rating-max", 1600, "Rating ceiling for candidate puzzles")
		maxAttempts   = flag.Int("max-attempts", 15, "Fetch attempts before giving up")
		attemptDelay  = flag.Duration("attempt-delay", 2*time.Second, "Pause between fetch attempts")
		maxMoves      = flag.Int("max-moves", 3, "Longest accepted solution in full moves")
		retentionDays = flag.Int("retention-days", 30, "Retire puzzles older than this many days")
		timeout       = flag.Duration("timeout", 30*time.Second, "HTTP timeout for the puzzle source")
		baseURL       = flag.String("base-url", source.DefaultBaseURL, "Puzzle source base URL")
		stockfish     = flag.String("stockfish", defaultStockfish, "Stockfish binary for verification (env STOCKFISH_PATH)")
		verifyStrict  = flag.Bool("verify-strict", false, "Reject puzzles the engine disagrees with")
		logLevel      = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logJSON       = flag.Bool("log-json", false, "Emit JSON logs instead of console output")
	)
	flag.Parse()

	logger := logx.NewLogger(*logLevel, *logJSON)

	if *dbDSN == "" {
		fmt.Fprintln(os.Stderr, "Usage: upload --db <postgres-dsn> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *mode == "archive" && *archivePath == "" {
		fmt.Fprintln(os.Stderr, "archive mode needs --archive <lichess_db_puzzle.csv[.zst]>")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *migrate {
		if err := store.ApplyMigrations(ctx, *dbDSN); err != nil {
			logger.Error().Err(err).Msg("apply migrations")
			os.Exit(exitStoreUnavailable)
		}
	}

	pool, err := store.Connect(ctx, *dbDSN)
	if err != nil {
		logger.Error().Err(err).Msg("connect to store")
		os.Exit(exitStoreUnavailable)
	}
	defer pool.Close()
	st := store.New(pool, logger)

	src, err := buildSource(ctx, st, *mode, *archivePath, *baseURL, *timeout, *ratingMin, *ratingMax, *maxMoves, logger)
	if err != nil {
		logger.Error().Err(err).Str("mode", *mode).Msg("build puzzle source")
		os.Exit(1)
	}

	var verifier pipeline.Verifier
	if *stockfish != "" {
		v, err := engine.NewVerifier(engine.Config{
			StockfishPath: *stockfish,
			Logger:        logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("engine unavailable, skipping verification")
		} else {
			defer v.Close()
			verifier = v
		}
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
		logger.Error().Err(err).Msg("build pipeline")
		os.Exit(1)
	}

	outcome, err := p.Run(ctx)
	if err != nil && !errors.Is(err, pipeline.ErrNoSuitablePuzzle) {
		logger.Error().Err(err).Str("outcome", outcome.String()).Msg("run finished")
	} else {
		logger.Info().Str("outcome", outcome.String()).Msg("run finished")
	}
	os.Exit(exitCode(outcome))
}

// buildSource picks the candidate stream. Theme mode advances the theme
// rotation once so successive runs cycle through the theme list.
func buildSource(ctx context.Context, st *store.Store, mode, archivePath, baseURL string, timeout time.Duration, ratingMin, ratingMax, maxMoves int, logger zerolog.Logger) (source.Source, error) {
	switch mode {
	case "rated":
		client := source.NewClient(baseURL, timeout, logger)
		return &source.RatedSource{Client: client, Lower: ratingMin, Upper: ratingMax}, nil
	case "theme":
		idx, err := st.AdvanceCursor(ctx, puzzle.ThemeCursor, len(puzzle.Themes))
		if err != nil {
			return nil, fmt.Errorf("advance theme rotation: %w", err)
		}
		theme := puzzle.Themes[idx]
		logger.Info().Str("theme", theme).Msg("selected theme")
		client := source.NewClient(baseURL, timeout, logger)
		return &source.ThemedSource{Client: client, Theme: theme}, nil
	case "archive":
		return &source.Archive{
			Path:         archivePath,
			MinRating:    ratingMin,
			MaxRating:    ratingMax,
			MaxHalfMoves: maxMoves * 2,
		}, nil
	}
	return nil, fmt.Errorf("unknown mode %q", mode)
}

func exitCode(o pipeline.Outcome) int {
	switch o {
	case pipeline.OutcomeUploaded, pipeline.OutcomeDuplicate:
		return exitOK
	case pipeline.OutcomeSkipped:
		return exitNoSuitablePuzzle
	case pipeline.OutcomeSourceFailed:
		return exitSourceUnavailable
	case pipeline.OutcomeMalformedGame:
		return exitMalformedGame
	case pipeline.OutcomeStoreFailed:
		return exitStoreUnavailable
	}
	return 1
}
