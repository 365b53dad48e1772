// Package store persists puzzle, solution, and rotation-cursor records
// in Postgres. Three collections share the puzzle identifier: puzzles,
// solutions, and results (the last is written by the consuming app and
// only deleted here on retirement).
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/chessdaily/puzzlefeed/internal/puzzle"
)

// DB is the subset of pgxpool.Pool the store uses. pgxmock implements
// it, which is how the repository tests run without a database.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements the pipeline's persistence operations.
type Store struct {
	db  DB
	log zerolog.Logger
}

func New(db DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Connect opens a pgx pool and verifies connectivity. The pool is
// acquired once per process and passed by reference to everything that
// needs it; there is no implicit shared client.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Exists reports whether a record for this puzzle is already stored,
// matching either the record id or the source's native id. Callers treat
// an error as "assume not present" (degraded confidence) rather than
// aborting the run.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRow(ctx,
		`SELECT 1 FROM puzzles WHERE id = $1 OR puzzle_id = $1 LIMIT 1`, id,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup check %s: %w", id, err)
	}
	return true, nil
}

// Upsert writes the puzzle and its solution in one transaction, puzzle
// first. The pair commits or rolls back as a unit, so a stored puzzle
// always has its solution.
func (s *Store) Upsert(ctx context.Context, rec puzzle.Record, sol puzzle.Solution) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO puzzles (id, puzzle_id, title, slug, description, board, first_move, created_at, created_by, has_solutions, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			description = EXCLUDED.description,
			board = EXCLUDED.board,
			first_move = EXCLUDED.first_move,
			created_by = EXCLUDED.created_by,
			has_solutions = EXCLUDED.has_solutions,
			date = EXCLUDED.date`,
		rec.ID, rec.PuzzleID, rec.Title, rec.Slug, rec.Description, rec.Board,
		rec.FirstMove, rec.CreatedAt, rec.CreatedBy, rec.HasSolutions, rec.Date,
	); err != nil {
		return fmt.Errorf("upsert puzzle %s: %w", rec.ID, err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO solutions (id, puzzle_id, moves, last_updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			moves = EXCLUDED.moves,
			last_updated = EXCLUDED.last_updated`,
		sol.ID, sol.PuzzleID, sol.Moves, sol.LastUpdated,
	); err != nil {
		return fmt.Errorf("upsert solution %s: %w", sol.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert %s: %w", rec.ID, err)
	}
	return nil
}
