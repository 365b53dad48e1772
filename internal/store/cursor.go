package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chessdaily/puzzlefeed/internal/puzzle"
)

// AdvanceCursor moves a rotation cursor one step through a list of
// length n and returns the new index. The read-modify-write runs in one
// transaction with the row locked, so two concurrent runs cannot both
// claim the same index. The arithmetic itself is puzzle.Advance; a
// missing row behaves as last index -1.
func (s *Store) AdvanceCursor(ctx context.Context, name string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("advance cursor %s: empty rotation list", name)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin cursor advance: %w", err)
	}
	defer tx.Rollback(ctx)

	cur := puzzle.Cursor{Name: name, LastIndex: -1}
	err = tx.QueryRow(ctx,
		`SELECT last_index FROM rotation_cursors WHERE name = $1 FOR UPDATE`, name,
	).Scan(&cur.LastIndex)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("read cursor %s: %w", name, err)
	}

	next := puzzle.Advance(cur, n)
	if _, err := tx.Exec(ctx, `
		INSERT INTO rotation_cursors (name, last_index) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET last_index = EXCLUDED.last_index`,
		name, next.LastIndex,
	); err != nil {
		return 0, fmt.Errorf("write cursor %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit cursor %s: %w", name, err)
	}
	return next.LastIndex, nil
}
