package store

import (
	"context"
	"fmt"
	"time"
)

// Retire deletes every puzzle older than the cutoff together with its
// solution and results rows, then repairs solutions orphaned by earlier
// interrupted runs. A record's age comes from its native timestamp, with
// the ISO day string in the date column as fallback. Deletions are best
// effort: a failure on one record or one table is logged and the pass
// continues.
func (s *Store) Retire(ctx context.Context, olderThan time.Time) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT id, created_at, date FROM puzzles`)
	if err != nil {
		return 0, fmt.Errorf("scan puzzles for retirement: %w", err)
	}

	var stale []string
	for rows.Next() {
		var (
			id        string
			createdAt *time.Time
			date      string
		)
		if err := rows.Scan(&id, &createdAt, &date); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan puzzle row: %w", err)
		}
		created, ok := recordTime(createdAt, date)
		if !ok {
			s.log.Warn().Str("id", id).Msg("puzzle has no usable timestamp, skipping retirement check")
			continue
		}
		if created.Before(olderThan) {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("scan puzzles for retirement: %w", err)
	}

	retired := 0
	for _, id := range stale {
		failed := false
		for _, del := range []struct {
			table string
			query string
		}{
			{"puzzles", `DELETE FROM puzzles WHERE id = $1`},
			{"solutions", `DELETE FROM solutions WHERE id = $1`},
			{"results", `DELETE FROM results WHERE id = $1`},
		} {
			if _, err := s.db.Exec(ctx, del.query, id); err != nil {
				s.log.Error().Err(err).Str("id", id).Str("table", del.table).Msg("retire delete failed")
				failed = true
			}
		}
		if !failed {
			retired++
			s.log.Info().Str("id", id).Msg("retired old puzzle")
		}
	}

	// Solutions whose puzzle row is gone (rolled-back upserts, manual
	// deletes) are unreachable by the app; sweep them here.
	if _, err := s.db.Exec(ctx,
		`DELETE FROM solutions s WHERE NOT EXISTS (SELECT 1 FROM puzzles p WHERE p.id = s.id)`,
	); err != nil {
		s.log.Error().Err(err).Msg("orphan solution cleanup failed")
	}

	return retired, nil
}

// recordTime resolves a record's creation time: the native timestamp
// when present, else the date column parsed as an ISO day or RFC3339
// string.
func recordTime(createdAt *time.Time, date string) (time.Time, bool) {
	if createdAt != nil && !createdAt.IsZero() {
		return *createdAt, true
	}
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		return t, true
	}
	return time.Time{}, false
}
