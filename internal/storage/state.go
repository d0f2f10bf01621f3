package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"showsync/internal/services"
)

// Cursors returns every persisted per-category cursor. A negative position or
// unknown status is reported as state corruption rather than silently reset.
func (s *Store) Cursors(ctx context.Context) ([]Cursor, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT category_id, position, updated_at FROM category_cursors ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("query cursors: %w", err)
	}
	defer rows.Close()

	var cursors []Cursor
	for rows.Next() {
		var (
			cursor    Cursor
			updatedAt string
		)
		if err := rows.Scan(&cursor.CategoryID, &cursor.Position, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan cursor: %w", err)
		}
		if cursor.Position < 0 {
			return nil, services.Wrap(services.ErrStateCorrupt, "storage", "cursors",
				fmt.Sprintf("category %d has negative position %d", cursor.CategoryID, cursor.Position), nil)
		}
		if cursor.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, services.Wrap(services.ErrStateCorrupt, "storage", "cursors", "parse cursor timestamp", err)
		}
		cursors = append(cursors, cursor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursors: %w", err)
	}
	return cursors, nil
}

// InitCursors inserts a zero cursor for any category that has none yet.
func (s *Store) InitCursors(ctx context.Context, categoryIDs []int64) error {
	now := time.Now().UTC().Format(timeLayout)
	for _, id := range categoryIDs {
		if _, err := s.execWithRetry(
			ctx,
			`INSERT OR IGNORE INTO category_cursors (category_id, position, updated_at) VALUES (?, 0, ?)`,
			id, now,
		); err != nil {
			return fmt.Errorf("init cursor for category %d: %w", id, err)
		}
	}
	return nil
}

// CommitProgress durably records the outcome of one processed show: the show
// record, the advanced category cursor, and the run totals move together in a
// single transaction. Cache writes for the show must already be committed
// before this is called.
func (s *Store) CommitProgress(ctx context.Context, record ShowRecord, position int64) error {
	if !record.Status.Valid() {
		return fmt.Errorf("invalid show status %q", record.Status)
	}
	if position < 0 {
		return fmt.Errorf("cursor position must not be negative, got %d", position)
	}
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(timeLayout)

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin progress tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO show_records (category_id, show_id, title, tmdb_id, status, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)
             ON CONFLICT(category_id, show_id) DO UPDATE SET
                 title = excluded.title,
                 tmdb_id = excluded.tmdb_id,
                 status = excluded.status,
                 updated_at = excluded.updated_at`,
			record.CategoryID, record.ShowID, record.Title, record.TMDBID, string(record.Status), now,
		); err != nil {
			return fmt.Errorf("upsert show record: %w", err)
		}

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO category_cursors (category_id, position, updated_at)
             VALUES (?, ?, ?)
             ON CONFLICT(category_id) DO UPDATE SET
                 position = excluded.position,
                 updated_at = excluded.updated_at`,
			record.CategoryID, position, now,
		); err != nil {
			return fmt.Errorf("advance cursor: %w", err)
		}

		succeeded, notFound, failed := 0, 0, 0
		switch record.Status {
		case ShowStatusResolved:
			succeeded = 1
		case ShowStatusNotFound:
			notFound = 1
		case ShowStatusError:
			failed = 1
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE run_totals SET
                 processed = processed + 1,
                 succeeded = succeeded + ?,
                 not_found = not_found + ?,
                 failed = failed + ?,
                 last_run_at = ?
             WHERE id = 1`,
			succeeded, notFound, failed, now,
		); err != nil {
			return fmt.Errorf("update run totals: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit progress: %w", err)
		}
		return nil
	})
}

// ShowRecords returns all persisted show records ordered by category then show.
func (s *Store) ShowRecords(ctx context.Context) ([]ShowRecord, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT category_id, show_id, title, tmdb_id, status, updated_at
         FROM show_records ORDER BY category_id, show_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query show records: %w", err)
	}
	defer rows.Close()

	var records []ShowRecord
	for rows.Next() {
		var (
			record    ShowRecord
			status    string
			updatedAt string
		)
		if err := rows.Scan(&record.CategoryID, &record.ShowID, &record.Title, &record.TMDBID, &status, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan show record: %w", err)
		}
		record.Status = ShowStatus(status)
		if !record.Status.Valid() {
			return nil, services.Wrap(services.ErrStateCorrupt, "storage", "show records",
				fmt.Sprintf("show %d has unknown status %q", record.ShowID, status), nil)
		}
		if record.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, services.Wrap(services.ErrStateCorrupt, "storage", "show records", "parse record timestamp", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate show records: %w", err)
	}
	return records, nil
}

// Totals returns the aggregated outcome counts across all runs.
func (s *Store) Totals(ctx context.Context) (RunTotals, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT processed, succeeded, not_found, failed, last_run_at FROM run_totals WHERE id = 1`)

	var (
		totals    RunTotals
		lastRunAt sql.NullString
	)
	err := row.Scan(&totals.Processed, &totals.Succeeded, &totals.NotFound, &totals.Failed, &lastRunAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RunTotals{}, services.Wrap(services.ErrStateCorrupt, "storage", "totals", "run_totals row missing", nil)
	}
	if err != nil {
		return RunTotals{}, fmt.Errorf("query run totals: %w", err)
	}
	if lastRunAt.Valid && strings.TrimSpace(lastRunAt.String) != "" {
		if totals.LastRunAt, err = parseTimestamp(lastRunAt.String); err != nil {
			return RunTotals{}, services.Wrap(services.ErrStateCorrupt, "storage", "totals", "parse last run timestamp", err)
		}
	}
	return totals, nil
}

// ResetState is the explicit operator reinitialize path: it removes cursors
// and show records so the next run starts from position zero. A nil
// categoryID resets every category and zeroes the run totals.
func (s *Store) ResetState(ctx context.Context, categoryID *int64) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin reset tx: %w", err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if categoryID == nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM category_cursors`); err != nil {
				return fmt.Errorf("delete cursors: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM show_records`); err != nil {
				return fmt.Errorf("delete show records: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE run_totals SET processed = 0, succeeded = 0, not_found = 0, failed = 0, last_run_at = NULL WHERE id = 1`,
			); err != nil {
				return fmt.Errorf("reset run totals: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `DELETE FROM category_cursors WHERE category_id = ?`, *categoryID); err != nil {
				return fmt.Errorf("delete cursor: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM show_records WHERE category_id = ?`, *categoryID); err != nil {
				return fmt.Errorf("delete show records: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit reset: %w", err)
		}
		return nil
	})
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed, nil
}
