package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
)

// Run describes one saved session.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Label      string
	Files      int
	Totals     aggregate.Totals
	Dimensions []history.Dimension
}

// retryable reports whether err is a transient lock held by another writer.
func retryable(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
	)
}

// SaveSession stores every accumulator, the totals and the track index of
// sess under a new run id.
func (s *Store) SaveSession(ctx context.Context, sess *aggregate.Session, label string, files int) (Run, error) {
	run := Run{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		Label:      label,
		Files:      files,
		Totals:     sess.Totals,
		Dimensions: sess.Dimensions(),
	}

	err := s.withRetry(ctx, func() error {
		return s.saveSession(ctx, run, sess)
	})
	if err != nil {
		return Run{}, fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return run, nil
}

func (s *Store) saveSession(ctx context.Context, run Run, sess *aggregate.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO Run (id, created_at, label, files, events, duration_ms) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.CreatedAt.Unix(), run.Label, run.Files, run.Totals.Events, run.Totals.DurationMS)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i, d := range run.Dimensions {
		_, err := tx.ExecContext(ctx, "INSERT INTO RunDimension (run, dimension, position) VALUES (?, ?, ?)", run.ID, d.String(), i)
		if err != nil {
			return fmt.Errorf("inserting dimension %s: %w", d, err)
		}
		if err := insertEntries(ctx, tx, run.ID, d, sess.Accumulator(d)); err != nil {
			return err
		}
	}

	for year, t := range sess.YearTotals {
		_, err := tx.ExecContext(ctx, "INSERT INTO YearTotal (run, year, events, duration_ms) VALUES (?, ?, ?, ?)",
			run.ID, year, t.Events, t.DurationMS)
		if err != nil {
			return fmt.Errorf("inserting totals for %d: %w", year, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO TrackArtist (run, track, artist) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing track index insert: %w", err)
	}
	defer stmt.Close()
	for track, artist := range sess.TrackArtist {
		if _, err := stmt.ExecContext(ctx, run.ID, track, artist); err != nil {
			return fmt.Errorf("inserting track %q: %w", track, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, runID string, d history.Dimension, acc *aggregate.Accumulator) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO Entry (run, dimension, year, name, duration_ms, count, earliest_seen, first_with)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing entry insert: %w", err)
	}
	defer stmt.Close()

	acc.Each(func(k history.Key, e aggregate.Entry) {
		if err != nil {
			return
		}
		var seen sql.NullInt64
		if e.Seen() {
			seen = sql.NullInt64{Int64: e.EarliestSeen.Unix(), Valid: true}
		}
		if _, execErr := stmt.ExecContext(ctx, runID, d.String(), k.Year, k.Name, e.DurationMS, e.Count, seen, e.FirstWith); execErr != nil {
			err = fmt.Errorf("inserting %s entry %q: %w", d, k, execErr)
		}
	})
	return err
}

// DeleteRun removes a saved run and everything stored with it.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	id, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}

	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		for _, table := range []string{"TrackArtist", "Entry", "YearTotal", "RunDimension"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run = ?", id); err != nil {
				return fmt.Errorf("deleting from %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM Run WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting run: %w", err)
		}
		return tx.Commit()
	})
}
