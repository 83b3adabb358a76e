package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
)

// ListRuns returns every saved run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, label, files, events, duration_ms
		FROM Run
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Label, &r.Files, &r.Totals.Events, &r.Totals.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		dims, err := s.dimensions(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Dimensions = dims
	}
	return runs, nil
}

// resolveID expands a unique prefix of a run id to the full id.
func (s *Store) resolveID(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM Run WHERE substr(id, 1, length(?)) = ? LIMIT 2", prefix, prefix)
	if err != nil {
		return "", fmt.Errorf("looking up run %q: %w", prefix, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch {
	case prefix == "" || len(ids) == 0:
		return "", fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	case len(ids) > 1:
		return "", fmt.Errorf("%w: %q", ErrAmbiguousRun, prefix)
	}
	return ids[0], nil
}

func (s *Store) dimensions(ctx context.Context, runID string) ([]history.Dimension, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT dimension FROM RunDimension WHERE run = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("querying dimensions: %w", err)
	}
	defer rows.Close()

	var dims []history.Dimension
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		d, err := history.ParseDimension(name)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", runID, err)
		}
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// LoadSession rebuilds the session saved under id, which may be any unique
// prefix of a run id.
func (s *Store) LoadSession(ctx context.Context, id string) (*aggregate.Session, Run, error) {
	id, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, Run{}, err
	}

	var run Run
	var created int64
	err = s.db.QueryRowContext(ctx, "SELECT id, created_at, label, files, events, duration_ms FROM Run WHERE id = ?", id).
		Scan(&run.ID, &created, &run.Label, &run.Files, &run.Totals.Events, &run.Totals.DurationMS)
	if err == sql.ErrNoRows {
		return nil, Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, Run{}, fmt.Errorf("reading run %s: %w", id, err)
	}
	run.CreatedAt = time.Unix(created, 0).UTC()

	if run.Dimensions, err = s.dimensions(ctx, id); err != nil {
		return nil, Run{}, err
	}

	sess := aggregate.NewSession(run.Dimensions...)
	sess.Totals = run.Totals
	if err := s.loadYearTotals(ctx, id, sess); err != nil {
		return nil, Run{}, err
	}
	if err := s.loadEntries(ctx, id, sess); err != nil {
		return nil, Run{}, err
	}
	if err := s.loadTrackArtists(ctx, id, sess); err != nil {
		return nil, Run{}, err
	}
	return sess, run, nil
}

func (s *Store) loadYearTotals(ctx context.Context, runID string, sess *aggregate.Session) error {
	rows, err := s.db.QueryContext(ctx, "SELECT year, events, duration_ms FROM YearTotal WHERE run = ?", runID)
	if err != nil {
		return fmt.Errorf("querying year totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var year int
		var t aggregate.Totals
		if err := rows.Scan(&year, &t.Events, &t.DurationMS); err != nil {
			return fmt.Errorf("scanning year totals: %w", err)
		}
		sess.YearTotals[year] = t
	}
	return rows.Err()
}

func (s *Store) loadEntries(ctx context.Context, runID string, sess *aggregate.Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dimension, year, name, duration_ms, count, earliest_seen, first_with
		FROM Entry
		WHERE run = ?`, runID)
	if err != nil {
		return fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dimName string
			key     history.Key
			e       aggregate.Entry
			seen    sql.NullInt64
		)
		if err := rows.Scan(&dimName, &key.Year, &key.Name, &e.DurationMS, &e.Count, &seen, &e.FirstWith); err != nil {
			return fmt.Errorf("scanning entry: %w", err)
		}
		d, err := history.ParseDimension(dimName)
		if err != nil {
			return fmt.Errorf("run %s: %w", runID, err)
		}
		acc := sess.Accumulator(d)
		if acc == nil {
			return fmt.Errorf("run %s: entry for unsaved dimension %s", runID, d)
		}
		if seen.Valid {
			e.EarliestSeen, e.HasEarliest = time.Unix(seen.Int64, 0).UTC(), true
		}
		acc.Restore(key, e)
	}
	return rows.Err()
}

func (s *Store) loadTrackArtists(ctx context.Context, runID string, sess *aggregate.Session) error {
	rows, err := s.db.QueryContext(ctx, "SELECT track, artist FROM TrackArtist WHERE run = ?", runID)
	if err != nil {
		return fmt.Errorf("querying track index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var track, artist string
		if err := rows.Scan(&track, &artist); err != nil {
			return fmt.Errorf("scanning track index: %w", err)
		}
		sess.TrackArtist[track] = artist
	}
	return rows.Err()
}
