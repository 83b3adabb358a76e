// Package store keeps snapshots of finished sessions in a SQLite database so
// that they can be ranked again without re-reading the export files.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrRunNotFound  = errors.New("store: run not found")
	ErrAmbiguousRun = errors.New("store: run id prefix matches more than one run")
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS Run (
  id TEXT PRIMARY KEY,
  created_at INTEGER NOT NULL,
  label TEXT NOT NULL DEFAULT '',
  files INTEGER NOT NULL,
  events INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS RunDimension (
  run TEXT NOT NULL,
  dimension TEXT NOT NULL,
  position INTEGER NOT NULL,
  FOREIGN KEY (run) REFERENCES Run(id),
  PRIMARY KEY (run, dimension)
);

CREATE TABLE IF NOT EXISTS YearTotal (
  run TEXT NOT NULL,
  year INTEGER NOT NULL,
  events INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL,
  FOREIGN KEY (run) REFERENCES Run(id),
  PRIMARY KEY (run, year)
);

CREATE TABLE IF NOT EXISTS Entry (
  run TEXT NOT NULL,
  dimension TEXT NOT NULL,
  year INTEGER NOT NULL,
  name TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  count INTEGER NOT NULL,
  earliest_seen INTEGER,
  first_with TEXT NOT NULL DEFAULT '',
  FOREIGN KEY (run) REFERENCES Run(id),
  PRIMARY KEY (run, dimension, year, name)
);

CREATE TABLE IF NOT EXISTS TrackArtist (
  run TEXT NOT NULL,
  track TEXT NOT NULL,
  artist TEXT NOT NULL,
  FOREIGN KEY (run) REFERENCES Run(id),
  PRIMARY KEY (run, track)
);
`

func createTables(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}
