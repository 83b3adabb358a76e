// Package ingest drives an analysis run: it reads every export file, decodes
// its records and merges them into a fresh session.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
)

// FileStats describes what happened to one input file.
type FileStats struct {
	Path string

	// Records is the number of records merged into the session.
	Records int
	// Skipped counts array elements that were not records.
	Skipped int
	// OutOfWindow counts records dropped by the date window.
	OutOfWindow int
	// MalformedFields counts records with at least one field that was
	// present but had to be defaulted.
	MalformedFields int

	Err *FileError
}

// Result is the outcome of one run.
type Result struct {
	Session     *aggregate.Session
	Files       []FileStats
	Diagnostics []*FileError
}

// NoUsableData reports whether no record was counted across all files.
func (r *Result) NoUsableData() bool {
	return r.Session.Empty()
}

// Err returns ErrNoUsableData when the run produced nothing.
func (r *Result) Err() error {
	if r.NoUsableData() {
		return ErrNoUsableData
	}
	return nil
}

type Pipeline struct {
	dims          []history.Dimension
	log           *zap.Logger
	workers       int
	start, end    time.Time
	progressEvery time.Duration
}

type Option func(*Pipeline)

// WithDimensions limits aggregation to dims. By default all are aggregated.
func WithDimensions(dims ...history.Dimension) Option {
	return func(p *Pipeline) { p.dims = dims }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithWorkers parses up to n files concurrently. Merging stays sequential and
// in input order, so the result does not depend on n.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithWindow keeps only records timestamped in [start, end). A zero bound is
// open.
func WithWindow(start, end time.Time) Option {
	return func(p *Pipeline) { p.start, p.end = start, end }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		log:           zap.NewNop(),
		workers:       1,
		progressEvery: 2 * time.Second,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type parsedFile struct {
	path   string
	events []history.Event
	stats  FileStats
}

// Run processes paths in order. Failures on individual files are recorded in
// the result and never stop the batch; the only error returned is ctx's.
func (p *Pipeline) Run(ctx context.Context, paths []string) (*Result, error) {
	res := &Result{Session: aggregate.NewSession(p.dims...)}
	progress := &rate.Sometimes{First: 1, Interval: p.progressEvery}

	merge := func(i int, pf parsedFile) {
		p.merge(res, pf)
		progress.Do(func() {
			p.log.Info("ingesting",
				zap.Int("file", i+1),
				zap.Int("of", len(paths)),
				zap.Int64("events", res.Session.Totals.Events))
		})
	}

	if p.workers > 1 && len(paths) > 1 {
		mapper := iter.Mapper[string, parsedFile]{MaxGoroutines: p.workers}
		parsed := mapper.Map(paths, func(path *string) parsedFile {
			if ctx.Err() != nil {
				return parsedFile{path: *path}
			}
			return p.parse(*path)
		})
		for i, pf := range parsed {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			merge(i, pf)
		}
	} else {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			merge(i, p.parse(path))
		}
	}

	p.log.Info("ingestion finished",
		zap.Int("files", len(paths)),
		zap.Int("skipped_files", len(res.Diagnostics)),
		zap.Int64("events", res.Session.Totals.Events),
		zap.Int64("duration_ms", res.Session.Totals.DurationMS))
	return res, nil
}

func (p *Pipeline) merge(res *Result, pf parsedFile) {
	stats := pf.stats
	if stats.Err != nil {
		res.Diagnostics = append(res.Diagnostics, stats.Err)
		res.Files = append(res.Files, stats)
		if stats.Err.Silent() {
			p.log.Debug("skipping file", zap.String("path", pf.path), zap.Error(stats.Err.Err))
		} else {
			p.log.Warn("skipping file", zap.String("path", pf.path), zap.Error(stats.Err.Err))
		}
		return
	}

	for _, ev := range pf.events {
		if !p.inWindow(ev) {
			stats.OutOfWindow++
			continue
		}
		res.Session.Observe(ev)
		stats.Records++
	}
	res.Files = append(res.Files, stats)
}

func (p *Pipeline) inWindow(ev history.Event) bool {
	if p.start.IsZero() && p.end.IsZero() {
		return true
	}
	if !ev.HasTimestamp {
		return false
	}
	if !p.start.IsZero() && ev.Timestamp.Before(p.start) {
		return false
	}
	if !p.end.IsZero() && !ev.Timestamp.Before(p.end) {
		return false
	}
	return true
}

// parse reads and decodes one file completely. Nothing from a file is merged
// unless all of it parsed.
func (p *Pipeline) parse(path string) parsedFile {
	pf := parsedFile{path: path, stats: FileStats{Path: path}}
	fail := func(err error) parsedFile {
		pf.events = nil
		pf.stats.Err = &FileError{Path: path, Err: err}
		return pf
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(ErrMissingFile)
	}
	if err != nil {
		return fail(err)
	}
	if info.IsDir() {
		return fail(fmt.Errorf("%w: is a directory", ErrMalformedContent))
	}
	if info.Size() == 0 {
		return fail(ErrEmptyFile)
	}
	p.log.Debug("reading file", zap.String("path", path), zap.String("size", humanize.Bytes(uint64(info.Size()))))

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fail(ErrMissingFile)
	}
	if err != nil {
		return fail(err)
	}
	if len(data) == 0 {
		return fail(ErrEmptyFile)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrMalformedContent, err))
	}

	pf.events = make([]history.Event, 0, len(elements))
	for _, raw := range elements {
		ev, err := history.Decode(raw)
		if err != nil {
			pf.stats.Skipped++
			continue
		}
		if ev.Defaulted != 0 {
			pf.stats.MalformedFields++
		}
		pf.events = append(pf.events, ev)
	}
	return pf
}
