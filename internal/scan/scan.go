// Package scan counts track names in export files line by line, without
// decoding them. It tolerates files that are not valid JSON as a whole.
package scan

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/ingest"
	"github.com/IDGBAN/Sortify/internal/rank"
)

// maxLineSize bounds a single line; exports are often one line per file.
const maxLineSize = 256 << 20

var trackExpr = regexp2.MustCompile(`"master_metadata_track_name"\s*:\s*"((?:[^"\\]|\\.)*)"`, regexp2.None)

// Result holds the count of every track name seen.
type Result struct {
	Counts      *aggregate.Accumulator
	Matches     int64
	Diagnostics []*ingest.FileError
}

// CountTracks scans every path in order. Unreadable files are recorded and
// skipped.
func CountTracks(ctx context.Context, paths []string, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{Counts: aggregate.NewAccumulator()}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log.Info("processing file", zap.String("path", path))

		n, err := countFile(path, res.Counts)
		res.Matches += n
		if err != nil {
			log.Warn("skipping file", zap.String("path", path), zap.Error(err))
			res.Diagnostics = append(res.Diagnostics, &ingest.FileError{Path: path, Err: err})
		}
	}
	return res, nil
}

func countFile(path string, acc *aggregate.Accumulator) (int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ingest.ErrMissingFile
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Count(f, acc)
}

// Count adds every track name found in r to acc and returns how many were
// found.
func Count(r io.Reader, acc *aggregate.Accumulator) (int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var n int64
	for scanner.Scan() {
		m, err := trackExpr.FindStringMatch(scanner.Text())
		for m != nil && err == nil {
			acc.Merge(history.Key{Name: unquote(m.GroupByNumber(1).String())}, 0, time.Time{}, false, "")
			n++
			m, err = trackExpr.FindNextMatch(m)
		}
		if err != nil {
			return n, fmt.Errorf("matching: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("reading: %w", err)
	}
	return n, nil
}

// unquote resolves JSON escapes in a matched string body.
func unquote(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &s); err != nil {
		return raw
	}
	return s
}

// Write lists the counts most played first, ties by name.
func Write(w io.Writer, res *Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Overall Track Name Counts (Most to Least):")
	for _, r := range rank.Rank(res.Counts, rank.ByCount, rank.Descending, 0) {
		fmt.Fprintf(bw, "- '%s': %d times\n", r.Key.Name, r.Stat.Count)
	}
	return bw.Flush()
}
