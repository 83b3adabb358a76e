package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/IDGBAN/Sortify/internal/aggregate"
)

// DefaultYearLimit caps each per-year listing when no limit is given.
const DefaultYearLimit = 1000

// YearPath returns the per-year report path for base.
func YearPath(base string, year int) string {
	return base + "_" + strconv.Itoa(year) + ".txt"
}

// WriteYears writes one report per calendar year of s to YearPath(base, year),
// covering the yearly dimensions of s. It returns the paths written, in year
// order.
func WriteYears(base string, s *aggregate.Session, o Options) ([]string, error) {
	if o.Limit == 0 {
		o.Limit = DefaultYearLimit
	}
	if dir := filepath.Dir(base); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating report directory: %w", err)
		}
	}

	var written []string
	for _, year := range s.Years() {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "Year: %d\n\n", year)

		first := true
		for _, d := range s.Dimensions() {
			if !d.Yearly() {
				continue
			}
			if !first {
				fmt.Fprintln(&buf)
			}
			first = false
			writeSection(&buf, s, d, s.Accumulator(d).Year(year), s.YearTotals[year], o)
		}

		path := YearPath(base, year)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
