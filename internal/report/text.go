// Package report renders rankings of a finished session as text files, YAML
// summaries and terminal tables.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/rank"
)

const (
	firstSeenLayout = "2006-01-02 15:04"
	unknownTime     = "unknown"
)

type Options struct {
	// Criteria selects the listings written per dimension, in order. Empty
	// means rank.Criteria.
	Criteria []rank.Criterion

	// Direction, when set, is used for every listing instead of
	// NaturalDirection.
	Direction *rank.Direction

	// Limit truncates each listing. Zero keeps every row.
	Limit int

	// Search keeps only rows whose key contains it, ignoring case.
	Search string
}

func (o Options) criteria() []rank.Criterion {
	if len(o.Criteria) == 0 {
		return rank.Criteria
	}
	return o.Criteria
}

func (o Options) direction(c rank.Criterion) rank.Direction {
	if o.Direction != nil {
		return *o.Direction
	}
	return NaturalDirection(c)
}

// NaturalDirection is the direction a listing reads best in: most played
// first, earliest discovery first.
func NaturalDirection(c rank.Criterion) rank.Direction {
	if c == rank.ByFirstSeen {
		return rank.Ascending
	}
	return rank.Descending
}

// FormatDuration renders milliseconds as HH:MM:SS. Hours are not wrapped at
// 24.
func FormatDuration(ms int64) string {
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

// Value renders the statistic of e that c ranks by.
func Value(c rank.Criterion, e aggregate.Entry) string {
	switch c {
	case rank.ByCount:
		return strconv.FormatInt(e.Count, 10) + " times"
	case rank.ByFirstSeen:
		if !e.Seen() {
			return unknownTime
		}
		return e.EarliestSeen.Format(firstSeenLayout)
	default:
		return FormatDuration(e.DurationMS)
	}
}

// Suffix is the trailing annotation of a row: the resolved artist for track
// keys and, in first-seen listings of artists, the track heard first.
func Suffix(s *aggregate.Session, d history.Dimension, c rank.Criterion, r rank.Row) string {
	switch d {
	case history.DimTrack, history.DimYearTrack:
		return s.ArtistOf(r.Key.Name)
	case history.DimArtist, history.DimYearArtist:
		if c != rank.ByFirstSeen || !r.Stat.Seen() {
			return ""
		}
		if r.Stat.FirstWith == "" {
			return history.UnknownTrack
		}
		return r.Stat.FirstWith
	}
	return ""
}

// Line formats one row as "<rank>. <value> - <key>[ - <suffix>]". Yearly keys
// print their year before the name unless projected onto a single year.
func Line(s *aggregate.Session, d history.Dimension, c rank.Criterion, r rank.Row) string {
	line := strconv.Itoa(r.Position) + ". " + Value(c, r.Stat) + " - " + r.Key.String()
	if suffix := Suffix(s, d, c, r); suffix != "" {
		line += " - " + suffix
	}
	return line
}

// Heading is the title line of a listing.
func Heading(d history.Dimension, c rank.Criterion) string {
	switch c {
	case rank.ByCount:
		return d.Title() + " Ranked by Play Count:"
	case rank.ByFirstSeen:
		return "First Play Time of " + d.Title() + ":"
	default:
		return d.Title() + " Ranked by Listening Time:"
	}
}

// Listing ranks acc, keeps the rows matching the search of o and then applies
// its limit. Rows keep their position in the full ranking.
func Listing(acc *aggregate.Accumulator, c rank.Criterion, o Options) []rank.Row {
	rows := rank.Filter(rank.Rank(acc, c, o.direction(c), 0), o.Search)
	if o.Limit > 0 && len(rows) > o.Limit {
		rows = rows[:o.Limit]
	}
	return rows
}

// Write renders the plain-text report of s: for every non-yearly dimension a
// totals header followed by one listing per criterion.
func Write(w io.Writer, s *aggregate.Session, o Options) error {
	bw := bufio.NewWriter(w)
	first := true
	for _, d := range s.Dimensions() {
		if d.Yearly() {
			continue
		}
		if !first {
			fmt.Fprintln(bw)
		}
		first = false
		writeSection(bw, s, d, s.Accumulator(d), s.Totals, o)
	}
	return bw.Flush()
}

func writeTotals(w io.Writer, t aggregate.Totals) {
	fmt.Fprintf(w, "Total Play Count: %d\n", t.Events)
	fmt.Fprintf(w, "Total Listening Time: %s\n\n\n", FormatDuration(t.DurationMS))
}

func writeSection(w io.Writer, s *aggregate.Session, d history.Dimension, acc *aggregate.Accumulator, t aggregate.Totals, o Options) {
	writeTotals(w, t)
	for i, c := range o.criteria() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, Heading(d, c))
		for _, r := range Listing(acc, c, o) {
			fmt.Fprintln(w, Line(s, d, c, r))
		}
	}
}
