package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/rank"
)

// Table is a ranked listing laid out for the terminal.
type Table struct {
	results [][]string
	summary string
}

// NewTable builds the table of rows, which must come from ranking dimension d
// by c.
func NewTable(s *aggregate.Session, d history.Dimension, c rank.Criterion, rows []rank.Row) Table {
	header := []string{"#"}
	if d.Yearly() {
		header = append(header, "Year")
	}
	header = append(header, keyColumn(d))
	switch d {
	case history.DimTrack, history.DimYearTrack:
		header = append(header, "Artist")
	case history.DimArtist, history.DimYearArtist:
		header = append(header, "First Track")
	}
	header = append(header, "Plays", "Listening Time", "First Played")

	t := Table{results: [][]string{header}}
	for _, r := range rows {
		row := []string{strconv.Itoa(r.Position)}
		if d.Yearly() {
			row = append(row, strconv.Itoa(r.Key.Year))
		}
		row = append(row, r.Key.Name)
		switch d {
		case history.DimTrack, history.DimYearTrack:
			row = append(row, s.ArtistOf(r.Key.Name))
		case history.DimArtist, history.DimYearArtist:
			row = append(row, r.Stat.FirstWith)
		}
		row = append(row,
			strconv.FormatInt(r.Stat.Count, 10),
			FormatDuration(r.Stat.DurationMS),
			Value(rank.ByFirstSeen, r.Stat))
		t.results = append(t.results, row)
	}

	total := s.Accumulator(d).Len()
	t.summary = fmt.Sprintf("Showing %d of %d %s by %s; %d plays, %s listened in total\n",
		len(rows), total, d.Title(), c, s.Totals.Events, FormatDuration(s.Totals.DurationMS))
	return t
}

func keyColumn(d history.Dimension) string {
	switch d {
	case history.DimArtist, history.DimYearArtist:
		return "Artist"
	case history.DimTrackArtist:
		return "Song"
	}
	return "Track"
}

// Rows returns the body of the table without its header.
func (t Table) Rows() [][]string {
	return t.results[1:]
}

func (t Table) String() string {
	out := new(bytes.Buffer)
	table := tablewriter.NewWriter(out)
	table.Header(t.results[0])
	for _, row := range t.results[1:] {
		if err := table.Append(row); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Sprintf("Error rendering table: %v", err)
	}
	fmt.Fprintf(out, "%s", t.summary)
	return out.String()
}
