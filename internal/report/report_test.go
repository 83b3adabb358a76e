package report

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/rank"
)

func event(artist, track string, ms int64, ts string) history.Event {
	ev := history.Event{
		Artist: artist, HasArtist: true,
		Track: track, HasTrack: true,
		DurationMS: ms,
	}
	if ts != "" {
		t, err := time.Parse(history.TimestampLayout, ts)
		if err != nil {
			panic(err)
		}
		ev.Timestamp, ev.HasTimestamp = t, true
	}
	return ev
}

func session(dims ...history.Dimension) *aggregate.Session {
	s := aggregate.NewSession(dims...)
	s.Observe(event("A", "T1", 1000, "2023-01-01T00:00:00Z"))
	s.Observe(event("A", "T1", 2000, "2023-01-02T00:00:00Z"))
	s.Observe(event("B", "T2", 500, "2022-07-04T10:00:00Z"))
	s.Observe(event("A", "T3", 250, ""))
	return s
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:        "00:00:00",
		999:      "00:00:00",
		3599999:  "00:59:59",
		90061000: "25:01:01",
	}
	for ms, want := range tests {
		if got := FormatDuration(ms); got != want {
			t.Errorf("FormatDuration(%d) = %s; want %s", ms, got, want)
		}
	}
}

func TestWriteTracks(t *testing.T) {
	var out bytes.Buffer
	if err := Write(&out, session(history.DimTrack), Options{}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	want := `Total Play Count: 4
Total Listening Time: 00:00:03


Tracks Ranked by Play Count:
1. 2 times - T1 - A
2. 1 times - T2 - B
3. 1 times - T3 - A

Tracks Ranked by Listening Time:
1. 00:00:03 - T1 - A
2. 00:00:00 - T2 - B
3. 00:00:00 - T3 - A

First Play Time of Tracks:
1. 2022-07-04 10:00 - T2 - B
2. 2023-01-01 00:00 - T1 - A
3. unknown - T3 - A
`
	if out.String() != want {
		t.Errorf("Write() =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestWriteArtistFirstTrack(t *testing.T) {
	var out bytes.Buffer
	o := Options{Criteria: []rank.Criterion{rank.ByFirstSeen}}
	if err := Write(&out, session(history.DimArtist), o); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(out.String(), "First Play Time of Artists:\n1. 2022-07-04 10:00 - B - T2\n2. 2023-01-01 00:00 - A - T1\n") {
		t.Errorf("Unexpected artist listing:\n%s", out.String())
	}
}

func TestWriteSkipsYearlyDimensions(t *testing.T) {
	var out bytes.Buffer
	if err := Write(&out, session(history.DimYearTrack), Options{}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected nothing for yearly dimensions, got:\n%s", out.String())
	}
}

func TestWriteDirectionLimitSearch(t *testing.T) {
	asc := rank.Ascending
	o := Options{Criteria: []rank.Criterion{rank.ByCount}, Direction: &asc, Limit: 2}
	var out bytes.Buffer
	if err := Write(&out, session(history.DimTrack), o); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.HasSuffix(out.String(), "Tracks Ranked by Play Count:\n1. 1 times - T2 - B\n2. 1 times - T3 - A\n") {
		t.Errorf("Unexpected ascending listing:\n%s", out.String())
	}

	rows := Listing(session(history.DimTrack).Accumulator(history.DimTrack), rank.ByCount, Options{Search: "t3"})
	if len(rows) != 1 || rows[0].Position != 3 || rows[0].Key.Name != "T3" {
		t.Errorf("Expected T3 at its unfiltered position 3, got %+v", rows)
	}

	rows = Listing(session(history.DimTrack).Accumulator(history.DimTrack), rank.ByCount, Options{Search: "t3", Limit: 1})
	if len(rows) != 1 || rows[0].Position != 3 || rows[0].Key.Name != "T3" {
		t.Errorf("Expected search to cover rows past the limit, got %+v", rows)
	}
	rows = Listing(session(history.DimTrack).Accumulator(history.DimTrack), rank.ByCount, Options{Search: "t", Limit: 2})
	if len(rows) != 2 || rows[0].Key.Name != "T1" || rows[1].Key.Name != "T2" {
		t.Errorf("Expected the limit to apply after the search, got %+v", rows)
	}
}

func TestWriteYears(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "Results")
	paths, err := WriteYears(base, session(), Options{})
	if err != nil {
		t.Fatalf("WriteYears() error: %v", err)
	}
	want := []string{base + "_2022.txt", base + "_2023.txt"}
	if !reflect.DeepEqual(paths, want) {
		t.Fatalf("WriteYears() = %v; want %v", paths, want)
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(data)
	for _, s := range []string{
		"Year: 2022\n\nTotal Play Count: 1\nTotal Listening Time: 00:00:00\n",
		"Tracks Ranked by Play Count:\n1. 1 times - T2 - B\n",
		"First Play Time of Artists:\n1. 2022-07-04 10:00 - B - T2\n",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("Expected %q in 2022 report:\n%s", s, got)
		}
	}
	if strings.Contains(got, "T1") || strings.Contains(got, "T3") {
		t.Errorf("2022 report mentions tracks from other years:\n%s", got)
	}

	data, err = os.ReadFile(paths[1])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "Total Play Count: 2\nTotal Listening Time: 00:00:03\n") {
		t.Errorf("Unexpected 2023 totals:\n%s", data)
	}
}

func TestYearPath(t *testing.T) {
	if got := YearPath("reports/songs", 2021); got != "reports/songs_2021.txt" {
		t.Errorf("YearPath() = %s", got)
	}
}

func TestSummaryYAML(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sum := NewSummary(session(), Options{}, now)

	var out bytes.Buffer
	if err := WriteYAML(&out, sum); err != nil {
		t.Fatalf("WriteYAML() error: %v", err)
	}
	if !strings.Contains(out.String(), "generated_date:") || !strings.Contains(out.String(), "2024-03-01") {
		t.Errorf("Missing generated date:\n%s", out.String())
	}

	var decoded Summary
	if err := yaml.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	if len(decoded.Rankings) != len(history.AllDimensions)*len(rank.Criteria) {
		t.Fatalf("Expected a ranking per dimension and criterion, got %d", len(decoded.Rankings))
	}
	first := decoded.Rankings[0]
	if first.Dimension != "track" || first.Criterion != "count" || first.Direction != "descending" {
		t.Errorf("Unexpected first ranking %+v", first)
	}
	if len(first.Rows) != 3 || first.Rows[0].Name != "T1" || first.Rows[0].Detail != "A" || first.Rows[0].Plays != 2 {
		t.Errorf("Unexpected rows %+v", first.Rows)
	}
	if decoded.Totals.Plays != 4 || len(decoded.Years) != 2 || decoded.Years[1].Totals.Plays != 2 {
		t.Errorf("Unexpected totals %+v / %+v", decoded.Totals, decoded.Years)
	}
}

func TestTable(t *testing.T) {
	s := session(history.DimTrack)
	rows := rank.Rank(s.Accumulator(history.DimTrack), rank.ByCount, rank.Descending, 0)
	table := NewTable(s, history.DimTrack, rank.ByCount, rows)

	want := []string{"1", "T1", "A", "2", "00:00:03", "2023-01-01 00:00"}
	if got := table.Rows()[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("First row = %v; want %v", got, want)
	}
	out := table.String()
	if !strings.Contains(out, "T2") || !strings.Contains(out, "Showing 3 of 3 Tracks by count") {
		t.Errorf("Unexpected table:\n%s", out)
	}
}
