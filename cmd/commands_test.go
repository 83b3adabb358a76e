package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/IDGBAN/Sortify/internal/store"
)

const exportA = `[
  {"master_metadata_album_artist_name": "A", "master_metadata_track_name": "T1", "ms_played": 1000, "ts": "2023-01-01T00:00:00Z"},
  {"master_metadata_album_artist_name": "A", "master_metadata_track_name": "T1", "ms_played": 2000, "ts": "2023-01-02T00:00:00Z"}
]`

const exportB = `[
  {"master_metadata_album_artist_name": "B", "master_metadata_track_name": "T2", "ms_played": 500, "ts": "2022-07-04T10:00:00Z"},
  {"master_metadata_album_artist_name": "A", "master_metadata_track_name": "T3", "ms_played": "250"},
  {"master_metadata_album_artist_name": null, "master_metadata_track_name": null, "ms_played": 99, "ts": "2022-07-05T10:00:00Z"}
]`

// writeExports creates a directory holding both fixture exports and an empty
// file, and points the database at a fresh path next to it.
func writeExports(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, "exports")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	for name, content := range map[string]string{"a.json": exportA, "b.json": exportB, "c.json": ""} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}
	viper.Set("database", filepath.Join(tmpDir, "test.db"))
	viper.Set("workers", 2)
	return dir
}

func TestAnalyze(t *testing.T) {
	dir := writeExports(t)
	var out, errOut bytes.Buffer

	o := analyzeOptions{
		source:    sessionSource{files: []string{dir}},
		dimension: "artist",
		sort:      "count",
		direction: "desc",
	}
	if err := runAnalyze(context.Background(), &out, &errOut, o); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	want := "Artists Ranked by Play Count:\n1. 3 times - A\n2. 1 times - B\n"
	if out.String() != want {
		t.Errorf("runAnalyze output =\n%s\nwant\n%s", out.String(), want)
	}
	if errOut.Len() != 0 {
		t.Errorf("Empty file should be skipped silently, got %q", errOut.String())
	}
}

func TestAnalyzeTracksWithWindowAndSearch(t *testing.T) {
	dir := writeExports(t)
	var out bytes.Buffer

	o := analyzeOptions{
		source:    sessionSource{files: []string{dir}, from: "2022", to: "2022"},
		dimension: "track",
		sort:      "first-seen",
		direction: "asc",
		search:    "t2",
	}
	if err := runAnalyze(context.Background(), &out, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runAnalyze: %v", err)
	}
	want := "First Play Time of Tracks:\n1. 2022-07-04 10:00 - T2 - B\n"
	if out.String() != want {
		t.Errorf("runAnalyze output =\n%s\nwant\n%s", out.String(), want)
	}
}

func TestAnalyzeInvalidFlags(t *testing.T) {
	dir := writeExports(t)
	for _, o := range []analyzeOptions{
		{source: sessionSource{files: []string{dir}}, dimension: "album", sort: "count", direction: "desc"},
		{source: sessionSource{files: []string{dir}}, dimension: "track", sort: "loudness", direction: "desc"},
		{source: sessionSource{files: []string{dir}}, dimension: "track", sort: "count", direction: "sideways"},
		{source: sessionSource{files: []string{dir}, runID: "abc"}, dimension: "track", sort: "count", direction: "desc"},
		{source: sessionSource{}, dimension: "track", sort: "count", direction: "desc"},
	} {
		if err := runAnalyze(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, o); err == nil {
			t.Errorf("Expected error for %+v", o)
		}
	}
}

func TestNoUsableData(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	os.WriteFile(empty, []byte("[]"), 0o644)
	output := filepath.Join(dir, "out", "Results")

	var out bytes.Buffer
	o := reportOptions{source: sessionSource{files: []string{empty}}, output: output, format: "text"}
	if err := runReport(context.Background(), &out, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	if out.String() != noDataMessage+"\n" {
		t.Errorf("Expected no-data message, got %q", out.String())
	}
	if _, err := os.Stat(output + ".txt"); !os.IsNotExist(err) {
		t.Errorf("Expected no report written, stat error %v", err)
	}
}

func TestReportText(t *testing.T) {
	dir := writeExports(t)
	output := filepath.Join(t.TempDir(), "Results")

	o := reportOptions{source: sessionSource{files: []string{dir}}, output: output, format: "text"}
	if err := runReport(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	data, err := os.ReadFile(output + ".txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(data)
	for _, s := range []string{
		"Total Play Count: 5\nTotal Listening Time: 00:00:03\n",
		"Tracks Ranked by Play Count:\n1. 2 times - T1 - A\n",
		"Songs Ranked by Listening Time:\n1. 00:00:03 - T1 - A\n",
		"First Play Time of Artists:\n1. 2022-07-04 10:00 - B - T2\n",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("Expected %q in report:\n%s", s, got)
		}
	}
}

func TestReportPerYear(t *testing.T) {
	dir := writeExports(t)
	output := filepath.Join(t.TempDir(), "Results")

	var out bytes.Buffer
	o := reportOptions{source: sessionSource{files: []string{dir}}, output: output, format: "text", perYear: true}
	if err := runReport(context.Background(), &out, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	for _, year := range []string{"2022", "2023"} {
		path := output + "_" + year + ".txt"
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", path, err)
		}
		if !strings.HasPrefix(string(data), "Year: "+year+"\n") {
			t.Errorf("Unexpected header in %s:\n%s", path, data)
		}
	}

	if err := runReport(context.Background(), &out, &bytes.Buffer{}, reportOptions{output: "-", format: "text", perYear: true}); err == nil {
		t.Errorf("Expected error for per-year report to stdout")
	}
}

func TestReportYAML(t *testing.T) {
	dir := writeExports(t)
	var out bytes.Buffer

	o := reportOptions{source: sessionSource{files: []string{dir}}, output: "-", format: "yaml", limit: 1}
	if err := runReport(context.Background(), &out, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runReport: %v", err)
	}
	if !strings.Contains(out.String(), "rankings:") || !strings.Contains(out.String(), "name: T1") {
		t.Errorf("Unexpected YAML:\n%s", out.String())
	}

	if err := runReport(context.Background(), &out, &bytes.Buffer{}, reportOptions{output: "-", format: "xml"}); err == nil {
		t.Errorf("Expected error for unknown format")
	}
}

func TestExportAnalyzeAndDeleteRun(t *testing.T) {
	dir := writeExports(t)
	ctx := context.Background()

	var out bytes.Buffer
	if err := runExport(ctx, &out, &bytes.Buffer{}, sessionSource{files: []string{dir}}, "fixtures"); err != nil {
		t.Fatalf("runExport: %v", err)
	}
	if !strings.Contains(out.String(), ": 5 plays, 00:00:03 listened") {
		t.Errorf("Unexpected export output %q", out.String())
	}

	db, err := store.New(viper.GetString("database"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	runs, err := db.ListRuns(ctx)
	db.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("ListRuns = %v, %v", runs, err)
	}
	id := runs[0].ID

	var fromFiles, fromRun bytes.Buffer
	o := analyzeOptions{dimension: "track", sort: "duration", direction: "desc"}
	o.source = sessionSource{files: []string{dir}}
	if err := runAnalyze(ctx, &fromFiles, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runAnalyze(files): %v", err)
	}
	o.source = sessionSource{runID: id[:8]}
	if err := runAnalyze(ctx, &fromRun, &bytes.Buffer{}, o); err != nil {
		t.Fatalf("runAnalyze(run): %v", err)
	}
	if fromRun.String() != fromFiles.String() {
		t.Errorf("Saved run ranks differently:\n%s\nvs\n%s", fromRun.String(), fromFiles.String())
	}

	var listing bytes.Buffer
	if err := listRuns(ctx, &listing, viper.GetString("database")); err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	if !strings.Contains(listing.String(), id[:8]) || !strings.Contains(listing.String(), "fixtures") {
		t.Errorf("Unexpected run listing:\n%s", listing.String())
	}

	if err := deleteRun(ctx, &bytes.Buffer{}, viper.GetString("database"), id); err != nil {
		t.Fatalf("deleteRun: %v", err)
	}
	listing.Reset()
	if err := listRuns(ctx, &listing, viper.GetString("database")); err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	if listing.String() != "No saved runs.\n" {
		t.Errorf("Expected no runs after delete, got:\n%s", listing.String())
	}
}

func TestCountTracks(t *testing.T) {
	dir := writeExports(t)
	output := filepath.Join(t.TempDir(), "counts", "track_counts.txt")

	if err := countTracks(context.Background(), &bytes.Buffer{}, []string{dir}, output); err != nil {
		t.Fatalf("countTracks: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "\nOverall Track Name Counts (Most to Least):\n- 'T1': 2 times\n- 'T2': 1 times\n- 'T3': 1 times\n"
	if string(data) != want {
		t.Errorf("count-tracks output =\n%q\nwant\n%q", data, want)
	}
}
