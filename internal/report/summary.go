package report

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
	"github.com/IDGBAN/Sortify/internal/rank"
)

// Summary is the machine-readable form of a report.
type Summary struct {
	GeneratedDate string         `yaml:"generated_date"`
	Totals        TotalsSummary  `yaml:"totals"`
	Years         []YearSummary  `yaml:"years,omitempty"`
	Rankings      []RankingEntry `yaml:"rankings"`
}

type TotalsSummary struct {
	Plays         int64  `yaml:"plays"`
	ListeningTime string `yaml:"listening_time"`
	DurationMS    int64  `yaml:"duration_ms"`
}

type YearSummary struct {
	Year   int           `yaml:"year"`
	Totals TotalsSummary `yaml:"totals"`
}

type RankingEntry struct {
	Dimension string       `yaml:"dimension"`
	Criterion string       `yaml:"criterion"`
	Direction string       `yaml:"direction"`
	Rows      []RowSummary `yaml:"rows"`
}

type RowSummary struct {
	Rank          int    `yaml:"rank"`
	Year          int    `yaml:"year,omitempty"`
	Name          string `yaml:"name"`
	Detail        string `yaml:"detail,omitempty"`
	Plays         int64  `yaml:"plays"`
	ListeningTime string `yaml:"listening_time"`
	FirstPlayed   string `yaml:"first_played,omitempty"`
}

func totalsSummary(t aggregate.Totals) TotalsSummary {
	return TotalsSummary{
		Plays:         t.Events,
		ListeningTime: FormatDuration(t.DurationMS),
		DurationMS:    t.DurationMS,
	}
}

// NewSummary collects every listing of every dimension of s.
func NewSummary(s *aggregate.Session, o Options, now time.Time) Summary {
	sum := Summary{
		GeneratedDate: now.Format("2006-01-02"),
		Totals:        totalsSummary(s.Totals),
	}
	for _, y := range s.Years() {
		sum.Years = append(sum.Years, YearSummary{Year: y, Totals: totalsSummary(s.YearTotals[y])})
	}

	for _, d := range s.Dimensions() {
		acc := s.Accumulator(d)
		for _, c := range o.criteria() {
			entry := RankingEntry{
				Dimension: d.String(),
				Criterion: c.String(),
				Direction: o.direction(c).String(),
			}
			for _, r := range Listing(acc, c, o) {
				entry.Rows = append(entry.Rows, rowSummary(s, d, c, r))
			}
			sum.Rankings = append(sum.Rankings, entry)
		}
	}
	return sum
}

func rowSummary(s *aggregate.Session, d history.Dimension, c rank.Criterion, r rank.Row) RowSummary {
	row := RowSummary{
		Rank:          r.Position,
		Year:          r.Key.Year,
		Name:          r.Key.Name,
		Detail:        Suffix(s, d, c, r),
		Plays:         r.Stat.Count,
		ListeningTime: FormatDuration(r.Stat.DurationMS),
	}
	if r.Stat.Seen() {
		row.FirstPlayed = r.Stat.EarliestSeen.Format(time.RFC3339)
	}
	return row
}

// WriteYAML encodes sum to w.
func WriteYAML(w io.Writer, sum Summary) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(sum); err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return encoder.Close()
}
