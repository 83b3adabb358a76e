// Package rank orders accumulated statistics into deterministic rankings.
package rank

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/IDGBAN/Sortify/internal/aggregate"
	"github.com/IDGBAN/Sortify/internal/history"
)

type Criterion int

const (
	ByDuration Criterion = iota
	ByCount
	ByFirstSeen
)

// Criteria lists every criterion in report order.
var Criteria = []Criterion{ByCount, ByDuration, ByFirstSeen}

func (c Criterion) String() string {
	switch c {
	case ByDuration:
		return "duration"
	case ByCount:
		return "count"
	case ByFirstSeen:
		return "first-seen"
	}
	return fmt.Sprintf("criterion(%d)", int(c))
}

func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(s) {
	case "duration", "time":
		return ByDuration, nil
	case "count", "plays":
		return ByCount, nil
	case "first-seen", "first", "first_seen":
		return ByFirstSeen, nil
	}
	return 0, fmt.Errorf("unknown sort criterion %q", s)
}

type Direction int

const (
	Descending Direction = iota
	Ascending
)

func (d Direction) String() string {
	if d == Ascending {
		return "ascending"
	}
	return "descending"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "desc", "descending":
		return Descending, nil
	case "asc", "ascending":
		return Ascending, nil
	}
	return 0, fmt.Errorf("unknown sort direction %q", s)
}

// Row is one ranked key. Position starts at 1.
type Row struct {
	Position int
	Key      history.Key
	Stat     aggregate.Entry
}

// latest stands in for an unset first-seen time so that such keys sort last
// in ascending order.
var latest = time.Unix(1<<62, 0)

// Rank sorts every key of acc by c in direction d and returns the first limit
// rows, or all rows when limit <= 0. Ties are always broken by key ascending,
// regardless of d.
func Rank(acc *aggregate.Accumulator, c Criterion, d Direction, limit int) []Row {
	rows := make([]Row, 0, acc.Len())
	acc.Each(func(k history.Key, e aggregate.Entry) {
		rows = append(rows, Row{Key: k, Stat: e})
	})

	primary := comparator(c)
	slices.SortStableFunc(rows, func(a, b Row) int {
		r := primary(a.Stat, b.Stat)
		if d == Descending {
			r = -r
		}
		if r != 0 {
			return r
		}
		return a.Key.Compare(b.Key)
	})

	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// comparator returns the ascending comparison of c.
func comparator(c Criterion) func(a, b aggregate.Entry) int {
	switch c {
	case ByCount:
		return func(a, b aggregate.Entry) int { return cmp.Compare(a.Count, b.Count) }
	case ByFirstSeen:
		return func(a, b aggregate.Entry) int { return firstSeen(a).Compare(firstSeen(b)) }
	default:
		return func(a, b aggregate.Entry) int { return cmp.Compare(a.DurationMS, b.DurationMS) }
	}
}

func firstSeen(e aggregate.Entry) time.Time {
	if !e.Seen() {
		return latest
	}
	return e.EarliestSeen
}
