// Package aggregate accumulates per-key listening statistics for one analysis
// run.
package aggregate

import (
	"time"

	"github.com/IDGBAN/Sortify/internal/history"
)

// Entry holds the running statistics of one key.
type Entry struct {
	DurationMS int64
	Count      int64

	// EarliestSeen is only meaningful when HasEarliest is set.
	EarliestSeen time.Time
	HasEarliest  bool

	// FirstWith is the companion value (track for artists, artist for
	// tracks) of the event that set EarliestSeen.
	FirstWith string
}

// Seen reports whether EarliestSeen is set.
func (e Entry) Seen() bool {
	return e.HasEarliest
}

// Accumulator maps keys to their statistics. It is not safe for concurrent
// use.
type Accumulator struct {
	entries map[history.Key]*Entry
}

func NewAccumulator() *Accumulator {
	return &Accumulator{entries: make(map[history.Key]*Entry)}
}

// Merge folds one event into key. When hasTS is false EarliestSeen is left
// unchanged. Merging the same event twice counts it twice.
func (a *Accumulator) Merge(key history.Key, durationMS int64, ts time.Time, hasTS bool, with string) {
	e, ok := a.entries[key]
	if !ok {
		e = &Entry{}
		a.entries[key] = e
	}
	e.DurationMS += durationMS
	e.Count++
	if hasTS && (!e.HasEarliest || ts.Before(e.EarliestSeen)) {
		e.EarliestSeen, e.HasEarliest = ts, true
		e.FirstWith = with
	}
}

// Restore sets the statistics of key directly, replacing any previous value.
func (a *Accumulator) Restore(key history.Key, e Entry) {
	a.entries[key] = &e
}

// Get returns a copy of the statistics for key.
func (a *Accumulator) Get(key history.Key) (Entry, bool) {
	e, ok := a.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (a *Accumulator) Len() int {
	return len(a.entries)
}

// Each calls fn for every key in unspecified order.
func (a *Accumulator) Each(fn func(history.Key, Entry)) {
	for k, e := range a.entries {
		fn(k, *e)
	}
}

// Total sums duration and count over every key.
func (a *Accumulator) Total() Totals {
	var t Totals
	for _, e := range a.entries {
		t.Events += e.Count
		t.DurationMS += e.DurationMS
	}
	return t
}

// Year returns a new accumulator holding only the keys of year, with the year
// cleared from each key.
func (a *Accumulator) Year(year int) *Accumulator {
	out := NewAccumulator()
	for k, e := range a.entries {
		if k.Year == year {
			out.Restore(history.Key{Name: k.Name}, *e)
		}
	}
	return out
}
