package aggregate

import (
	"sort"
	"time"

	"github.com/IDGBAN/Sortify/internal/history"
)

// Totals counts events and their summed duration.
type Totals struct {
	Events     int64
	DurationMS int64
}

func (t *Totals) add(durationMS int64) {
	t.Events++
	t.DurationMS += durationMS
}

// Session is the state of one analysis run: batch totals, one accumulator per
// requested dimension and the track to artist index. Callers own it; nothing
// is shared between sessions.
type Session struct {
	Totals     Totals
	YearTotals map[int]Totals

	// TrackArtist maps a track name to the artist most recently observed with
	// it.
	TrackArtist map[string]string

	dims []history.Dimension
	accs map[history.Dimension]*Accumulator
}

// NewSession creates an empty session aggregating dims. With no dims every
// dimension is aggregated.
func NewSession(dims ...history.Dimension) *Session {
	if len(dims) == 0 {
		dims = history.AllDimensions
	}
	s := &Session{
		YearTotals:  make(map[int]Totals),
		TrackArtist: make(map[string]string),
		accs:        make(map[history.Dimension]*Accumulator, len(dims)),
	}
	for _, d := range dims {
		if _, ok := s.accs[d]; ok {
			continue
		}
		s.dims = append(s.dims, d)
		s.accs[d] = NewAccumulator()
	}
	return s
}

// Observe merges ev into the totals, the index and every accumulator.
func (s *Session) Observe(ev history.Event) {
	s.Totals.add(ev.DurationMS)

	var ts time.Time
	if ev.HasTimestamp {
		ts = ev.Timestamp
		yt := s.YearTotals[ts.Year()]
		yt.add(ev.DurationMS)
		s.YearTotals[ts.Year()] = yt
	}

	if ev.HasTrack && ev.HasArtist {
		s.TrackArtist[ev.Track] = ev.Artist
	}

	for _, d := range s.dims {
		for _, k := range d.Keys(ev) {
			s.accs[d].Merge(k, ev.DurationMS, ts, ev.HasTimestamp, d.Companion(ev))
		}
	}
}

// Accumulator returns the accumulator for d, or nil if d was not requested.
func (s *Session) Accumulator(d history.Dimension) *Accumulator {
	return s.accs[d]
}

// Dimensions returns the aggregated dimensions in the order requested.
func (s *Session) Dimensions() []history.Dimension {
	return append([]history.Dimension(nil), s.dims...)
}

// Years returns every year with at least one timestamped event, ascending.
func (s *Session) Years() []int {
	years := make([]int, 0, len(s.YearTotals))
	for y := range s.YearTotals {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Empty reports whether no event was counted.
func (s *Session) Empty() bool {
	return s.Totals.Events == 0
}

// ArtistOf resolves the display artist of a track.
func (s *Session) ArtistOf(track string) string {
	if a, ok := s.TrackArtist[track]; ok {
		return a
	}
	return history.UnknownArtist
}
