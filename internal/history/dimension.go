package history

import (
	"fmt"
	"strconv"
)

// Dimension selects how events are mapped to aggregation keys.
type Dimension int

const (
	DimArtist Dimension = iota
	DimTrack
	DimTrackArtist
	DimYearTrack
	DimYearArtist
)

// AllDimensions lists every dimension in report order.
var AllDimensions = []Dimension{DimTrack, DimArtist, DimTrackArtist, DimYearTrack, DimYearArtist}

var dimensionNames = map[Dimension]string{
	DimArtist:      "artist",
	DimTrack:       "track",
	DimTrackArtist: "pair",
	DimYearTrack:   "year-track",
	DimYearArtist:  "year-artist",
}

func (d Dimension) String() string {
	if name, ok := dimensionNames[d]; ok {
		return name
	}
	return "dimension(" + strconv.Itoa(int(d)) + ")"
}

// Yearly reports whether keys of d carry a calendar year.
func (d Dimension) Yearly() bool {
	return d == DimYearTrack || d == DimYearArtist
}

// Title is the plural noun used in report headings.
func (d Dimension) Title() string {
	switch d {
	case DimArtist, DimYearArtist:
		return "Artists"
	case DimTrackArtist:
		return "Songs"
	default:
		return "Tracks"
	}
}

// ParseDimension accepts the names printed by Dimension.String.
func ParseDimension(s string) (Dimension, error) {
	for d, name := range dimensionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dimension %q", s)
}

// Key identifies one accumulator bucket. Year is zero for dimensions that are
// not split by year.
type Key struct {
	Year int
	Name string
}

// Less orders keys by year, then name, both ascending.
func (k Key) Less(o Key) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Name < o.Name
}

// Compare returns -1, 0 or +1 following Less.
func (k Key) Compare(o Key) int {
	switch {
	case k.Less(o):
		return -1
	case o.Less(k):
		return 1
	}
	return 0
}

func (k Key) String() string {
	if k.Year == 0 {
		return k.Name
	}
	return strconv.Itoa(k.Year) + " " + k.Name
}

// Keys returns the keys ev contributes to under d. Events without a usable
// artist or track contribute nothing; yearly dimensions need a timestamp.
func (d Dimension) Keys(ev Event) []Key {
	if !ev.Usable() {
		return nil
	}
	switch d {
	case DimArtist:
		return []Key{{Name: ev.Artist}}
	case DimTrack:
		return []Key{{Name: ev.Track}}
	case DimTrackArtist:
		return []Key{{Name: ev.Track + " - " + ev.Artist}}
	case DimYearTrack:
		if !ev.HasTimestamp {
			return nil
		}
		return []Key{{Year: ev.Timestamp.Year(), Name: ev.Track}}
	case DimYearArtist:
		if !ev.HasTimestamp {
			return nil
		}
		return []Key{{Year: ev.Timestamp.Year(), Name: ev.Artist}}
	}
	return nil
}

// Companion is the value recorded alongside a key's earliest timestamp: the
// track for artist keys, the artist for track keys.
func (d Dimension) Companion(ev Event) string {
	switch d {
	case DimArtist, DimYearArtist:
		return ev.Track
	case DimTrack, DimYearTrack:
		return ev.Artist
	}
	return ""
}
