// Package history decodes streaming-history export records into typed events
// and maps them onto aggregation keys.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownTrack  = "Unknown Track"

	// TimestampLayout is the only accepted format of the "ts" field.
	TimestampLayout = "2006-01-02T15:04:05Z"
)

// Field names used by the export format.
const (
	fieldArtist   = "master_metadata_album_artist_name"
	fieldTrack    = "master_metadata_track_name"
	fieldDuration = "ms_played"
	fieldTime     = "ts"
)

var ErrNotRecord = errors.New("history: element is not a JSON object")

// Field identifies a record field that was present but could not be used.
type Field uint8

const (
	FieldArtist Field = 1 << iota
	FieldTrack
	FieldDuration
	FieldTimestamp
)

// Event is one playback entry with every field defaulted.
type Event struct {
	Artist string
	Track  string

	// HasArtist and HasTrack report whether the raw record carried a
	// non-empty string for the field, as opposed to the sentinel default.
	HasArtist bool
	HasTrack  bool

	DurationMS int64

	Timestamp    time.Time
	HasTimestamp bool

	// Defaulted is the set of fields that were present but malformed.
	Defaulted Field
}

// Usable reports whether the event can contribute to any keyed bucket.
func (e Event) Usable() bool {
	return e.HasArtist || e.HasTrack
}

// Decode converts one raw element of an export file into an Event. Missing or
// malformed optional fields are defaulted; only non-object input is an error.
func Decode(raw json.RawMessage) (Event, error) {
	var fields map[string]json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, ErrNotRecord
	}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Event{}, ErrNotRecord
	}

	ev := Event{Artist: UnknownArtist, Track: UnknownTrack}

	if name, ok, bad := decodeName(fields[fieldArtist]); ok {
		ev.Artist, ev.HasArtist = name, true
	} else if bad {
		ev.Defaulted |= FieldArtist
	}
	if name, ok, bad := decodeName(fields[fieldTrack]); ok {
		ev.Track, ev.HasTrack = name, true
	} else if bad {
		ev.Defaulted |= FieldTrack
	}

	if v, ok := fields[fieldDuration]; ok && !isNull(v) {
		ms, ok := decodeDuration(v)
		if !ok {
			ev.Defaulted |= FieldDuration
		}
		ev.DurationMS = ms
	}

	if v, ok := fields[fieldTime]; ok && !isNull(v) {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if ts, err := ParseTimestamp(s); err == nil {
				ev.Timestamp, ev.HasTimestamp = ts, true
			}
		}
		if !ev.HasTimestamp {
			ev.Defaulted |= FieldTimestamp
		}
	}

	return ev, nil
}

// ParseTimestamp parses s with TimestampLayout. The result is in UTC. Values
// with fractional seconds, zone offsets or a year before 1 are rejected.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) != len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("timestamp %q does not match %s", s, TimestampLayout)
	}
	ts, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if ts.Year() < 1 {
		return time.Time{}, fmt.Errorf("timestamp %q is before year 1", s)
	}
	return ts, nil
}

// decodeName returns the string value of a name field. bad is set when the
// field held something other than a string or null.
func decodeName(v json.RawMessage) (name string, ok bool, bad bool) {
	if v == nil || isNull(v) {
		return "", false, false
	}
	if err := json.Unmarshal(v, &name); err != nil {
		return "", false, true
	}
	if name == "" {
		return "", false, false
	}
	return name, true, false
}

// decodeDuration coerces ms_played to a non-negative integer. Integers,
// floats (truncated) and strings holding a base-10 integer are accepted.
func decodeDuration(v json.RawMessage) (int64, bool) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return clampDuration(i), i >= 0
		}
		f, err := n.Float64()
		if err != nil || f < 0 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return clampDuration(i), i >= 0
}

func clampDuration(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
