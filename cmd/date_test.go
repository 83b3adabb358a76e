package cmd

import (
	"strings"
	"testing"
	"time"
)

func TestGetImplicitDateRange_year(t *testing.T) {
	doTestGetImplicitDateRange(t, "2020", "2021", "2006")
}

func TestGetImplicitDateRange_month(t *testing.T) {
	doTestGetImplicitDateRange(t, "2020-01", "2020-02", "2006-01")
}

func TestGetImplicitDateRange_day(t *testing.T) {
	doTestGetImplicitDateRange(t, "2020-01-01", "2020-01-02", "2006-01-02")
}

func TestGetImplicitDateRange_invalid(t *testing.T) {
	tooMany := "2020-01-0123"
	_, _, err := getImplicitDateRange(tooMany)
	if err == nil {
		t.Fatalf("Expected error parsing %q", tooMany)
	}
	if !strings.Contains(err.Error(), "Invalid format") {
		t.Fatalf("Should have error with invalid format: %v", err)
	}

	letters := "not_real"
	_, _, err = getImplicitDateRange(letters)
	if err == nil {
		t.Fatalf("Expected error parsing %q", letters)
	}
	if !strings.Contains(err.Error(), "Invalid format") {
		t.Fatalf("Should have error with invalid format: %v", err)
	}
}

func doTestGetImplicitDateRange(t *testing.T, startString string, endString string, format string) {
	start, end, err := getImplicitDateRange(startString)
	if err != nil {
		t.Fatalf("Parsing year string: %v", err)
	}

	expectedStart, err := time.Parse(format, startString)
	if err != nil {
		t.Fatalf("Constructing expectedStart: %v", err)
	}

	expectedEnd, err := time.Parse(format, endString)
	if err != nil {
		t.Fatalf("Constructing expectedEnd: %v", err)
	}

	if start != expectedStart {
		t.Fatalf("Expected start to be %q, got %q", expectedStart, start)
	}

	if end != expectedEnd {
		t.Fatalf("Expected end to be %q, got %q", expectedEnd, end)
	}
}

func TestParseSingleDatestring_Relative(t *testing.T) {
	tests := []struct {
		input  string
		unit   string
		amount int
	}{
		{"30d", "d", 30},
		{"12w", "w", 12},
		{"6m", "m", 6},
		{"10y", "y", 10},
	}

	for _, tc := range tests {
		pd, err := parseSingleDatestring(tc.input)
		if err != nil {
			t.Errorf("parseSingleDatestring(%q) returned error: %v", tc.input, err)
			continue
		}
		if !pd.Relative {
			t.Errorf("parseSingleDatestring(%q) not marked relative", tc.input)
		}

		// Calculate expected approximate time
		now := time.Now()
		var expected time.Time
		switch tc.unit {
		case "d":
			expected = now.AddDate(0, 0, -tc.amount)
		case "w":
			expected = now.AddDate(0, 0, -tc.amount*7)
		case "m":
			expected = now.AddDate(0, -tc.amount, 0)
		case "y":
			expected = now.AddDate(-tc.amount, 0, 0)
		}

		// Check if result is close to expected (within 1 second)
		diff := pd.Date.Sub(expected)
		if diff < -time.Second || diff > time.Second {
			t.Errorf("parseSingleDatestring(%q) = %v; want approx %v", tc.input, pd.Date, expected)
		}
	}
}

func TestParseWindow_open(t *testing.T) {
	start, end, err := parseWindow("", "")
	if err != nil {
		t.Fatalf("parseWindow: %v", err)
	}
	if !start.IsZero() || !end.IsZero() {
		t.Fatalf("Expected open window, got %v to %v", start, end)
	}
}

func TestParseWindow_toIncludesPeriod(t *testing.T) {
	start, end, err := parseWindow("2020", "2020-02")
	if err != nil {
		t.Fatalf("parseWindow: %v", err)
	}
	if want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("Expected start %v, got %v", want, start)
	}
	if want := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("Expected end %v, got %v", want, end)
	}

	start, end, err = parseWindow("2021", "2021")
	if err != nil {
		t.Fatalf("parseWindow: %v", err)
	}
	if end.Sub(start) != 365*24*time.Hour {
		t.Errorf("Expected all of 2021, got %v to %v", start, end)
	}
}

func TestParseWindow_invalid(t *testing.T) {
	if _, _, err := parseWindow("2020", "abc"); err == nil {
		t.Fatalf("Expected error when parsing invalid datestring")
	}
	if _, _, err := parseWindow("2021", "2020"); err == nil {
		t.Fatalf("Expected error for a window ending before it starts")
	}
}
