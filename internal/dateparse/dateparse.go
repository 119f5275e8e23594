// Package dateparse turns loosely formatted request values into instants.
//
// Strategies run in order and the first one that succeeds wins:
// native (time.Time, epoch milliseconds, ISO 8601 and a few human layouts),
// then day-first D/M/Y with '/' or '-' separators. Values shaped like D/M/Y
// skip the native strategy, so 01/02/2024 is always 1 February and never a
// month-first native reading. Every result is UTC with millisecond precision,
// which is what the document store keeps, and falls within years 0..9999.
package dateparse

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

type strategy func(v any) (time.Time, bool)

var strategies = []strategy{parseNative, parseDayFirst}

var dayFirstRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)

var epochRe = regexp.MustCompile(`^-?\d+$`)

const (
	minYear = 0
	maxYear = 9999
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// humanDates is tried after ISO. Slash layouts with a leading day or month
// are deliberately absent: that shape belongs to the day-first strategy.
var humanDates = &now.Config{
	TimeLocation: time.UTC,
	TimeFormats: []string{
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 2 2006",
		"2 Jan 2006",
		"2 January 2006",
		"Mon Jan 2 2006",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"2006/01/02",
		"2006/1/2",
		"2006.01.02",
		"2006-1-2",
	},
}

// Parse returns the instant v denotes, or false when no strategy accepts it.
// Instants outside years 0..9999 are refused: they cannot be rendered as
// RFC 3339.
func Parse(v any) (time.Time, bool) {
	for _, s := range strategies {
		if t, ok := s(v); ok {
			t = Canonical(t)
			if y := t.Year(); y < minYear || y > maxYear {
				return time.Time{}, false
			}
			return t, true
		}
	}
	return time.Time{}, false
}

// Canonical normalizes t to the stored representation.
func Canonical(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func parseNative(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromMillis(f)
	case float64:
		return fromMillis(x)
	case int:
		return time.UnixMilli(int64(x)), true
	case int64:
		return time.UnixMilli(x), true
	case string:
		return parseNativeString(strings.TrimSpace(x))
	}
	return time.Time{}, false
}

func parseNativeString(s string) (time.Time, bool) {
	if s == "" || dayFirstRe.MatchString(s) {
		return time.Time{}, false
	}
	if epochRe.MatchString(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms), true
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	if t, err := humanDates.Parse(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func fromMillis(f float64) (time.Time, bool) {
	// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(f)), true
}

func parseDayFirst(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	m := dayFirstRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date rolls 31/02 over into March; reject instead.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
