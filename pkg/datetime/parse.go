// Package datetime provides calendar-date utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/park-planner/pkg/constants"
)

// DateLayout is the format expected in config files and is also the output
// date format.
const DateLayout = constants.DateLayout

// acceptedLayouts are tried in order by ParseDate.
var acceptedLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate parses a calendar date, optionally carrying a time component, and
// returns it in canonical form.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("date value cannot be empty")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Canonical(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected %s", value, DateLayout)
}

// MustParseDate parses a date string and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseDate(value string) time.Time {
	t, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return t
}

// Canonical discards the time component of t, keeping the calendar date as
// seen in t's own location, and returns midnight UTC of that date.
func Canonical(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the calendar date of t.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Canonical(t).Format(DateLayout)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Canonical(a).Equal(Canonical(b))
}

// WithinRange reports whether date falls inside [start, end], comparing
// calendar dates only.
func WithinRange(date, start, end time.Time) bool {
	d := Canonical(date)
	return !d.Before(Canonical(start)) && !d.After(Canonical(end))
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(Canonical(end).Sub(Canonical(start)).Hours() / 24)
}
