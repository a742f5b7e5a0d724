package week

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the wire format for date-only values.
const DateLayout = "2006-01-02"

// Date is a calendar day without time-of-day or location. It encodes as
// YYYY-MM-DD in JSON, including as a map key.
type Date = civil.Date

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return civil.DateOf(t)
}

// DateIn returns the calendar day of t as observed in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(t.In(loc))
}

// ParseDate parses a date-only value, or the date part of an RFC 3339 timestamp.
// For timestamps the date is taken from the literal string, so
// "2025-03-04T00:00:00.000Z" and "2025-03-04T23:30:00-08:00" both yield 2025-03-04.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) < len(DateLayout) {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}
	if len(s) > len(DateLayout) {
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
	}
	d, err := civil.ParseDate(s[:len(DateLayout)])
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and constants.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Midnight returns the start of d in loc. A nil loc means UTC.
func Midnight(d Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return d.In(loc)
}

// Weekday returns the day of the week of d.
func Weekday(d Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// RFC3339 renders d as midnight UTC, the representation Google Tasks expects for due dates.
func RFC3339(d Date) string {
	return d.In(time.UTC).Format(time.RFC3339)
}
