// Package timeutil provides calendar-day helpers for Study Hub.
// Daily usage quotas are partitioned by a YYYY-MM-DD day key computed in a
// configurable location, so all counters for one deployment roll over at the
// same local midnight. No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DayKeyLayout is the layout of the daily partition key.
const DayKeyLayout = "2006-01-02"

// DayKey returns the YYYY-MM-DD key for t in the given location.
// A nil location falls back to UTC.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayKeyLayout)
}

// TodayKey returns the day key for the current moment in the given location.
func TodayKey(loc *time.Location) string {
	return DayKey(time.Now(), loc)
}

// ParseDayKey parses a YYYY-MM-DD key into the midnight instant in loc.
func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

// StartOfDay returns midnight of t's day in the given location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayKey(a, loc) == DayKey(b, loc)
}

// DaysAgoKey returns the day key for n days before now in loc.
// Used by the retention job to compute the deletion cutoff.
func DaysAgoKey(n int, loc *time.Location) string {
	return DayKey(time.Now().AddDate(0, 0, -n), loc)
}

// IsStale reports whether loadedAt is older than maxAge.
// Zero loadedAt is always stale.
func IsStale(loadedAt time.Time, maxAge time.Duration) bool {
	if loadedAt.IsZero() {
		return true
	}
	return time.Since(loadedAt) > maxAge
}
