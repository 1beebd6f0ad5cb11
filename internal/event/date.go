package event

import (
	"strconv"
	"time"
)

// compareLayout renders a time as YYYYMMDDHHmm
const compareLayout = "200601021504"

// FormatDate renders a start time the way it is stored and displayed.
// Returns "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ParseDate parses a date produced by FormatDate.
// Returns time.Time{} (zero value) if parsing fails.
func ParseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CompareDate encodes t as the integer YYYYMMDDHHmm in t's own location,
// so that numeric order matches chronological order within one timezone.
// Returns 0 for the zero time.
func CompareDate(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	n, _ := strconv.ParseInt(t.Format(compareLayout), 10, 64)
	return n
}

// DayStart returns the CompareDate of the first minute of t's day
func DayStart(t time.Time) int64 {
	return CompareDate(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()))
}

// DayEnd returns the CompareDate of the last minute of t's day
func DayEnd(t time.Time) int64 {
	return CompareDate(time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, t.Location()))
}

// NextWeekday returns the first day on or after t falling on wd
func NextWeekday(t time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, days)
}

// IsUpcoming reports whether the entry starts at or after now.
// Entries without a start are neither upcoming nor past.
func (e CalendarEntry) IsUpcoming(now time.Time) bool {
	return e.HasStart() && !e.Start.Before(now)
}

// IsPast reports whether the entry starts at or before now
func (e CalendarEntry) IsPast(now time.Time) bool {
	return e.HasStart() && !e.Start.After(now)
}
