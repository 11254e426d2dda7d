package model

import "time"

// DayOf truncates a timestamp to its UTC calendar day. All per-day grouping
// goes through this value, never through a formatted date string.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
