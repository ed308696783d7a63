package util

import (
	"strings"
	"time"
)

const (
	// ISODate is the request/config date layout.
	ISODate = "2006-01-02"
	// SlashDate is the canonical output layout for forecast and history rows.
	SlashDate = "2006/01/02"
	// BRDate is the dd/mm/yyyy layout used by the ipeadata page and legacy CSV files.
	BRDate = "02/01/2006"
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in UTC.
func Today() time.Time { return Day(time.Now()) }

// ParseDate accepts YYYY-MM-DD, YYYY/MM/DD and DD/MM/YYYY. Returns (t, true) if any worked.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{ISODate, SlashDate, BRDate, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), true
		}
	}
	return time.Time{}, false
}

// DayRange returns n consecutive calendar days starting at start.
func DayRange(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	start = Day(start)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// DaysBetween returns the whole number of days from a to b (negative when b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// EpochDays returns fractional days since the Unix epoch.
func EpochDays(t time.Time) float64 {
	return float64(Day(t).Unix()) / 86400
}
