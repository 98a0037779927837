// Package timeutil holds the date and duration helpers shared by the store,
// analytics, exports and the TUI. Dates are calendar days in local time,
// formatted YYYY-MM-DD.
package timeutil

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dustin/go-humanize"
)

// DateLayout is the canonical date format used for session dates and note keys.
const DateLayout = "2006-01-02"

var dateShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsDate reports whether s has the YYYY-MM-DD shape. It does not check that
// the date exists on the calendar; use ParseDate for that.
func IsDate(s string) bool {
	return dateShape.MatchString(s)
}

// DateString formats t as a local calendar date.
func DateString(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// Today returns the local date of now.
func Today(now time.Time) string {
	return DateString(now)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if !IsDate(s) {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// AddDays shifts a date string by n calendar days. Invalid input is returned
// unchanged.
func AddDays(date string, n int) string {
	t, err := ParseDate(date, time.Local)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// FormatDuration renders d as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatCountdown renders d as MM:SS, clamping negatives to zero.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FormatMinutes renders a minute count as "45m" or "2h 05m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// FormatHour renders an hour of day as "14:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// Ago describes t relative to now, e.g. "3 minutes ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
