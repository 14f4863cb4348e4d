// Package utils holds the calendar arithmetic the recurrence engine leans
// on: Monday-anchored week indexing, day-of-month clamping and calendar-date
// keys. All helpers are timezone-preserving and pure.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateKeyLayout is the calendar-date form used to key exception sets and
// already-generated dates.
const DateKeyLayout = "2006-01-02"

// DateKey reduces an instant to its calendar date in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// StartOfWeek returns Monday 00:00 of the week containing t, in t's
// location.
func StartOfWeek(t time.Time) time.Time {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -daysSinceMonday)
}

// WeekBlocksBetween counts whole calendar weeks (Monday-anchored) from the
// week containing `from` to the week containing `to`. Same week yields 0,
// the following week 1, and so on.
func WeekBlocksBetween(from, to time.Time) int {
	start := StartOfWeek(from)
	end := StartOfWeek(to)
	return int(end.Sub(start).Hours() / (24 * 7))
}

// ClampedDayInMonth returns the instant at `day` of the given month,
// clamped to the month's last day when `day` does not exist there (the 31st
// in February lands on the 28th or 29th). Time-of-day is preserved.
func ClampedDayInMonth(year int, month time.Month, day int, timeOfDay time.Time) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, timeOfDay.Location()).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(
		year, month, day,
		timeOfDay.Hour(), timeOfDay.Minute(), timeOfDay.Second(), 0,
		timeOfDay.Location(),
	)
}

// AddMonthsAnchored steps `months` whole months forward from anchor,
// re-clamping against the anchor's day-of-month each time so a series that
// starts on the 31st returns to the 31st in months that have one.
func AddMonthsAnchored(anchor time.Time, months int) time.Time {
	// Normalize via the first of the month so AddDate cannot spill into the
	// following month before clamping.
	firstOfTarget := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).
		AddDate(0, months, 0)
	return ClampedDayInMonth(firstOfTarget.Year(), firstOfTarget.Month(), anchor.Day(), anchor)
}

// ParseWeekday maps a lowercase day name ("monday") to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return time.Sunday, fmt.Errorf("unknown weekday: %q", name)
}
