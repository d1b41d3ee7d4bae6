// Package dateutil centralizes the calendar-date arithmetic shared by the
// rotation and recurrence generators. All values are whole days represented
// as UTC midnights; time-of-day information is carried separately as HH:MM
// strings on session records.
package dateutil

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format for calendar dates.
const Layout = "2006-01-02"

// Midnight truncates t to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("dateutil: invalid date %q: %w", value, err)
	}
	return Midnight(t), nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(Layout)
}

// AddDays advances a date by n whole days.
func AddDays(t time.Time, n int) time.Time {
	return Midnight(t).AddDate(0, 0, n)
}

// AddMonthsClamped advances a date by n calendar months, keeping the
// day-of-month. When the target month is shorter, the result is clamped to
// the last day of that month instead of spilling into the next one, which is
// what time.AddDate would do.
func AddMonthsClamped(t time.Time, n int) time.Time {
	t = Midnight(t)
	year, month, day := t.Date()

	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := DaysInMonth(target.Year(), target.Month())
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth reports the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOfWeek returns the Sunday that begins the week containing t.
func StartOfWeek(t time.Time) time.Time {
	t = Midnight(t)
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// StartOfMonth returns the first day of the month containing t.
func StartOfMonth(t time.Time) time.Time {
	t = Midnight(t)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of the month containing t.
func EndOfMonth(t time.Time) time.Time {
	t = Midnight(t)
	return time.Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()), 0, 0, 0, 0, time.UTC)
}

// DaysBetween reports the number of whole days from a to b. Negative when b
// precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}

// Contains reports whether date falls within [start, end], both inclusive.
func Contains(start, end, date time.Time) bool {
	d := Midnight(date)
	return !d.Before(Midnight(start)) && !d.After(Midnight(end))
}
