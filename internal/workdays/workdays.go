package workdays

import "time"

// Day strips the time of day, keeping the calendar date as seen in t's location.
// The result is always in UTC so dates from different zones compare cleanly.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsBusinessDay reports whether t falls on Monday through Friday
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextWorkday returns the first business day on or after t
func NextWorkday(t time.Time) time.Time {
	d := Day(t)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// AddDays shifts a calendar date by n whole days
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the whole-day difference to - from
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// CountBetween counts business days in the closed range [from, to].
// Returns 0 when to is before from.
func CountBetween(from, to time.Time) int {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return 0
	}

	days := DaysBetween(from, to) + 1
	count := (days / 7) * 5

	// Remaining partial week
	d := from.AddDate(0, 0, (days/7)*7)
	for i := 0; i < days%7; i++ {
		if IsBusinessDay(d) {
			count++
		}
		d = d.AddDate(0, 0, 1)
	}
	return count
}

// CountInWindow counts business days in the half-open window [start, end)
func CountInWindow(start, end time.Time) int {
	start, end = Day(start), Day(end)
	if !start.Before(end) {
		return 0
	}
	return CountBetween(start, end.AddDate(0, 0, -1))
}

// InWindow reports whether the calendar day of t lies in [start, end)
func InWindow(t, start, end time.Time) bool {
	d := Day(t)
	return !d.Before(Day(start)) && d.Before(Day(end))
}
