package util

import "time"

// PreviousMonth returns the year and month for the previous month
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// NextMonth returns the year and month for the following month
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// ValidMonth reports whether year/month is a usable calendar month
func ValidMonth(year, month int) bool {
	return year >= 1970 && year <= 9999 && month >= 1 && month <= 12
}

// MonthBoundaries returns the first and the last instant of a month in UTC.
// Both bounds are inclusive.
func MonthBoundaries(year, month int) (time.Time, time.Time) {
	start, next := MonthRange(year, month)
	return start, next.Add(-time.Nanosecond)
}

// MonthRange returns a month as the half-open range [start, nextMonthStart)
func MonthRange(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// DaysInMonth returns the number of days in a month
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	actualDay := targetDay
	if lastDay := DaysInMonth(year, month); actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped adds n months to t, clamping the day to the end of the
// target month. The time of day and location are kept.
func AddMonthsClamped(t time.Time, n int) time.Time {
	total := int(t.Month()) - 1 + n
	year := t.Year() + total/12
	m := total % 12
	if m < 0 {
		m += 12
		year--
	}
	month := time.Month(m + 1)

	day := t.Day()
	if lastDay := DaysInMonth(year, month); day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)) / (24 * time.Hour))
}
