package util

import "time"

// CalculateActualDate returns the actual date for a target day in a given month,
// handling months with fewer days (e.g., day 31 in February returns Feb 28/29)
func CalculateActualDate(year int, month time.Month, targetDay int) time.Time {
	// Normalize month overflow (e.g. month 14 -> February of next year)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()

	// Get last day of month by going to day 0 of next month
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	actualDay := targetDay
	if actualDay > lastDay {
		actualDay = lastDay
	}

	return time.Date(year, month, actualDay, 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to d. When the target month is shorter than
// d's day of month the day is clamped to the last day of the target month, so
// Jan 31 + 1 month is Feb 28 (or 29). Every schedule calculation uses this rule.
func AddMonths(d Date, n int) Date {
	t := d.Time()
	return Date{t: CalculateActualDate(t.Year(), t.Month()+time.Month(n), t.Day())}
}
