// dates.go provides calendar arithmetic for committee schedules. Month
// addition clamps to the last day of the shorter target month instead of
// overflowing into the next one.
package validation

import "time"

// AddMonths adds n calendar months to a date. When the source day does not
// exist in the target month the result clamps to the target month's last day,
// so Jan 31 plus one month is Feb 29 in a leap year and Feb 28 otherwise.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := daysInMonth(target.Year(), target.Month())
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, t.Location())
}

// FirstOfMonth normalises a date to the first day of its month. Contribution
// months are stored in this form so the per-month uniqueness check compares
// like with like.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
