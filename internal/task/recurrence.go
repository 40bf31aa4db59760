package task

import (
	"fmt"
	"time"
)

// NextOccurrence computes when a recurring task is due next.
//
// Monthly uses calendar-aware month arithmetic: Jan 31 + 1 month lands on the
// last valid day of February, never on an invalid date or a fixed 30-day
// offset. Pure; no I/O.
func NextOccurrence(current time.Time, r Recurrence) (time.Time, error) {
	switch r {
	case RecurrenceDaily:
		return current.AddDate(0, 0, 1), nil
	case RecurrenceWeekly:
		return current.AddDate(0, 0, 7), nil
	case RecurrenceMonthly:
		return addCalendarMonth(current), nil
	default:
		return time.Time{}, fmt.Errorf("recurrence %q has no next occurrence", r)
	}
}

// addCalendarMonth advances one month, clamping to the last day when the
// target month is shorter. time.AddDate alone normalizes Jan 31 -> Mar 2/3,
// which is not what a monthly reminder means.
func addCalendarMonth(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfNext := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	if last := daysInMonth(firstOfNext.Month(), firstOfNext.Year()); day > last {
		day = last
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysInMonth(month time.Month, year int) int {
	// Move to the next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
