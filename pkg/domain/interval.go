package domain

import "time"

// RecurringInterval is the cadence of a recurring transaction template.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "DAILY"
	IntervalWeekly  RecurringInterval = "WEEKLY"
	IntervalMonthly RecurringInterval = "MONTHLY"
	IntervalYearly  RecurringInterval = "YEARLY"
)

// Valid reports whether the interval is one of the supported cadences.
func (i RecurringInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly, IntervalYearly:
		return true
	}
	return false
}

// Next returns the occurrence following from for this interval.
//
// Month and year steps clamp to the last day of the target month, so
// Jan 31 + MONTHLY lands on Feb 28 (29 in leap years) rather than rolling
// over into March, and Feb 29 + YEARLY lands on Feb 28.
func (i RecurringInterval) Next(from time.Time) time.Time {
	switch i {
	case IntervalDaily:
		return from.AddDate(0, 0, 1)
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return addMonthsClamped(from, 1)
	case IntervalYearly:
		return addMonthsClamped(from, 12)
	}
	return from
}

// addMonthsClamped adds months to t, clamping the day of month to the length
// of the target month. time.Time.AddDate normalizes overflow days into the
// next month, which is not the calendar arithmetic a billing schedule wants.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	if last := daysIn(year, time.Month(m)); day > last {
		day = last
	}
	return time.Date(year, time.Month(m), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthStart returns midnight on the first day of t's calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// SameMonth reports whether a and b fall in the same calendar month and year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
