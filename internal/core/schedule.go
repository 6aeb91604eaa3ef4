package core

import "time"

// DaysUntil returns the whole number of calendar days from ref to target.
// Positive means in the future, zero means the same day, negative means
// overdue. Both dates must be valid; a zero date yields ErrInvalidDate so
// callers decide whether to surface or skip the record.
func DaysUntil(target, ref Date) (int, error) {
	if err := target.Validate(); err != nil {
		return 0, err
	}
	if err := ref.Validate(); err != nil {
		return 0, err
	}
	t := time.Date(target.Year(), time.Month(target.Month()), target.Day(), 0, 0, 0, 0, time.UTC)
	r := time.Date(ref.Year(), time.Month(ref.Month()), ref.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(r).Hours() / 24), nil
}

// AdvanceIfPast moves a billing date forward by exactly one calendar month
// when it lies before ref, otherwise returns it unchanged. Day-of-month
// overflow clamps to the last day of the target month (Jan 31 -> Feb 28).
// Once the date is not in the past the function is a no-op, so repeated
// application is stable.
func AdvanceIfPast(d, ref Date) Date {
	if d.IsZero() || ref.IsZero() {
		return d
	}
	if !d.Time.Before(ref.Time) {
		return d
	}
	return addOneMonthClamped(d)
}

func addOneMonthClamped(d Date) Date {
	year, month := d.Year(), d.Month()+1
	if month > 12 {
		month = 1
		year++
	}
	day := d.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

// lastDayOfMonth exploits time.Date normalization: day 0 of the next
// month is the last day of this one.
func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
