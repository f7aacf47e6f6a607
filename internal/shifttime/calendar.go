package shifttime

import "time"

// WeekBounds returns [Monday 00:00, next Monday 00:00) for the week containing t in loc.
func WeekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	y, m, d := local.Date()
	start := time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 7)
}

// MonthBounds returns [first day 00:00, first day of next month 00:00) for t in loc.
func MonthBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	y, m, _ := t.In(loc).Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// SameDay compares calendar date components of a and b in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// FormatDate renders t as YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// DateInRange reports whether a YYYY-MM-DD date lies within the inclusive
// bounds. Empty bounds are open. Dates compare lexically.
func DateInRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
