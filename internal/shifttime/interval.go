package shifttime

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t, nil
}

// Interval resolves start and end on the given date. An "HH:MM" end that falls
// before the start is read as the next day, which is how overnight shifts are
// expressed. Instants are never shifted.
func Interval(date string, start, end Value, loc *time.Location) (time.Time, time.Time, error) {
	if start.IsZero() || end.IsZero() {
		return time.Time{}, time.Time{}, ErrMissingValue
	}
	day, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := start.Resolve(day, loc)
	to := end.Resolve(day, loc)
	if end.IsLocal() && to.Before(from) {
		to = to.Add(24 * time.Hour)
	}
	return from, to, nil
}

// Duration returns the length of the interval described by date, start and end.
// Malformed input yields zero.
func Duration(date string, start, end Value, loc *time.Location) time.Duration {
	from, to, err := Interval(date, start, end, loc)
	if err != nil || !to.After(from) {
		return 0
	}
	return to.Sub(from)
}

// ValidateRange rejects an end that is not strictly after the start.
//
// Two instants are compared directly. Two "HH:MM" values are compared as
// zero-padded strings, so an "HH:MM" end before its start is rejected here even
// though Interval would read it as overnight. Mixed forms are resolved on the
// date with the overnight rule and then compared.
func ValidateRange(date string, start, end Value, loc *time.Location) error {
	if start.IsZero() || end.IsZero() {
		return ErrMissingValue
	}
	day, err := ParseDate(date, loc)
	if err != nil {
		return err
	}
	switch {
	case start.IsInstant() && end.IsInstant():
		if !end.Resolve(day, loc).After(start.Resolve(day, loc)) {
			return ErrInvalidRange
		}
	case start.IsLocal() && end.IsLocal():
		if end.String() <= start.String() {
			return ErrInvalidRange
		}
	default:
		from, to, err := Interval(date, start, end, loc)
		if err != nil {
			return err
		}
		if !to.After(from) {
			return ErrInvalidRange
		}
	}
	return nil
}
