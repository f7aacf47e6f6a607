// Package shifttime models the boundaries of shifts and availability windows.
//
// A boundary arrives from clients in one of two shapes: a wall-clock "HH:MM"
// value that belongs to the record's calendar date, or a full ISO-8601
// timestamp. Value keeps the shape explicit so that validation and duration
// arithmetic can apply the rule that belongs to each form instead of sniffing
// strings at every call site.
package shifttime

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by shifts and availabilities.
const DateLayout = "2006-01-02"

// Kind identifies which form a Value was given in.
type Kind int

const (
	// KindUnset marks the zero Value.
	KindUnset Kind = iota
	// KindLocal is a zero-padded 24h "HH:MM" wall-clock time on the record's date.
	KindLocal
	// KindInstant is an absolute timestamp.
	KindInstant
)

var (
	// ErrInvalidValue indicates text that is neither "HH:MM" nor an ISO-8601 timestamp.
	ErrInvalidValue = errors.New("shifttime: value must be HH:MM or an ISO-8601 timestamp")
	// ErrInvalidDate indicates a calendar date that is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("shifttime: date must be YYYY-MM-DD")
	// ErrMissingValue indicates an unset start or end.
	ErrMissingValue = errors.New("shifttime: start and end are required")
	// ErrInvalidRange indicates an end that is not strictly after the start.
	ErrInvalidRange = errors.New("shifttime: end must be after start")
)

var localPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// floatingLayouts carry no zone offset. Their wall clock belongs to the
// location the value is resolved in.
var floatingLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// Value is either a local wall-clock time or an absolute instant.
type Value struct {
	kind    Kind
	minutes int
	instant time.Time
	// floating marks a timestamp given without an offset.
	floating bool
	raw      string
}

// Parse interprets text as "HH:MM" or as an ISO-8601 timestamp. A timestamp
// without a zone offset keeps its wall clock and is placed in the location
// passed to Resolve.
func Parse(text string) (Value, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Value{}, ErrMissingValue
	}
	if m := localPattern.FindStringSubmatch(trimmed); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return Local(hour, minute), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return Value{kind: KindInstant, instant: t, raw: trimmed}, nil
	}
	for _, layout := range floatingLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return Value{kind: KindInstant, instant: t, floating: true, raw: trimmed}, nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, trimmed)
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(text string) Value {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// Local builds a wall-clock value. Out-of-range components are clamped.
func Local(hour, minute int) Value {
	hour = min(max(hour, 0), 23)
	minute = min(max(minute, 0), 59)
	return Value{kind: KindLocal, minutes: hour*60 + minute}
}

// At builds an instant value rendered in RFC 3339.
func At(t time.Time) Value {
	return Value{kind: KindInstant, instant: t, raw: t.Format(time.RFC3339)}
}

// Kind reports the form of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.kind == KindUnset }

// IsLocal reports whether the value is an "HH:MM" time.
func (v Value) IsLocal() bool { return v.kind == KindLocal }

// IsInstant reports whether the value is an absolute timestamp.
func (v Value) IsInstant() bool { return v.kind == KindInstant }

// String renders the value in the form it was given.
func (v Value) String() string {
	switch v.kind {
	case KindLocal:
		return fmt.Sprintf("%02d:%02d", v.minutes/60, v.minutes%60)
	case KindInstant:
		return v.raw
	default:
		return ""
	}
}

// Resolve returns the absolute instant of the value on the given calendar day.
// Instants ignore the day; those without an offset are read in loc.
func (v Value) Resolve(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	switch v.kind {
	case KindLocal:
		y, m, d := day.In(loc).Date()
		return time.Date(y, m, d, v.minutes/60, v.minutes%60, 0, 0, loc)
	case KindInstant:
		if v.floating {
			y, m, d := v.instant.Date()
			return time.Date(y, m, d, v.instant.Hour(), v.instant.Minute(), v.instant.Second(), v.instant.Nanosecond(), loc)
		}
		return v.instant
	default:
		return time.Time{}
	}
}

// Equal reports whether two values have the same form and rendering.
func (v Value) Equal(other Value) bool {
	return v.kind == other.kind && v.String() == other.String()
}

// MarshalJSON renders the value as a JSON string, or null when unset.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts a JSON string in either form. null and "" leave the value unset.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidValue, string(data))
	}
	if strings.TrimSpace(text) == "" {
		*v = Value{}
		return nil
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
