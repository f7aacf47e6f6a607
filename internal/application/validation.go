package application

import (
	"errors"
	"strings"
	"time"

	"github.com/example/worktime/internal/geofence"
	"github.com/example/worktime/internal/shifttime"
)

// Validation messages. The HTTP layer translates them for clients.
const (
	msgDateRequired        = "date is required"
	msgDateInvalid         = "date must be YYYY-MM-DD"
	msgStartRequired       = "start is required"
	msgStartInvalid        = "start must be HH:MM or an ISO-8601 timestamp"
	msgEndRequired         = "end is required"
	msgEndInvalid          = "end must be HH:MM or an ISO-8601 timestamp"
	msgEndBeforeStart      = "end must be after start"
	msgRoleRequired        = "role is required"
	msgUserRequired        = "userId is required"
	msgUserUnknown         = "user does not exist"
	msgShiftRequired       = "shiftId is required"
	msgShiftUnknown        = "shift does not exist"
	msgTargetIsRequester   = "target must differ from requester"
	msgUsernameRequired    = "username is required"
	msgUsernameTooShort    = "username must be at least 3 characters"
	msgPasswordRequired    = "password is required"
	msgNameRequired        = "name is required"
	msgRateBelowMinimum    = "hourly rate is below the minimum"
	msgGoalNotPositive     = "monthly goal must be positive"
	msgLatitudeRequired    = "latitude is required"
	msgLongitudeRequired   = "longitude is required"
	msgLatitudeRange       = "latitude must be between -90 and 90"
	msgLongitudeRange      = "longitude must be between -180 and 180"
	msgClockOutBeforeIn    = "clock-out cannot precede clock-in"
	msgPeriodInvalid       = "period must be week or month"
	msgStatusInvalid       = "status is invalid"
	msgRangeBoundsReversed = "from must not be after to"
)

func validateDate(field, date string, vErr *ValidationError) {
	if strings.TrimSpace(date) == "" {
		vErr.add(field, msgDateRequired)
		return
	}
	if _, err := shifttime.ParseDate(date, time.UTC); err != nil {
		vErr.add(field, msgDateInvalid)
	}
}

func validateOptionalDate(field, date string, vErr *ValidationError) {
	if strings.TrimSpace(date) == "" {
		return
	}
	validateDate(field, date, vErr)
}

func parseBoundary(field, raw string, required, invalid string, vErr *ValidationError) shifttime.Value {
	v, err := shifttime.Parse(raw)
	switch {
	case errors.Is(err, shifttime.ErrMissingValue):
		vErr.add(field, required)
	case err != nil:
		vErr.add(field, invalid)
	}
	return v
}

func parseStart(raw string, vErr *ValidationError) shifttime.Value {
	return parseBoundary("start", raw, msgStartRequired, msgStartInvalid, vErr)
}

func parseEnd(raw string, vErr *ValidationError) shifttime.Value {
	return parseBoundary("end", raw, msgEndRequired, msgEndInvalid, vErr)
}

// checkRange applies the start/end ordering rule once the individual fields
// are known to be valid.
func checkRange(date string, start, end shifttime.Value, loc *time.Location, vErr *ValidationError) {
	if vErr.HasErrors() {
		return
	}
	if err := shifttime.ValidateRange(date, start, end, loc); err != nil {
		if errors.Is(err, shifttime.ErrInvalidDate) {
			vErr.add("date", msgDateInvalid)
			return
		}
		vErr.add("end", msgEndBeforeStart)
	}
}

func validateDateBounds(from, to string, vErr *ValidationError) {
	validateOptionalDate("from", from, vErr)
	validateOptionalDate("to", to, vErr)
	if !vErr.HasErrors() && from != "" && to != "" && from > to {
		vErr.add("from", msgRangeBoundsReversed)
	}
}

// CoordinateInput carries a reported position. Pointers distinguish a
// missing coordinate from a legitimate 0.0.
type CoordinateInput struct {
	Latitude  *float64
	Longitude *float64
	Accuracy  *float64
}

func (c CoordinateInput) point(vErr *ValidationError) geofence.Point {
	if c.Latitude == nil {
		vErr.add("latitude", msgLatitudeRequired)
	}
	if c.Longitude == nil {
		vErr.add("longitude", msgLongitudeRequired)
	}
	if vErr.HasErrors() {
		return geofence.Point{}
	}
	p := geofence.Point{Latitude: *c.Latitude, Longitude: *c.Longitude}
	switch err := p.Validate(); {
	case errors.Is(err, geofence.ErrLatitudeOutOfRange):
		vErr.add("latitude", msgLatitudeRange)
	case errors.Is(err, geofence.ErrLongitudeOutOfRange):
		vErr.add("longitude", msgLongitudeRange)
	}
	return p
}

// requireEmployer rejects authenticated non-employers. Anonymous calls pass;
// the HTTP layer decides whether anonymous access is allowed at all.
func requireEmployer(p Principal) error {
	if p.Authenticated() && !p.IsEmployer {
		return ErrUnauthorized
	}
	return nil
}

// requireSelfOrEmployer lets users act on their own records.
func requireSelfOrEmployer(p Principal, userID string) error {
	if p.Authenticated() && !p.IsEmployer && p.UserID != userID {
		return ErrUnauthorized
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
