package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

// ClockInInput starts a work session. At defaults to now.
type ClockInInput struct {
	UserID   string
	At       *time.Time
	ShiftID  *string
	Location *CoordinateInput
}

// ClockOutInput ends the open work session. At defaults to now.
type ClockOutInput struct {
	UserID string
	At     *time.Time
}

// TimesheetFilter narrows a timesheet listing. From and To bound the
// clock-in date in the company time zone.
type TimesheetFilter struct {
	UserID string
	From   string
	To     string
}

// TimesheetView is a timesheet with its worked minutes once closed.
type TimesheetView struct {
	persistence.Timesheet
	WorkedMinutes *int `json:"workedMinutes"`
}

// TimesheetService records clock-in and clock-out events.
type TimesheetService struct {
	base
}

// NewTimesheetService constructs a TimesheetService.
func NewTimesheetService(deps ServiceDeps) *TimesheetService {
	return &TimesheetService{base: newBase("TimesheetService", deps)}
}

// ClockIn opens a timesheet. A user can hold one open timesheet at a time.
func (s *TimesheetService) ClockIn(ctx context.Context, principal Principal, input ClockInInput) (sheet persistence.Timesheet, err error) {
	if s == nil {
		err = fmt.Errorf("TimesheetService is nil")
		return
	}

	userID := strings.TrimSpace(input.UserID)
	shiftID := trimmedPtr(input.ShiftID)
	logger := s.loggerWith(ctx, "ClockIn", "principal_id", principal.UserID, "user_id", userID, "shift_id", derefString(shiftID))
	defer func() {
		logOutcome(ctx, logger, err, "clocked in", "timesheet_id", sheet.ID)
	}()

	vErr := &ValidationError{}
	if userID == "" {
		vErr.add("userId", msgUserRequired)
	}
	var coord *persistence.Coordinate
	if input.Location != nil {
		p := input.Location.point(vErr)
		if !vErr.HasErrors() {
			coord = &persistence.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude, Accuracy: input.Location.Accuracy}
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = requireSelfOrEmployer(principal, userID); err != nil {
		return
	}

	sheet = persistence.Timesheet{
		ID:              s.newID(),
		UserID:          userID,
		ShiftID:         shiftID,
		ClockIn:         s.timestamp(input.At),
		CheckInLocation: coord,
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		if snap.User(userID) == nil {
			return fieldError("userId", msgUserUnknown)
		}
		if snap.OpenTimesheet(userID) != nil {
			return ErrAlreadyClockedIn
		}
		if shiftID != nil && snap.Shift(*shiftID) == nil {
			return fieldError("shiftId", msgShiftUnknown)
		}
		if coord != nil && s.settings.EnforceGeofence && !snap.Company.IsZero() {
			result := fenceOf(snap.Company).Check(pointOf(*coord))
			if !result.IsWithin {
				return fmt.Errorf("%w: %d m from the workplace", ErrOutsideGeofence, result.Distance)
			}
		}
		snap.Timesheets = append(snap.Timesheets, sheet)
		return nil
	})
	if err == nil {
		s.recorder.ClockIn()
	}
	return
}

// ClockOut closes the most recent open timesheet of the user.
func (s *TimesheetService) ClockOut(ctx context.Context, principal Principal, input ClockOutInput) (sheet persistence.Timesheet, err error) {
	if s == nil {
		err = fmt.Errorf("TimesheetService is nil")
		return
	}

	userID := strings.TrimSpace(input.UserID)
	logger := s.loggerWith(ctx, "ClockOut", "principal_id", principal.UserID, "user_id", userID)
	defer func() {
		logOutcome(ctx, logger, err, "clocked out", "timesheet_id", sheet.ID)
	}()

	if userID == "" {
		err = fieldError("userId", msgUserRequired)
		return
	}
	if err = requireSelfOrEmployer(principal, userID); err != nil {
		return
	}

	at := s.timestamp(input.At)
	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		open := snap.OpenTimesheet(userID)
		if open == nil {
			return ErrNotClockedIn
		}
		if at.Before(open.ClockIn) {
			return fieldError("timestamp", msgClockOutBeforeIn)
		}
		open.ClockOut = &at
		sheet = *open
		return nil
	})
	if err == nil {
		s.recorder.ClockOut()
	}
	return
}

// Active returns the open timesheet of the user, or nil when there is none.
func (s *TimesheetService) Active(ctx context.Context, userID string) (*persistence.Timesheet, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	open := snap.OpenTimesheet(userID)
	if open == nil {
		return nil, nil
	}
	sheet := *open
	return &sheet, nil
}

// List returns timesheets ordered by clock-in, newest first.
func (s *TimesheetService) List(ctx context.Context, filter TimesheetFilter) ([]TimesheetView, error) {
	vErr := &ValidationError{}
	validateDateBounds(filter.From, filter.To, vErr)
	if vErr.HasErrors() {
		return nil, vErr
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	loc := s.location()
	out := make([]TimesheetView, 0)
	for _, ts := range snap.Timesheets {
		if filter.UserID != "" && ts.UserID != filter.UserID {
			continue
		}
		if !shifttime.DateInRange(shifttime.FormatDate(ts.ClockIn, loc), filter.From, filter.To) {
			continue
		}
		view := TimesheetView{Timesheet: ts}
		if ts.ClockOut != nil {
			minutes := workedMinutes(ts)
			view.WorkedMinutes = &minutes
		}
		out = append(out, view)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ClockIn.Equal(b.ClockIn) {
			return a.ClockIn.After(b.ClockIn)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func workedMinutes(ts persistence.Timesheet) int {
	if ts.ClockOut == nil || ts.ClockOut.Before(ts.ClockIn) {
		return 0
	}
	return int(ts.ClockOut.Sub(ts.ClockIn) / time.Minute)
}
