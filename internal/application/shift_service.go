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

// ShiftInput describes a shift to create.
type ShiftInput struct {
	Date           string
	Start          string
	End            string
	Role           string
	Location       string
	Notes          string
	AssignedUserID *string
}

// ShiftUpdate is a partial shift change. Nil fields keep their value.
type ShiftUpdate struct {
	Date           *string
	Start          *string
	End            *string
	Role           *string
	Location       *string
	Notes          *string
	AssignedUserID OptionalID
}

// ShiftFilter narrows a shift listing. Empty fields do not filter.
type ShiftFilter struct {
	From           string
	To             string
	UserID         string
	Role           string
	UnassignedOnly bool
}

// ShiftList is the result of a listing. TotalMinutes sums the scheduled
// durations of Shifts.
type ShiftList struct {
	Shifts       []persistence.Shift
	TotalMinutes int
}

// GroupByDay maps each date to its shifts, keeping list order.
func (l ShiftList) GroupByDay() map[string][]persistence.Shift {
	groups := make(map[string][]persistence.Shift)
	for _, sh := range l.Shifts {
		groups[sh.Date] = append(groups[sh.Date], sh)
	}
	return groups
}

// ShiftService manages the shift lifecycle.
type ShiftService struct {
	base
}

// NewShiftService constructs a ShiftService.
func NewShiftService(deps ServiceDeps) *ShiftService {
	return &ShiftService{base: newBase("ShiftService", deps)}
}

// Create validates and stores a new shift.
func (s *ShiftService) Create(ctx context.Context, principal Principal, input ShiftInput) (shift persistence.Shift, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Create", "principal_id", principal.UserID, "date", input.Date)
	defer func() {
		logOutcome(ctx, logger, err, "shift created", "shift_id", shift.ID)
	}()

	if err = requireEmployer(principal); err != nil {
		return
	}

	start, end, vErr := s.validate(input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now().UTC()
	shift = persistence.Shift{
		ID:             s.newID(),
		Date:           strings.TrimSpace(input.Date),
		Start:          start,
		End:            end,
		Role:           strings.TrimSpace(input.Role),
		Location:       strings.TrimSpace(input.Location),
		AssignedUserID: trimmedPtr(input.AssignedUserID),
		Notes:          strings.TrimSpace(input.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		if shift.AssignedUserID != nil && snap.User(*shift.AssignedUserID) == nil {
			return fieldError("assignedUserId", msgUserUnknown)
		}
		snap.Shifts = append(snap.Shifts, shift)
		return nil
	})
	return
}

// Get returns one shift.
func (s *ShiftService) Get(ctx context.Context, id string) (persistence.Shift, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return persistence.Shift{}, err
	}
	shift := snap.Shift(id)
	if shift == nil {
		return persistence.Shift{}, ErrNotFound
	}
	return *shift, nil
}

// Update applies a partial change and revalidates the merged shift.
func (s *ShiftService) Update(ctx context.Context, principal Principal, id string, patch ShiftUpdate) (shift persistence.Shift, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update", "principal_id", principal.UserID, "shift_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "shift updated")
	}()

	if err = requireEmployer(principal); err != nil {
		return
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		existing := snap.Shift(id)
		if existing == nil {
			return ErrNotFound
		}

		merged := ShiftInput{
			Date:           existing.Date,
			Start:          existing.Start.String(),
			End:            existing.End.String(),
			Role:           existing.Role,
			Location:       existing.Location,
			Notes:          existing.Notes,
			AssignedUserID: existing.AssignedUserID,
		}
		applyString(&merged.Date, patch.Date)
		applyString(&merged.Start, patch.Start)
		applyString(&merged.End, patch.End)
		applyString(&merged.Role, patch.Role)
		applyString(&merged.Location, patch.Location)
		applyString(&merged.Notes, patch.Notes)
		if patch.AssignedUserID.Set {
			merged.AssignedUserID = trimmedPtr(patch.AssignedUserID.Value)
		}

		start, end, vErr := s.validate(merged)
		if merged.AssignedUserID != nil && snap.User(*merged.AssignedUserID) == nil {
			vErr.add("assignedUserId", msgUserUnknown)
		}
		if vErr.HasErrors() {
			return vErr
		}

		existing.Date = strings.TrimSpace(merged.Date)
		existing.Start = start
		existing.End = end
		existing.Role = strings.TrimSpace(merged.Role)
		existing.Location = strings.TrimSpace(merged.Location)
		existing.Notes = strings.TrimSpace(merged.Notes)
		existing.AssignedUserID = merged.AssignedUserID
		existing.UpdatedAt = s.now().UTC()
		shift = *existing
		return nil
	})
	return
}

// Delete removes a shift and cancels the pending swaps that reference it.
func (s *ShiftService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("ShiftService is nil")
	}

	logger := s.loggerWith(ctx, "Delete", "principal_id", principal.UserID, "shift_id", id)
	cancelled := 0
	defer func() {
		logOutcome(ctx, logger, err, "shift deleted", "cancelled_swaps", cancelled)
	}()

	if err = requireEmployer(principal); err != nil {
		return
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		if snap.Shift(id) == nil {
			return ErrNotFound
		}
		shifts := snap.Shifts[:0]
		for _, sh := range snap.Shifts {
			if sh.ID != id {
				shifts = append(shifts, sh)
			}
		}
		snap.Shifts = shifts

		now := s.now().UTC()
		cancelled = 0
		for i := range snap.Swaps {
			sw := &snap.Swaps[i]
			if sw.ShiftID == id && sw.Status == persistence.SwapPending {
				sw.Status = persistence.SwapCancelled
				sw.UpdatedAt = now
				cancelled++
			}
		}
		return nil
	})
	if err == nil {
		for i := 0; i < cancelled; i++ {
			s.recorder.SwapTransition(string(persistence.SwapCancelled))
		}
	}
	return
}

// Assign sets or clears the holder of a shift.
func (s *ShiftService) Assign(ctx context.Context, principal Principal, id string, userID *string) (shift persistence.Shift, err error) {
	if s == nil {
		err = fmt.Errorf("ShiftService is nil")
		return
	}

	userID = trimmedPtr(userID)
	logger := s.loggerWith(ctx, "Assign", "principal_id", principal.UserID, "shift_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "shift assigned", "assigned_user_id", derefString(userID))
	}()

	if err = requireEmployer(principal); err != nil {
		return
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		existing := snap.Shift(id)
		if existing == nil {
			return ErrNotFound
		}
		if userID != nil && snap.User(*userID) == nil {
			return fieldError("userId", msgUserUnknown)
		}
		existing.AssignedUserID = userID
		existing.UpdatedAt = s.now().UTC()
		shift = *existing
		return nil
	})
	return
}

// List returns the shifts matching filter ordered by date, start, and id.
func (s *ShiftService) List(ctx context.Context, filter ShiftFilter) (ShiftList, error) {
	vErr := &ValidationError{}
	validateDateBounds(filter.From, filter.To, vErr)
	if vErr.HasErrors() {
		return ShiftList{}, vErr
	}

	snap, err := s.load(ctx)
	if err != nil {
		return ShiftList{}, err
	}

	loc := s.location()
	out := ShiftList{Shifts: make([]persistence.Shift, 0)}
	for _, sh := range snap.Shifts {
		if !shifttime.DateInRange(sh.Date, filter.From, filter.To) {
			continue
		}
		if filter.UserID != "" && !sh.IsAssignedTo(filter.UserID) {
			continue
		}
		if filter.UnassignedOnly && sh.AssignedUserID != nil {
			continue
		}
		if filter.Role != "" && !strings.EqualFold(sh.Role, strings.TrimSpace(filter.Role)) {
			continue
		}
		out.Shifts = append(out.Shifts, sh)
		out.TotalMinutes += shiftMinutes(sh, loc)
	}
	sortShifts(out.Shifts, loc)
	return out, nil
}

func (s *ShiftService) validate(input ShiftInput) (shifttime.Value, shifttime.Value, *ValidationError) {
	vErr := &ValidationError{}
	validateDate("date", input.Date, vErr)
	start := parseStart(input.Start, vErr)
	end := parseEnd(input.End, vErr)
	if strings.TrimSpace(input.Role) == "" {
		vErr.add("role", msgRoleRequired)
	}
	if !vErr.HasErrors() {
		checkRange(strings.TrimSpace(input.Date), start, end, s.location(), vErr)
	}
	return start, end, vErr
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// shiftInterval resolves a shift to absolute instants with the overnight rule.
func shiftInterval(sh persistence.Shift, loc *time.Location) (time.Time, time.Time, bool) {
	from, to, err := shifttime.Interval(sh.Date, sh.Start, sh.End, loc)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func shiftMinutes(sh persistence.Shift, loc *time.Location) int {
	return int(shifttime.Duration(sh.Date, sh.Start, sh.End, loc) / time.Minute)
}

func sortShifts(shifts []persistence.Shift, loc *time.Location) {
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		as, _, _ := shiftInterval(a, loc)
		bs, _, _ := shiftInterval(b, loc)
		if !as.Equal(bs) {
			return as.Before(bs)
		}
		return a.ID < b.ID
	})
}
