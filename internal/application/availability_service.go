package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

// AvailabilityInput describes a window a user can work.
type AvailabilityInput struct {
	UserID string
	Date   string
	Start  string
	End    string
	Notes  string
}

// AvailabilityUpdate is a partial availability change.
type AvailabilityUpdate struct {
	Date  *string
	Start *string
	End   *string
	Notes *string
}

// AvailabilityFilter narrows an availability listing.
type AvailabilityFilter struct {
	UserID   string
	From     string
	To       string
	WithUser bool
}

// AvailabilityView is an availability optionally carrying its owner's name.
type AvailabilityView struct {
	persistence.Availability
	UserName string `json:"userName,omitempty"`
}

// AvailabilityService manages declared availability windows.
type AvailabilityService struct {
	base
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(deps ServiceDeps) *AvailabilityService {
	return &AvailabilityService{base: newBase("AvailabilityService", deps)}
}

// Create stores a new availability. A user has at most one per date.
func (s *AvailabilityService) Create(ctx context.Context, principal Principal, input AvailabilityInput) (avail persistence.Availability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	userID := strings.TrimSpace(input.UserID)
	logger := s.loggerWith(ctx, "Create", "principal_id", principal.UserID, "user_id", userID, "date", input.Date)
	defer func() {
		logOutcome(ctx, logger, err, "availability created", "availability_id", avail.ID)
	}()

	vErr := &ValidationError{}
	if userID == "" {
		vErr.add("userId", msgUserRequired)
	}
	start, end := s.validate(input.Date, input.Start, input.End, vErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if err = requireSelfOrEmployer(principal, userID); err != nil {
		return
	}

	now := s.now().UTC()
	avail = persistence.Availability{
		ID:        s.newID(),
		UserID:    userID,
		Date:      strings.TrimSpace(input.Date),
		Start:     start,
		End:       end,
		Notes:     strings.TrimSpace(input.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		if snap.User(userID) == nil {
			return fieldError("userId", msgUserUnknown)
		}
		if clash := availabilityOn(snap, userID, avail.Date); clash != nil {
			return ErrAlreadyExists
		}
		snap.Availabilities = append(snap.Availabilities, avail)
		return nil
	})
	return
}

// Update changes an availability in place.
func (s *AvailabilityService) Update(ctx context.Context, principal Principal, id string, patch AvailabilityUpdate) (avail persistence.Availability, err error) {
	if s == nil {
		err = fmt.Errorf("AvailabilityService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update", "principal_id", principal.UserID, "availability_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "availability updated")
	}()

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		existing := snap.Availability(id)
		if existing == nil {
			return ErrNotFound
		}
		if err := requireSelfOrEmployer(principal, existing.UserID); err != nil {
			return err
		}

		date, startRaw, endRaw, notes := existing.Date, existing.Start.String(), existing.End.String(), existing.Notes
		applyString(&date, patch.Date)
		applyString(&startRaw, patch.Start)
		applyString(&endRaw, patch.End)
		applyString(&notes, patch.Notes)
		date = strings.TrimSpace(date)

		vErr := &ValidationError{}
		start, end := s.validate(date, startRaw, endRaw, vErr)
		if vErr.HasErrors() {
			return vErr
		}
		if clash := availabilityOn(snap, existing.UserID, date); clash != nil && clash.ID != existing.ID {
			return ErrAlreadyExists
		}

		existing.Date = date
		existing.Start = start
		existing.End = end
		existing.Notes = strings.TrimSpace(notes)
		existing.UpdatedAt = s.now().UTC()
		avail = *existing
		return nil
	})
	return
}

// Delete removes an availability.
func (s *AvailabilityService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("AvailabilityService is nil")
	}

	logger := s.loggerWith(ctx, "Delete", "principal_id", principal.UserID, "availability_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "availability deleted")
	}()

	return s.update(ctx, func(snap *persistence.Snapshot) error {
		existing := snap.Availability(id)
		if existing == nil {
			return ErrNotFound
		}
		if err := requireSelfOrEmployer(principal, existing.UserID); err != nil {
			return err
		}
		kept := snap.Availabilities[:0]
		for _, a := range snap.Availabilities {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		snap.Availabilities = kept
		return nil
	})
}

// List returns availabilities ordered by date, start, and id.
func (s *AvailabilityService) List(ctx context.Context, filter AvailabilityFilter) ([]AvailabilityView, error) {
	vErr := &ValidationError{}
	validateDateBounds(filter.From, filter.To, vErr)
	if vErr.HasErrors() {
		return nil, vErr
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]AvailabilityView, 0)
	for _, a := range snap.Availabilities {
		if filter.UserID != "" && a.UserID != filter.UserID {
			continue
		}
		if !shifttime.DateInRange(a.Date, filter.From, filter.To) {
			continue
		}
		view := AvailabilityView{Availability: a}
		if filter.WithUser {
			view.UserName = displayName(snap, &a.UserID)
		}
		out = append(out, view)
	}

	loc := s.location()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Availability, out[j].Availability
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		as, _, errA := shifttime.Interval(a.Date, a.Start, a.End, loc)
		bs, _, errB := shifttime.Interval(b.Date, b.Start, b.End, loc)
		if errA == nil && errB == nil && !as.Equal(bs) {
			return as.Before(bs)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *AvailabilityService) validate(date, start, end string, vErr *ValidationError) (shifttime.Value, shifttime.Value) {
	validateDate("date", date, vErr)
	startVal := parseStart(start, vErr)
	endVal := parseEnd(end, vErr)
	checkRange(strings.TrimSpace(date), startVal, endVal, s.location(), vErr)
	return startVal, endVal
}
