package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/persistence"
)

// UserUpdate is a partial profile change. Nil fields are left untouched.
type UserUpdate struct {
	Name             *string
	Phone            *string
	Avatar           *string
	HourlyRate       *decimal.Decimal
	Positions        *[]string
	Notifications    *persistence.NotificationPreferences
	MonthlyGoalHours *float64
	IsEmployer       *bool
}

// FilterInput selects employees for assignment decisions.
type FilterInput struct {
	Date               string
	PositionIDs        []string
	IncludeUnavailable bool
}

// FilteredEmployee is an employee together with their availability on the
// filtered date.
type FilteredEmployee struct {
	persistence.User
	Availability *persistence.Availability `json:"availability"`
	IsAvailable  bool                      `json:"isAvailable"`
}

// UserService manages profiles and the employee directory.
type UserService struct {
	base
}

// NewUserService constructs a UserService.
func NewUserService(deps ServiceDeps) *UserService {
	return &UserService{base: newBase("UserService", deps)}
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (persistence.User, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	user := snap.User(id)
	if user == nil {
		return persistence.User{}, ErrNotFound
	}
	return publicUser(*user), nil
}

// List returns every user ordered by name.
func (s *UserService) List(ctx context.Context) ([]persistence.User, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]persistence.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, publicUser(u))
	}
	sortUsers(users)
	return users, nil
}

// Update applies a partial profile change. Users may edit themselves;
// employers may edit anyone and are the only ones who can toggle isEmployer.
func (s *UserService) Update(ctx context.Context, principal Principal, id string, patch UserUpdate) (user persistence.User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Update", "principal_id", principal.UserID, "user_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "user updated")
	}()

	if err = requireSelfOrEmployer(principal, id); err != nil {
		return
	}
	if patch.IsEmployer != nil && !principal.IsEmployer {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		vErr.add("name", msgNameRequired)
	}
	if patch.HourlyRate != nil && patch.HourlyRate.LessThan(s.settings.MinimumHourlyRate) {
		vErr.add("hourlyRate", msgRateBelowMinimum)
	}
	if patch.MonthlyGoalHours != nil && *patch.MonthlyGoalHours <= 0 {
		vErr.add("monthlyGoalHours", msgGoalNotPositive)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		target := snap.User(id)
		if target == nil {
			return ErrNotFound
		}
		if patch.Name != nil {
			target.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			target.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Avatar != nil {
			target.Avatar = strings.TrimSpace(*patch.Avatar)
		}
		if patch.HourlyRate != nil {
			target.HourlyRate = *patch.HourlyRate
		}
		if patch.Positions != nil {
			target.Positions = uniqueStrings(*patch.Positions)
		}
		if patch.Notifications != nil {
			target.Notifications = *patch.Notifications
		}
		if patch.MonthlyGoalHours != nil {
			goal := *patch.MonthlyGoalHours
			target.MonthlyGoalHours = &goal
		}
		if patch.IsEmployer != nil {
			target.IsEmployer = *patch.IsEmployer
		}
		target.UpdatedAt = s.now().UTC()
		user = publicUser(*target)
		return nil
	})
	return
}

// Delete removes a user together with their availabilities and pending
// swaps. Shifts they held become unassigned; timesheets are kept.
func (s *UserService) Delete(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}

	logger := s.loggerWith(ctx, "Delete", "principal_id", principal.UserID, "user_id", id)
	defer func() {
		logOutcome(ctx, logger, err, "user deleted")
	}()

	if err = requireEmployer(principal); err != nil {
		return
	}

	return s.update(ctx, func(snap *persistence.Snapshot) error {
		if snap.User(id) == nil {
			return ErrNotFound
		}
		now := s.now().UTC()

		users := snap.Users[:0]
		for _, u := range snap.Users {
			if u.ID != id {
				users = append(users, u)
			}
		}
		snap.Users = users

		avails := snap.Availabilities[:0]
		for _, a := range snap.Availabilities {
			if a.UserID != id {
				avails = append(avails, a)
			}
		}
		snap.Availabilities = avails

		swaps := snap.Swaps[:0]
		for _, sw := range snap.Swaps {
			involved := sw.RequesterID == id || (sw.TargetUserID != nil && *sw.TargetUserID == id)
			if sw.Status == persistence.SwapPending && involved {
				continue
			}
			swaps = append(swaps, sw)
		}
		snap.Swaps = swaps

		for i := range snap.Shifts {
			if snap.Shifts[i].IsAssignedTo(id) {
				snap.Shifts[i].AssignedUserID = nil
				snap.Shifts[i].UpdatedAt = now
			}
		}
		return nil
	})
}

// Filter lists employees matching the requested positions and, for a date,
// their availability on it.
func (s *UserService) Filter(ctx context.Context, input FilterInput) ([]FilteredEmployee, error) {
	if input.Date != "" {
		vErr := &ValidationError{}
		validateDate("date", input.Date, vErr)
		if vErr.HasErrors() {
			return nil, vErr
		}
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	wanted := uniqueStrings(input.PositionIDs)
	out := make([]FilteredEmployee, 0)
	for _, u := range snap.Users {
		if u.IsEmployer || !hasAnyPosition(u.Positions, wanted) {
			continue
		}
		entry := FilteredEmployee{User: publicUser(u), IsAvailable: true}
		if input.Date != "" {
			entry.Availability = availabilityOn(snap, u.ID, input.Date)
			entry.IsAvailable = entry.Availability != nil
		}
		if !entry.IsAvailable && !input.IncludeUnavailable {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lessUser(out[i].User, out[j].User)
	})
	return out, nil
}

func hasAnyPosition(positions, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	for _, p := range positions {
		for _, w := range wanted {
			if p == w {
				return true
			}
		}
	}
	return false
}

func availabilityOn(snap *persistence.Snapshot, userID, date string) *persistence.Availability {
	for i := range snap.Availabilities {
		a := snap.Availabilities[i]
		if a.UserID == userID && a.Date == date {
			return &a
		}
	}
	return nil
}

func sortUsers(users []persistence.User) {
	sort.SliceStable(users, func(i, j int) bool { return lessUser(users[i], users[j]) })
}

func lessUser(a, b persistence.User) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}
