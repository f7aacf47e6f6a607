package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

var (
	userCounter  uint64
	shiftCounter uint64
)

var warsaw = mustLoadLocation("Europe/Warsaw")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Location is the time zone fixtures are expressed in.
func Location() *time.Location { return warsaw }

// ReferenceTime is Wednesday 2024-01-03 10:00 in Warsaw.
func ReferenceTime() time.Time {
	return time.Date(2024, time.January, 3, 10, 0, 0, 0, warsaw)
}

// Settings returns application settings matching the fixtures.
func Settings() application.Settings {
	s := application.DefaultSettings()
	s.Location = warsaw
	return s
}

// Company is the workplace used across tests.
func Company() persistence.Company {
	return persistence.Company{
		Name: "WorkTime",
		Location: persistence.Location{
			Latitude:  52.2297,
			Longitude: 21.0122,
			Radius:    100,
			Address:   "Plac Defilad 1, Warszawa",
			Name:      "Siedziba",
		},
	}
}

// UserOption configures a user fixture.
type UserOption func(*persistence.User)

// NewUser returns an employee with deterministic defaults.
func NewUser(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := ReferenceTime().Add(-time.Duration(idx) * time.Hour).UTC()
	user := persistence.User{
		ID:            fmt.Sprintf("user-%03d", idx),
		Username:      fmt.Sprintf("user%03d", idx),
		Name:          fmt.Sprintf("Pracownik %03d", idx),
		HourlyRate:    decimal.RequireFromString("30.00"),
		Positions:     []string{},
		Notifications: persistence.NotificationPreferences{Shifts: true, Swaps: true, Reminders: true},
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the id.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUsername sets the login name.
func WithUsername(username string) UserOption {
	return func(u *persistence.User) { u.Username = username }
}

// WithName sets the display name.
func WithName(name string) UserOption {
	return func(u *persistence.User) { u.Name = name }
}

// WithPassword stores password as given, plaintext or hash.
func WithPassword(password string) UserOption {
	return func(u *persistence.User) { u.Password = password }
}

// AsEmployer sets the employer flag.
func AsEmployer() UserOption {
	return func(u *persistence.User) { u.IsEmployer = true }
}

// WithPositions sets the position ids.
func WithPositions(positions ...string) UserOption {
	return func(u *persistence.User) { u.Positions = append([]string{}, positions...) }
}

// WithHourlyRate sets the rate from a decimal string.
func WithHourlyRate(rate string) UserOption {
	return func(u *persistence.User) { u.HourlyRate = decimal.RequireFromString(rate) }
}

// ShiftOption configures a shift fixture.
type ShiftOption func(*persistence.Shift)

// NewShift returns a 09:00-17:00 barista shift on the reference date.
func NewShift(opts ...ShiftOption) persistence.Shift {
	idx := atomic.AddUint64(&shiftCounter, 1)
	created := ReferenceTime().Add(-24 * time.Hour).UTC()
	shift := persistence.Shift{
		ID:        fmt.Sprintf("shift-%03d", idx),
		Date:      "2024-01-03",
		Start:     shifttime.Local(9, 0),
		End:       shifttime.Local(17, 0),
		Role:      "barista",
		Location:  "Sala główna",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&shift)
	}
	return shift
}

// WithShiftID overrides the id.
func WithShiftID(id string) ShiftOption {
	return func(s *persistence.Shift) { s.ID = id }
}

// OnDate sets the shift date.
func OnDate(date string) ShiftOption {
	return func(s *persistence.Shift) { s.Date = date }
}

// Between sets start and end from their textual forms.
func Between(start, end string) ShiftOption {
	return func(s *persistence.Shift) {
		s.Start = shifttime.MustParse(start)
		s.End = shifttime.MustParse(end)
	}
}

// AssignedTo sets the holder.
func AssignedTo(userID string) ShiftOption {
	return func(s *persistence.Shift) {
		id := userID
		s.AssignedUserID = &id
	}
}

// WithRole sets the role label.
func WithRole(role string) ShiftOption {
	return func(s *persistence.Shift) { s.Role = role }
}

// PendingSwap returns a pending swap for shiftID. An empty target makes it an
// open market offer.
func PendingSwap(id, shiftID, requesterID, targetID string) persistence.Swap {
	swap := persistence.Swap{
		ID:          id,
		ShiftID:     shiftID,
		RequesterID: requesterID,
		Status:      persistence.SwapPending,
		CreatedAt:   ReferenceTime().UTC(),
		UpdatedAt:   ReferenceTime().UTC(),
	}
	if targetID != "" {
		swap.TargetUserID = &targetID
	}
	return swap
}

// Availability returns an availability window for userID.
func Availability(id, userID, date, start, end string) persistence.Availability {
	return persistence.Availability{
		ID:        id,
		UserID:    userID,
		Date:      date,
		Start:     shifttime.MustParse(start),
		End:       shifttime.MustParse(end),
		CreatedAt: ReferenceTime().UTC(),
		UpdatedAt: ReferenceTime().UTC(),
	}
}

// Document assembles a snapshot holding the company and the given users and
// shifts.
func Document(users []persistence.User, shifts []persistence.Shift) *persistence.Snapshot {
	snap := persistence.NewSnapshot()
	snap.Company = Company()
	snap.Users = append(snap.Users, users...)
	snap.Shifts = append(snap.Shifts, shifts...)
	return snap
}
