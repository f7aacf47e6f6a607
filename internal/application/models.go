package application

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/persistence"
)

// Principal represents the authenticated user invoking a service method. The
// zero value means the request carried no token.
type Principal struct {
	UserID     string
	IsEmployer bool
}

// Authenticated reports whether a token identified the caller.
func (p Principal) Authenticated() bool { return p.UserID != "" }

// Settings holds the scheduling rules shared by all services.
type Settings struct {
	Location                *time.Location
	ClockInLead             time.Duration
	DefaultMonthlyGoalHours float64
	MinimumHourlyRate       decimal.Decimal
	EnforceGeofence         bool
}

// DefaultSettings mirrors the server defaults.
func DefaultSettings() Settings {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		loc = time.UTC
	}
	return Settings{
		Location:                loc,
		ClockInLead:             30 * time.Minute,
		DefaultMonthlyGoalHours: 160,
		MinimumHourlyRate:       decimal.RequireFromString("28.10"),
	}
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// EventRecorder receives domain events worth counting.
type EventRecorder interface {
	ClockIn()
	ClockOut()
	SwapTransition(status string)
	Login(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) ClockIn()              {}
func (noopRecorder) ClockOut()             {}
func (noopRecorder) SwapTransition(string) {}
func (noopRecorder) Login(string)          {}

// ServiceDeps bundles what every service needs.
type ServiceDeps struct {
	Store       persistence.Store
	IDGenerator func() string
	Now         func() time.Time
	Settings    Settings
	Logger      *slog.Logger
	Recorder    EventRecorder
}

func (d ServiceDeps) withDefaults() ServiceDeps {
	if d.IDGenerator == nil {
		d.IDGenerator = func() string { return "" }
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Settings.Location == nil {
		d.Settings.Location = time.UTC
	}
	if d.Recorder == nil {
		d.Recorder = noopRecorder{}
	}
	d.Logger = defaultLogger(d.Logger)
	return d
}

// UserSummary is the public face of another user embedded in listings.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ShiftSnapshot is the part of a shift embedded in swap listings.
type ShiftSnapshot struct {
	ID             string  `json:"id"`
	Date           string  `json:"date"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Role           string  `json:"role"`
	Location       string  `json:"location"`
	AssignedUserID *string `json:"assignedUserId"`
}

func snapshotOf(s persistence.Shift) *ShiftSnapshot {
	return &ShiftSnapshot{
		ID:             s.ID,
		Date:           s.Date,
		Start:          s.Start.String(),
		End:            s.End.String(),
		Role:           s.Role,
		Location:       s.Location,
		AssignedUserID: s.AssignedUserID,
	}
}

// OptionalID distinguishes an absent field from an explicit null in patches.
type OptionalID struct {
	Set   bool
	Value *string
}

// SetID returns an OptionalID holding id, or an explicit null when id is empty.
func SetID(id string) OptionalID {
	if id == "" {
		return OptionalID{Set: true}
	}
	return OptionalID{Set: true, Value: &id}
}

func stringPtr(s string) *string { return &s }

func displayName(snap *persistence.Snapshot, id *string) string {
	if id == nil {
		return ""
	}
	if u := snap.User(*id); u != nil {
		return u.Name
	}
	return ""
}
