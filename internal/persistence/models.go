package persistence

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/shifttime"
)

// NotificationPreferences toggles the reminder channels a user subscribed to.
type NotificationPreferences struct {
	Shifts    bool `json:"shifts"`
	Swaps     bool `json:"swaps"`
	Reminders bool `json:"reminders"`
}

// User is an employee or employer account.
type User struct {
	ID               string                  `json:"id"`
	Username         string                  `json:"username"`
	Password         string                  `json:"password,omitempty"`
	Name             string                  `json:"name"`
	IsEmployer       bool                    `json:"isEmployer"`
	Phone            string                  `json:"phone,omitempty"`
	Avatar           string                  `json:"avatar,omitempty"`
	HourlyRate       decimal.Decimal         `json:"hourlyRate"`
	Positions        []string                `json:"positions"`
	Notifications    NotificationPreferences `json:"notifications"`
	MonthlyGoalHours *float64                `json:"monthlyGoalHours,omitempty"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// Shift is a scheduled work interval on one calendar date.
type Shift struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	Start          shifttime.Value `json:"start"`
	End            shifttime.Value `json:"end"`
	Role           string          `json:"role"`
	Location       string          `json:"location"`
	AssignedUserID *string         `json:"assignedUserId"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// IsAssignedTo reports whether the shift is held by userID.
func (s Shift) IsAssignedTo(userID string) bool {
	return s.AssignedUserID != nil && *s.AssignedUserID == userID
}

// Availability is a window in which a user declared they can work.
type Availability struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Date      string          `json:"date"`
	Start     shifttime.Value `json:"start"`
	End       shifttime.Value `json:"end"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SwapStatus is the lifecycle state of a swap request.
type SwapStatus string

const (
	SwapPending   SwapStatus = "pending"
	SwapAccepted  SwapStatus = "accepted"
	SwapRejected  SwapStatus = "rejected"
	SwapCancelled SwapStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s SwapStatus) Valid() bool {
	switch s {
	case SwapPending, SwapAccepted, SwapRejected, SwapCancelled:
		return true
	}
	return false
}

// Swap is a request to move a shift between users. A nil TargetUserID marks
// an open market offer.
type Swap struct {
	ID           string     `json:"id"`
	ShiftID      string     `json:"shiftId"`
	RequesterID  string     `json:"requesterId"`
	TargetUserID *string    `json:"targetUserId"`
	Status       SwapStatus `json:"status"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Coordinate is a reported device position.
type Coordinate struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// Timesheet records one clock-in and, once closed, its clock-out.
type Timesheet struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	ShiftID         *string     `json:"shiftId"`
	ClockIn         time.Time   `json:"clockIn"`
	ClockOut        *time.Time  `json:"clockOut"`
	CheckInLocation *Coordinate `json:"checkInLocation"`
}

// IsOpen reports whether the timesheet still lacks a clock-out.
func (t Timesheet) IsOpen() bool { return t.ClockOut == nil }

// Location is the employer's geofenced workplace.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	Address   string  `json:"address"`
	Name      string  `json:"name"`
}

// Company is the singleton employer record.
type Company struct {
	Name     string   `json:"name"`
	Location Location `json:"location"`
}

// IsZero reports whether the company has never been configured.
func (c Company) IsZero() bool {
	return c == Company{}
}
