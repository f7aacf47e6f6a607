package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Snapshot is the whole persisted document.
type Snapshot struct {
	Revision       int64          `json:"revision"`
	SavedAt        time.Time      `json:"savedAt"`
	Users          []User         `json:"users"`
	Shifts         []Shift        `json:"shifts"`
	Availabilities []Availability `json:"availabilities"`
	Swaps          []Swap         `json:"swaps"`
	Timesheets     []Timesheet    `json:"timesheets"`
	Company        Company        `json:"company"`
}

// NewSnapshot returns an empty document with non-nil collections.
func NewSnapshot() *Snapshot {
	s := &Snapshot{}
	s.normalize()
	return s
}

func (s *Snapshot) normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Shifts == nil {
		s.Shifts = []Shift{}
	}
	if s.Availabilities == nil {
		s.Availabilities = []Availability{}
	}
	if s.Swaps == nil {
		s.Swaps = []Swap{}
	}
	if s.Timesheets == nil {
		s.Timesheets = []Timesheet{}
	}
	for i := range s.Users {
		if s.Users[i].Positions == nil {
			s.Users[i].Positions = []string{}
		}
	}
}

// Encode renders the snapshot as indented JSON.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		s = NewSnapshot()
	}
	s.normalize()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persistence: encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a stored document.
func Decode(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrCorruptDocument)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	s.normalize()
	return &s, nil
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() (*Snapshot, error) {
	data, err := Encode(s)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Stamp advances the revision. Backends call it on every save.
func (s *Snapshot) Stamp(now time.Time) {
	s.Revision++
	s.SavedAt = now.UTC()
}

// User returns the user with id, or nil.
func (s *Snapshot) User(id string) *User {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i]
		}
	}
	return nil
}

// UserByUsername matches usernames case-insensitively.
func (s *Snapshot) UserByUsername(username string) *User {
	for i := range s.Users {
		if strings.EqualFold(s.Users[i].Username, username) {
			return &s.Users[i]
		}
	}
	return nil
}

// Shift returns the shift with id, or nil.
func (s *Snapshot) Shift(id string) *Shift {
	for i := range s.Shifts {
		if s.Shifts[i].ID == id {
			return &s.Shifts[i]
		}
	}
	return nil
}

// Availability returns the availability with id, or nil.
func (s *Snapshot) Availability(id string) *Availability {
	for i := range s.Availabilities {
		if s.Availabilities[i].ID == id {
			return &s.Availabilities[i]
		}
	}
	return nil
}

// Swap returns the swap with id, or nil.
func (s *Snapshot) Swap(id string) *Swap {
	for i := range s.Swaps {
		if s.Swaps[i].ID == id {
			return &s.Swaps[i]
		}
	}
	return nil
}

// OpenTimesheet returns the most recent open timesheet of userID, or nil.
func (s *Snapshot) OpenTimesheet(userID string) *Timesheet {
	var found *Timesheet
	for i := range s.Timesheets {
		ts := &s.Timesheets[i]
		if ts.UserID != userID || !ts.IsOpen() {
			continue
		}
		if found == nil || !ts.ClockIn.Before(found.ClockIn) {
			found = ts
		}
	}
	return found
}
