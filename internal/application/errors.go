package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrUnauthenticated is returned when a bearer token is missing or invalid.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a record would violate a uniqueness rule.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when a password does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrAlreadyClockedIn is returned when the user still has an open timesheet.
	ErrAlreadyClockedIn = errors.New("application: already clocked in")
	// ErrNotClockedIn is returned on clock-out without an open timesheet.
	ErrNotClockedIn = errors.New("application: not clocked in")
	// ErrSwapNotPending is returned when a swap already reached a terminal state.
	ErrSwapNotPending = errors.New("application: swap is no longer pending")
	// ErrOutsideGeofence is returned when a clock-in is reported away from the workplace.
	ErrOutsideGeofence = errors.New("application: outside geofence")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, v.FieldErrors[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message per field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func fieldError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}
