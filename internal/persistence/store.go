package persistence

import "context"

// Store persists the single document that holds all application state.
//
// Every read loads a fresh snapshot and every mutation goes through Update.
// Implementations serialize writers: two concurrent Update calls never
// interleave their load and save.
type Store interface {
	// Load returns the current document. Callers own the returned value.
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the stored document.
	Save(ctx context.Context, snapshot *Snapshot) error
	// Update loads the document, applies fn and saves the result when fn
	// returns nil. An error from fn is returned as is and nothing is written.
	Update(ctx context.Context, fn func(*Snapshot) error) error
	// Close releases backend resources.
	Close() error
}

// Driver names accepted by configuration.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
