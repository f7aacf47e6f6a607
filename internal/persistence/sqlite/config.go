package sqlite

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds SQLite connection settings.
type Config struct {
	// Path is the database file. ":memory:" is not supported because the
	// document must outlive the connection.
	Path string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, ...).
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string
}

// DefaultConfig returns settings suited to a single-process server.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		JournalMode: "WAL",
		Synchronous: "NORMAL",
	}
}

// Validate checks required fields.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("sqlite: path is required")
	}
	if c.Path == ":memory:" {
		return fmt.Errorf("sqlite: in-memory databases are not supported")
	}
	return nil
}

// DSN renders the modernc.org/sqlite connection string with pragmas applied
// on every new connection.
func (c Config) DSN() string {
	pragmas := []string{"foreign_keys(1)"}
	if c.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.JournalMode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	if c.Synchronous != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", c.Synchronous))
	}

	query := url.Values{}
	for _, p := range pragmas {
		query.Add("_pragma", p)
	}
	return "file:" + c.Path + "?" + query.Encode()
}
