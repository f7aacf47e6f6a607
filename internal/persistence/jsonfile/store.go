// Package jsonfile stores the document as a single JSON file on disk.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/worktime/internal/persistence"
)

// Store is a file-backed persistence.Store. A process-wide mutex serializes
// writers and every write goes through a temp file and rename.
type Store struct {
	path string
	now  func() time.Time

	mu     sync.Mutex
	closed bool
}

var _ persistence.Store = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp saves.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a store for path, creating the file with an empty document
// when it does not exist yet.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path is required")
	}
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create directory: %w", err)
	}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(persistence.NewSnapshot()); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("jsonfile: stat %s: %w", path, err)
	}
	return s, nil
}

// Path returns the document location.
func (s *Store) Path() string { return s.path }

// Load reads and decodes the document.
func (s *Store) Load(ctx context.Context) (*persistence.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, persistence.ErrClosed
	}
	return s.read()
}

// Save overwrites the document.
func (s *Store) Save(ctx context.Context, snapshot *persistence.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return persistence.ErrClosed
	}
	snapshot.Stamp(s.now())
	return s.write(snapshot)
}

// Update runs fn against the current document while holding the writer lock.
func (s *Store) Update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return persistence.ErrClosed
	}

	snapshot, err := s.read()
	if err != nil {
		return err
	}
	if err := fn(snapshot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot.Stamp(s.now())
	return s.write(snapshot)
}

// Close marks the store unusable.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Store) read() (*persistence.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %s: %w", s.path, err)
	}
	snapshot, err := persistence.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("jsonfile: %s: %w", s.path, err)
	}
	return snapshot, nil
}

func (s *Store) write(snapshot *persistence.Snapshot) (err error) {
	data, err := persistence.Encode(snapshot)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".worktime-*.json")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("jsonfile: sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("jsonfile: replace %s: %w", s.path, err)
	}
	return nil
}
