package testfixtures

import (
	"context"
	"sync"

	"github.com/example/worktime/internal/persistence"
)

// MemoryStore is a persistence.Store keeping the document in memory. Every
// Load and Update works on a deep copy, so callers observe the same isolation
// as with the real backends.
type MemoryStore struct {
	mu        sync.Mutex
	snap      *persistence.Snapshot
	LoadErr   error
	UpdateErr error
	writes    int
}

// NewMemoryStore returns a store holding snap, or an empty document.
func NewMemoryStore(snap *persistence.Snapshot) *MemoryStore {
	if snap == nil {
		snap = persistence.NewSnapshot()
	}
	return &MemoryStore{snap: snap}
}

// Load implements persistence.Store.
func (m *MemoryStore) Load(ctx context.Context) (*persistence.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.snap.Clone()
}

// Save implements persistence.Store.
func (m *MemoryStore) Save(ctx context.Context, snap *persistence.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	clone, err := snap.Clone()
	if err != nil {
		return err
	}
	clone.Revision = m.snap.Revision
	m.commit(clone)
	return nil
}

// Update implements persistence.Store.
func (m *MemoryStore) Update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return m.LoadErr
	}
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	working, err := m.snap.Clone()
	if err != nil {
		return err
	}
	if err := fn(working); err != nil {
		return err
	}
	m.commit(working)
	return nil
}

// Close implements persistence.Store.
func (m *MemoryStore) Close() error { return nil }

// Snapshot returns a copy of the stored document.
func (m *MemoryStore) Snapshot() *persistence.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone, err := m.snap.Clone()
	if err != nil {
		panic(err)
	}
	return clone
}

// Writes reports how many times the document was replaced.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryStore) commit(snap *persistence.Snapshot) {
	snap.Stamp(ReferenceTime())
	m.snap = snap
	m.writes++
}
