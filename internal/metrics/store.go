package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/example/worktime/internal/persistence"
)

// InstrumentedStore times every call to the wrapped store.
type InstrumentedStore struct {
	next    persistence.Store
	backend string
	metrics *Metrics
}

var _ persistence.Store = (*InstrumentedStore)(nil)

// InstrumentStore wraps store so that its operations are recorded under backend.
func InstrumentStore(store persistence.Store, backend string, m *Metrics) persistence.Store {
	if m == nil {
		return store
	}
	return &InstrumentedStore{next: store, backend: backend, metrics: m}
}

func (s *InstrumentedStore) Load(ctx context.Context) (*persistence.Snapshot, error) {
	start := time.Now()
	snap, err := s.next.Load(ctx)
	s.metrics.ObserveStore(s.backend, "load", time.Since(start), err)
	return snap, err
}

func (s *InstrumentedStore) Save(ctx context.Context, snapshot *persistence.Snapshot) error {
	start := time.Now()
	err := s.next.Save(ctx, snapshot)
	s.metrics.ObserveStore(s.backend, "save", time.Since(start), err)
	return err
}

// Update counts only storage failures as errors; a rejected mutation is a
// domain outcome, not a store error.
func (s *InstrumentedStore) Update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	var fnErr error
	start := time.Now()
	err := s.next.Update(ctx, func(snap *persistence.Snapshot) error {
		fnErr = fn(snap)
		return fnErr
	})
	storeErr := err
	if fnErr != nil && errors.Is(err, fnErr) {
		storeErr = nil
	}
	s.metrics.ObserveStore(s.backend, "update", time.Since(start), storeErr)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}
