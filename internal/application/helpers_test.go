package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

type memStore struct {
	mu        sync.Mutex
	snap      *persistence.Snapshot
	loadErr   error
	updateErr error
	updates   int
}

func newMemStore(t *testing.T, snap *persistence.Snapshot) *memStore {
	t.Helper()
	if snap == nil {
		snap = persistence.NewSnapshot()
	}
	return &memStore{snap: snap}
}

func (m *memStore) Load(ctx context.Context) (*persistence.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.snap.Clone()
}

func (m *memStore) Save(ctx context.Context, snap *persistence.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone, err := snap.Clone()
	if err != nil {
		return err
	}
	m.snap = clone
	return nil
}

func (m *memStore) Update(ctx context.Context, fn func(*persistence.Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	working, err := m.snap.Clone()
	if err != nil {
		return err
	}
	if err := fn(working); err != nil {
		return err
	}
	m.snap = working
	m.updates++
	return nil
}

func (m *memStore) Close() error { return nil }

// current returns a copy of the stored document.
func (m *memStore) current(t *testing.T) *persistence.Snapshot {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.snap.Clone()
	if err != nil {
		t.Fatalf("clone snapshot: %v", err)
	}
	return snap
}

type recorderStub struct {
	mu        sync.Mutex
	clockIns  int
	clockOuts int
	swaps     map[string]int
	logins    map[string]int
}

func newRecorderStub() *recorderStub {
	return &recorderStub{swaps: map[string]int{}, logins: map[string]int{}}
}

func (r *recorderStub) ClockIn()  { r.mu.Lock(); r.clockIns++; r.mu.Unlock() }
func (r *recorderStub) ClockOut() { r.mu.Lock(); r.clockOuts++; r.mu.Unlock() }
func (r *recorderStub) SwapTransition(status string) {
	r.mu.Lock()
	r.swaps[status]++
	r.mu.Unlock()
}
func (r *recorderStub) Login(outcome string) {
	r.mu.Lock()
	r.logins[outcome]++
	r.mu.Unlock()
}

var errStoreDown = errors.New("disk unavailable")

// testNow is Wednesday 2024-01-03 10:00 in Warsaw.
func testNow(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, 1, 3, 10, 0, 0, 0, warsaw(t))
}

func warsaw(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

type testEnv struct {
	store    *memStore
	deps     ServiceDeps
	recorder *recorderStub
	now      time.Time
}

func newTestEnv(t *testing.T, snap *persistence.Snapshot) *testEnv {
	t.Helper()
	store := newMemStore(t, snap)
	rec := newRecorderStub()
	now := testNow(t)
	counter := 0
	settings := DefaultSettings()
	settings.Location = warsaw(t)
	env := &testEnv{store: store, recorder: rec, now: now}
	env.deps = ServiceDeps{
		Store: store,
		IDGenerator: func() string {
			counter++
			return fmt.Sprintf("gen-%d", counter)
		},
		Now:      func() time.Time { return env.now },
		Settings: settings,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Recorder: rec,
	}
	return env
}

var (
	employer = Principal{UserID: "boss", IsEmployer: true}
	anna     = Principal{UserID: "anna"}
	piotr    = Principal{UserID: "piotr"}
)

func seedSnapshot() *persistence.Snapshot {
	snap := persistence.NewSnapshot()
	rate := decimal.RequireFromString("30")
	snap.Users = []persistence.User{
		{ID: "boss", Username: "boss", Name: "Szef", IsEmployer: true, HourlyRate: rate, Positions: []string{}},
		{ID: "anna", Username: "anna", Name: "Anna", HourlyRate: rate, Positions: []string{"barista", "kasa"}},
		{ID: "piotr", Username: "piotr", Name: "Piotr", HourlyRate: rate, Positions: []string{"kuchnia"}},
		{ID: "ewa", Username: "ewa", Name: "Ewa", HourlyRate: rate, Positions: []string{"barista"}},
	}
	snap.Company = persistence.Company{
		Name: "WorkTime",
		Location: persistence.Location{
			Latitude:  52.2297,
			Longitude: 21.0122,
			Radius:    100,
			Name:      "Siedziba",
		},
	}
	return snap
}

func shiftFixture(id, date, start, end string, holder *string) persistence.Shift {
	return persistence.Shift{
		ID:             id,
		Date:           date,
		Start:          shifttime.MustParse(start),
		End:            shifttime.MustParse(end),
		Role:           "barista",
		Location:       "Sala",
		AssignedUserID: holder,
	}
}

func assertValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors[field]; !ok {
		t.Fatalf("expected field %q in %v", field, vErr.FieldErrors)
	}
}
