package testfixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/example/worktime/internal/persistence"
)

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(Document([]persistence.User{NewUser(WithUserID("anna"))}, nil))

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	loaded.Users = nil
	if store.Snapshot().User("anna") == nil {
		t.Fatal("mutating a loaded copy changed the store")
	}

	boom := errors.New("boom")
	err = store.Update(ctx, func(s *persistence.Snapshot) error {
		s.Users = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if store.Writes() != 0 || store.Snapshot().User("anna") == nil {
		t.Fatal("failed update must not write")
	}

	if err := store.Update(ctx, func(s *persistence.Snapshot) error {
		s.Shifts = append(s.Shifts, NewShift(WithShiftID("s1"), AssignedTo("anna")))
		return nil
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	snap := store.Snapshot()
	if snap.Revision != 1 || !snap.Shift("s1").IsAssignedTo("anna") {
		t.Fatalf("unexpected document %+v", snap)
	}
}

func TestSQLiteStoreFixture(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(t, Document([]persistence.User{NewUser(WithUserID("boss"), AsEmployer())}, nil))

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if u := snap.User("boss"); u == nil || !u.IsEmployer {
		t.Fatalf("expected seeded employer, got %+v", u)
	}
	if snap.Company != Company() {
		t.Fatalf("unexpected company %+v", snap.Company)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Load: expected context.Canceled, got %v", err)
	}
	if err := store.Save(ctx, persistence.NewSnapshot()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Save: expected context.Canceled, got %v", err)
	}
	if err := store.Update(ctx, func(*persistence.Snapshot) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("Update: expected context.Canceled, got %v", err)
	}
	if store.Writes() != 0 {
		t.Fatalf("expected no writes, got %d", store.Writes())
	}
}
