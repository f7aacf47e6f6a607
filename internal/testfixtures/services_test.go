package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/persistence"
)

func TestServiceFactoryServices(t *testing.T) {
	factory := NewServiceFactory()
	store := NewMemoryStore(Document(nil, nil))
	services := factory.Services(store)

	boss := application.Principal{UserID: "boss", IsEmployer: true}
	shift, err := services.Shifts.Create(context.Background(), boss, application.ShiftInput{
		Date: "2024-01-03", Start: "09:00", End: "17:00", Role: "barista",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if shift.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", shift.ID)
	}
	if !shift.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), shift.CreatedAt)
	}
	if store.Writes() != 1 || store.Snapshot().Shift("id-1") == nil {
		t.Fatal("expected the shift to be stored")
	}
}

func TestServiceFactoryTokensOutliveClockMoves(t *testing.T) {
	factory := NewServiceFactory()
	anna := NewUser(WithUserID("anna"))
	services := factory.Services(NewMemoryStore(Document([]persistence.User{anna}, nil)))

	token, _, err := factory.Tokens().Generate(anna)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	factory.Clock.Advance(8 * time.Hour)
	principal, err := services.Auth.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("expected the token to survive a working day, got %v", err)
	}
	if principal.UserID != "anna" {
		t.Fatalf("expected principal anna, got %q", principal.UserID)
	}

	factory.Clock.Advance(TokenTTL)
	if _, err := services.Auth.Authenticate(context.Background(), token); !errors.Is(err, application.ErrUnauthenticated) {
		t.Fatalf("expected an expired token to be rejected, got %v", err)
	}
}
