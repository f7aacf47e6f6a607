package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/shifttime"
)

func TestAvailabilityService_Create(t *testing.T) {
	t.Parallel()

	t.Run("stores a window", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := NewAvailabilityService(env.deps)

		avail, err := svc.Create(context.Background(), anna, AvailabilityInput{UserID: "anna", Date: "2024-01-04", Start: "08:00", End: "14:00", Notes: " rano "})
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		if avail.Notes != "rano" || avail.Start.String() != "08:00" {
			t.Fatalf("unexpected availability %+v", avail)
		}
	})

	t.Run("rejects a second window on the same date", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := NewAvailabilityService(env.deps)
		ctx := context.Background()

		in := AvailabilityInput{UserID: "anna", Date: "2024-01-04", Start: "08:00", End: "14:00"}
		if _, err := svc.Create(ctx, anna, in); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
		in.Start, in.End = "15:00", "20:00"
		if _, err := svc.Create(ctx, anna, in); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("applies the shift range rule", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := NewAvailabilityService(env.deps)

		_, err := svc.Create(context.Background(), Principal{}, AvailabilityInput{UserID: "anna", Date: "2024-01-04", Start: "14:00", End: "08:00"})
		assertValidationField(t, err, "end")
	})

	t.Run("requires an existing user", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := NewAvailabilityService(env.deps)

		_, err := svc.Create(context.Background(), Principal{}, AvailabilityInput{UserID: "ghost", Date: "2024-01-04", Start: "08:00", End: "14:00"})
		assertValidationField(t, err, "userId")
	})
}

func TestAvailabilityService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	snap := seedSnapshot()
	snap.Availabilities = []persistence.Availability{
		{ID: "a1", UserID: "anna", Date: "2024-01-04", Start: shifttime.MustParse("08:00"), End: shifttime.MustParse("14:00")},
		{ID: "a2", UserID: "anna", Date: "2024-01-05", Start: shifttime.MustParse("08:00"), End: shifttime.MustParse("14:00")},
	}
	env := newTestEnv(t, snap)
	svc := NewAvailabilityService(env.deps)
	ctx := context.Background()

	end := "16:00"
	updated, err := svc.Update(ctx, anna, "a1", AvailabilityUpdate{End: &end})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.End.String() != "16:00" || updated.Start.String() != "08:00" {
		t.Fatalf("unexpected availability %+v", updated)
	}

	clash := "2024-01-05"
	if _, err := svc.Update(ctx, anna, "a1", AvailabilityUpdate{Date: &clash}); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := svc.Update(ctx, piotr, "a1", AvailabilityUpdate{End: &end}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := svc.Delete(ctx, piotr, "a1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Delete(ctx, anna, "a1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(ctx, anna, "a1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAvailabilityService_List(t *testing.T) {
	t.Parallel()
	snap := seedSnapshot()
	snap.Availabilities = []persistence.Availability{
		{ID: "a3", UserID: "piotr", Date: "2024-01-04", Start: shifttime.MustParse("12:00"), End: shifttime.MustParse("18:00")},
		{ID: "a1", UserID: "anna", Date: "2024-01-04", Start: shifttime.MustParse("08:00"), End: shifttime.MustParse("14:00")},
		{ID: "a2", UserID: "anna", Date: "2024-01-06", Start: shifttime.MustParse("08:00"), End: shifttime.MustParse("14:00")},
	}
	env := newTestEnv(t, snap)
	svc := NewAvailabilityService(env.deps)
	ctx := context.Background()

	views, err := svc.List(ctx, AvailabilityFilter{To: "2024-01-05", WithUser: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 2 || views[0].ID != "a1" || views[1].ID != "a3" {
		t.Fatalf("unexpected listing %+v", views)
	}
	if views[0].UserName != "Anna" || views[1].UserName != "Piotr" {
		t.Fatalf("unexpected names %q/%q", views[0].UserName, views[1].UserName)
	}

	mine, err := svc.List(ctx, AvailabilityFilter{UserID: "anna"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(mine) != 2 || mine[0].UserName != "" {
		t.Fatalf("unexpected listing %+v", mine)
	}
}
