package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/example/worktime/internal/persistence"
)

func TestUserService_GetAndList(t *testing.T) {
	t.Parallel()
	snap := seedSnapshot()
	snap.Users[1].Password = "secret"
	env := newTestEnv(t, snap)
	svc := NewUserService(env.deps)
	ctx := context.Background()

	user, err := svc.Get(ctx, "anna")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if user.Password != "" {
		t.Fatal("expected password stripped")
	}
	if _, err := svc.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	want := []string{"anna", "ewa", "piotr", "boss"}
	for i, id := range want {
		if users[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, users[i].ID)
		}
	}
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()

	name := "Anna Nowak"
	positions := []string{" kasa ", "barista", "kasa", ""}
	rate := decimal.RequireFromString("35.50")
	low := decimal.RequireFromString("20")
	goal := 100.0
	badGoal := 0.0
	promote := true

	cases := []struct {
		name      string
		principal Principal
		target    string
		patch     UserUpdate
		wantErr   error
		wantField string
		check     func(t *testing.T, u persistence.User)
	}{
		{
			name:      "self edit",
			principal: anna,
			target:    "anna",
			patch:     UserUpdate{Name: &name, Positions: &positions, HourlyRate: &rate, MonthlyGoalHours: &goal},
			check: func(t *testing.T, u persistence.User) {
				if u.Name != name || !u.HourlyRate.Equal(rate) || *u.MonthlyGoalHours != goal {
					t.Fatalf("unexpected profile %+v", u)
				}
				if len(u.Positions) != 2 || u.Positions[0] != "kasa" || u.Positions[1] != "barista" {
					t.Fatalf("unexpected positions %v", u.Positions)
				}
			},
		},
		{name: "editing someone else", principal: piotr, target: "anna", patch: UserUpdate{Name: &name}, wantErr: ErrUnauthorized},
		{name: "self promotion", principal: anna, target: "anna", patch: UserUpdate{IsEmployer: &promote}, wantErr: ErrUnauthorized},
		{
			name:      "employer promotes",
			principal: employer,
			target:    "anna",
			patch:     UserUpdate{IsEmployer: &promote},
			check: func(t *testing.T, u persistence.User) {
				if !u.IsEmployer {
					t.Fatal("expected employer flag set")
				}
			},
		},
		{name: "rate below minimum", principal: anna, target: "anna", patch: UserUpdate{HourlyRate: &low}, wantField: "hourlyRate"},
		{name: "non-positive goal", principal: anna, target: "anna", patch: UserUpdate{MonthlyGoalHours: &badGoal}, wantField: "monthlyGoalHours"},
		{name: "missing user", principal: employer, target: "ghost", patch: UserUpdate{Name: &name}, wantErr: ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, seedSnapshot())
			svc := NewUserService(env.deps)

			user, err := svc.Update(context.Background(), tc.principal, tc.target, tc.patch)
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			case tc.wantField != "":
				assertValidationField(t, err, tc.wantField)
			default:
				if err != nil {
					t.Fatalf("Update returned error: %v", err)
				}
				tc.check(t, user)
				tc.check(t, *env.store.current(t).User(tc.target))
			}
		})
	}
}

func TestUserService_Delete(t *testing.T) {
	t.Parallel()
	snap := seedSnapshot()
	snap.Shifts = []persistence.Shift{
		shiftFixture("s1", "2024-01-04", "09:00", "17:00", stringPtr("anna")),
		shiftFixture("s2", "2024-01-04", "09:00", "17:00", stringPtr("piotr")),
	}
	snap.Availabilities = []persistence.Availability{
		{ID: "a1", UserID: "anna", Date: "2024-01-04"},
		{ID: "a2", UserID: "piotr", Date: "2024-01-04"},
	}
	snap.Swaps = []persistence.Swap{
		{ID: "w1", ShiftID: "s2", RequesterID: "piotr", TargetUserID: stringPtr("anna"), Status: persistence.SwapPending},
		{ID: "w2", ShiftID: "s1", RequesterID: "anna", Status: persistence.SwapAccepted},
		{ID: "w3", ShiftID: "s2", RequesterID: "piotr", Status: persistence.SwapPending},
	}
	env := newTestEnv(t, snap)
	svc := NewUserService(env.deps)
	ctx := context.Background()

	if err := svc.Delete(ctx, anna, "anna"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-employer, got %v", err)
	}
	if err := svc.Delete(ctx, employer, "anna"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	stored := env.store.current(t)
	if stored.User("anna") != nil {
		t.Fatal("expected user removed")
	}
	if stored.Shift("s1").AssignedUserID != nil || !stored.Shift("s2").IsAssignedTo("piotr") {
		t.Fatal("unexpected shift assignments")
	}
	if stored.Availability("a1") != nil || stored.Availability("a2") == nil {
		t.Fatal("unexpected availabilities")
	}
	if stored.Swap("w1") != nil || stored.Swap("w2") == nil || stored.Swap("w3") == nil {
		t.Fatal("unexpected swaps")
	}

	if err := svc.Delete(ctx, employer, "anna"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserService_Filter(t *testing.T) {
	t.Parallel()
	snap := seedSnapshot()
	snap.Availabilities = []persistence.Availability{
		{ID: "a1", UserID: "anna", Date: "2024-01-04"},
		{ID: "a2", UserID: "piotr", Date: "2024-01-05"},
	}

	cases := []struct {
		name  string
		input FilterInput
		want  []string
		avail map[string]bool
	}{
		{name: "all employees without a date", want: []string{"anna", "ewa", "piotr"}},
		{name: "position intersection", input: FilterInput{PositionIDs: []string{"barista"}}, want: []string{"anna", "ewa"}},
		{name: "available on date", input: FilterInput{Date: "2024-01-04"}, want: []string{"anna"}},
		{
			name:  "including unavailable",
			input: FilterInput{Date: "2024-01-04", PositionIDs: []string{"barista", "kuchnia"}, IncludeUnavailable: true},
			want:  []string{"anna", "ewa", "piotr"},
			avail: map[string]bool{"anna": true, "ewa": false, "piotr": false},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, snap)
			svc := NewUserService(env.deps)

			got, err := svc.Filter(context.Background(), tc.input)
			if err != nil {
				t.Fatalf("Filter returned error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %d entries", tc.want, len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
				}
				if want, ok := tc.avail[id]; ok && got[i].IsAvailable != want {
					t.Fatalf("%s: expected isAvailable=%v", id, want)
				}
			}
		})
	}

	t.Run("rejects a malformed date", func(t *testing.T) {
		env := newTestEnv(t, snap)
		svc := NewUserService(env.deps)

		_, err := svc.Filter(context.Background(), FilterInput{Date: "jutro"})
		assertValidationField(t, err, "date")
	})
}
