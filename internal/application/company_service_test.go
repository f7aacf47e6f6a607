package application

import (
	"context"
	"testing"

	"github.com/example/worktime/internal/persistence"
)

func TestCompanyService_CheckLocation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, seedSnapshot())
	svc := NewCompanyService(env.deps)
	ctx := context.Background()

	cases := []struct {
		name         string
		input        CoordinateInput
		wantWithin   bool
		wantDistance int
		wantField    string
	}{
		{name: "same point", input: CoordinateInput{Latitude: floatPtr(52.2297), Longitude: floatPtr(21.0122)}, wantWithin: true},
		{name: "one kilometre north", input: CoordinateInput{Latitude: floatPtr(52.2387), Longitude: floatPtr(21.0122)}, wantDistance: -1},
		{name: "missing latitude", input: CoordinateInput{Longitude: floatPtr(21.0122)}, wantField: "latitude"},
		{name: "longitude out of range", input: CoordinateInput{Latitude: floatPtr(52), Longitude: floatPtr(181)}, wantField: "longitude"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := svc.CheckLocation(ctx, tc.input)
			if tc.wantField != "" {
				assertValidationField(t, err, tc.wantField)
				return
			}
			if err != nil {
				t.Fatalf("CheckLocation returned error: %v", err)
			}
			if result.IsWithin != tc.wantWithin || result.Radius != 100 {
				t.Fatalf("unexpected result %+v", result)
			}
			if tc.wantDistance >= 0 && result.Distance != tc.wantDistance {
				t.Fatalf("expected distance %d, got %d", tc.wantDistance, result.Distance)
			}
			if tc.wantDistance < 0 && (result.Distance < 990 || result.Distance > 1010) {
				t.Fatalf("expected about 1000 m, got %d", result.Distance)
			}
		})
	}
}

func TestCompanyService_Ensure(t *testing.T) {
	t.Parallel()
	configured := persistence.Company{Name: "Kawiarnia", Location: persistence.Location{Latitude: 50.06, Longitude: 19.94, Radius: 50}}

	t.Run("fills an empty record", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, nil)
		svc := NewCompanyService(env.deps)

		written, err := svc.Ensure(context.Background(), configured, false)
		if err != nil || !written {
			t.Fatalf("expected write, got %v, %v", written, err)
		}
		if got, _ := svc.Get(context.Background()); got != configured {
			t.Fatalf("unexpected company %+v", got)
		}
	})

	t.Run("keeps an existing record unless overridden", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t, seedSnapshot())
		svc := NewCompanyService(env.deps)
		ctx := context.Background()

		written, err := svc.Ensure(ctx, configured, false)
		if err != nil || written {
			t.Fatalf("expected no write, got %v, %v", written, err)
		}
		if env.store.updates != 0 {
			t.Fatal("expected store untouched")
		}

		written, err = svc.Ensure(ctx, configured, true)
		if err != nil || !written {
			t.Fatalf("expected override write, got %v, %v", written, err)
		}
		loc, err := svc.Location(ctx)
		if err != nil || loc.Radius != 50 {
			t.Fatalf("unexpected location %+v, %v", loc, err)
		}
	})
}
