package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/config"
	"github.com/example/worktime/internal/metrics"
	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/persistence/migrations"
	"github.com/example/worktime/internal/testfixtures"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSeedOptions() seedOptions {
	ids := testfixtures.NewIDGenerator("seed")
	return seedOptions{
		now:      testfixtures.ReferenceTime(),
		location: testfixtures.Location(),
		days:     2,
		newID:    ids.NextFunc(),
		hash:     func(p string) (string, error) { return "plain:" + p, nil },
		company:  testfixtures.Company(),
	}
}

func TestSeedDemoData(t *testing.T) {
	store := testfixtures.NewMemoryStore(nil)

	seeded, err := seedDemoData(t.Context(), store, testSeedOptions())
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if !seeded {
		t.Fatal("expected an empty document to be seeded")
	}

	snap := store.Snapshot()
	if len(snap.Users) != len(demoAccounts) {
		t.Fatalf("expected %d users, got %d", len(demoAccounts), len(snap.Users))
	}
	if want := 2 * len(demoDay); len(snap.Shifts) != want {
		t.Fatalf("expected %d shifts, got %d", want, len(snap.Shifts))
	}
	if snap.Shifts[0].Date != "2024-01-03" || snap.Shifts[len(snap.Shifts)-1].Date != "2024-01-04" {
		t.Fatalf("unexpected shift dates %s..%s", snap.Shifts[0].Date, snap.Shifts[len(snap.Shifts)-1].Date)
	}
	if snap.Company.IsZero() {
		t.Fatal("expected the company to be filled in")
	}

	employers := 0
	for _, u := range snap.Users {
		if u.IsEmployer {
			employers++
		}
		if !strings.HasPrefix(u.Password, "plain:") {
			t.Fatalf("expected password of %s to go through the hasher", u.Username)
		}
	}
	if employers != 1 {
		t.Fatalf("expected exactly one employer, got %d", employers)
	}

	open := 0
	for _, s := range snap.Shifts {
		if s.AssignedUserID == nil {
			open++
			continue
		}
		if snap.User(*s.AssignedUserID) == nil {
			t.Fatalf("shift %s assigned to unknown user %s", s.ID, *s.AssignedUserID)
		}
	}
	if open != 2 {
		t.Fatalf("expected one open shift per day, got %d", open)
	}

	again, err := seedDemoData(t.Context(), store, testSeedOptions())
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	if again {
		t.Fatal("expected a populated document to be left alone")
	}
	if got := len(store.Snapshot().Users); got != len(demoAccounts) {
		t.Fatalf("expected users to stay at %d, got %d", len(demoAccounts), got)
	}
}

func TestSeededAccountsCanLogIn(t *testing.T) {
	store := testfixtures.NewMemoryStore(nil)
	opts := testSeedOptions()
	opts.days = 1
	opts.hash = application.HashPassword
	if _, err := seedDemoData(t.Context(), store, opts); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cfg := config.Defaults()
	cfg.Auth.JWTSecret = "test-secret"
	services, err := newServices(cfg, store, discardLogger(), nil)
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}

	result, err := services.Auth.Login(t.Context(), application.LoginInput{Username: "szef", Password: "szef1234"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Created || !result.User.IsEmployer || result.Token == "" {
		t.Fatalf("unexpected login result: %+v", result)
	}
}

func TestSigningSecret(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		required bool
		wantErr  bool
		wantLen  int
	}{
		{name: "configured", secret: "  s3cret ", wantLen: len("s3cret")},
		{name: "generated when optional", wantLen: 64},
		{name: "missing when required", required: true, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Auth.JWTSecret = tc.secret
			cfg.Auth.Required = tc.required

			got, err := signingSecret(cfg, discardLogger())
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tc.wantLen {
				t.Fatalf("expected secret of length %d, got %q", tc.wantLen, got)
			}
		})
	}
}

func TestOpenStoreJSON(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Driver = persistence.DriverJSON
	cfg.Storage.Path = filepath.Join(t.TempDir(), "data", "db.json")

	m := metrics.New()
	store, err := openStore(t.Context(), cfg, discardLogger(), m)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, ok := store.(*metrics.InstrumentedStore); !ok {
		t.Fatalf("expected an instrumented store, got %T", store)
	}
	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		t.Fatalf("expected the document file to be created: %v", err)
	}
	if _, err := store.Load(t.Context()); err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
}

func TestOpenStoreSQLiteAutoMigrates(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Driver = persistence.DriverSQLite
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "nested", "worktime.db")
	cfg.Storage.AutoMigrate = true

	store, err := openStore(t.Context(), cfg, discardLogger(), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	seeded, err := seedDemoData(t.Context(), store, testSeedOptions())
	if err != nil || !seeded {
		t.Fatalf("expected seeding to succeed, got seeded=%v err=%v", seeded, err)
	}
	snap, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
	if len(snap.Users) != len(demoAccounts) {
		t.Fatalf("expected seeded users to persist, got %d", len(snap.Users))
	}

	_, dirty, ok, err := migrations.Version(persistence.DriverSQLite, cfg.Storage.SQLitePath)
	if err != nil || !ok || dirty {
		t.Fatalf("expected a clean applied schema, got ok=%v dirty=%v err=%v", ok, dirty, err)
	}
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Driver = "mongo"
	cfg.Storage.AutoMigrate = false

	if _, err := openStore(t.Context(), cfg, discardLogger(), nil); err == nil {
		t.Fatal("expected an error for an unknown driver")
	}
}

func TestSchemaTarget(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Driver = persistence.DriverJSON
	if _, _, err := schemaTarget(cfg); err == nil {
		t.Fatal("expected the json driver to have no schema")
	}

	cfg.Storage.Driver = persistence.DriverSQLite
	cfg.Storage.SQLitePath = "data/test.db"
	driver, dsn, err := schemaTarget(cfg)
	if err != nil || driver != persistence.DriverSQLite || dsn != "data/test.db" {
		t.Fatalf("unexpected target %q %q %v", driver, dsn, err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NotFoundHandler(),
	}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, discardLogger()) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected a clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeReportsListenErrors(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:-1", Handler: http.NotFoundHandler()}
	if err := serve(t.Context(), srv, time.Second, discardLogger()); err == nil {
		t.Fatal("expected an invalid address to fail")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if want := fmt.Sprintf("worktime v%s\n", version); out.String() != want {
		t.Fatalf("expected %q, got %q", want, out.String())
	}
}
