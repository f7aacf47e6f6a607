package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/worktime/internal/application"
	"github.com/example/worktime/internal/config"
	"github.com/example/worktime/internal/logging"
	"github.com/example/worktime/internal/metrics"
	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/persistence/jsonfile"
	"github.com/example/worktime/internal/persistence/migrations"
	"github.com/example/worktime/internal/persistence/postgres"
	"github.com/example/worktime/internal/persistence/sqlite"
)

// loadConfig reads the configuration named by --config and installs the
// logger it describes as the process default.
func loadConfig(w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, w)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStore opens the configured backend. Relational backends are migrated
// first when auto_migrate is set. A non-nil m wraps the store with timing
// metrics and, for postgres, exports pool statistics.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (persistence.Store, error) {
	driver := cfg.Storage.Driver
	dsn := cfg.StorageDSN()

	if cfg.Storage.AutoMigrate && driver != persistence.DriverJSON {
		if err := migrateUp(ctx, driver, dsn, logger); err != nil {
			return nil, err
		}
	}

	var store persistence.Store
	switch driver {
	case persistence.DriverJSON:
		s, err := jsonfile.Open(dsn)
		if err != nil {
			return nil, fmt.Errorf("open json store: %w", err)
		}
		store = s
	case persistence.DriverSQLite:
		s, err := sqlite.Open(ctx, sqlite.DefaultConfig(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = s
	case persistence.DriverPostgres:
		s, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if m != nil {
			m.RegisterDBPoolCollector(s.PoolStats)
		}
		store = s
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	logger.Info("storage opened", "driver", driver)
	if m == nil {
		return store, nil
	}
	return metrics.InstrumentStore(store, driver, m), nil
}

func closeStore(store persistence.Store, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}

func migrateUp(ctx context.Context, driver, dsn string, logger *slog.Logger) error {
	if driver == persistence.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(strings.TrimPrefix(dsn, "file:")), 0o755); err != nil {
			return fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	if err := migrations.Up(ctx, driver, dsn, logger); err != nil {
		return err
	}
	logger.Info("migrations applied", "driver", driver)
	return nil
}

// settingsFrom maps the schedule section onto service settings.
func settingsFrom(cfg *config.Config) application.Settings {
	return application.Settings{
		Location:                cfg.Location(),
		ClockInLead:             cfg.Schedule.ClockInLead,
		DefaultMonthlyGoalHours: cfg.Schedule.DefaultMonthlyGoalHours,
		MinimumHourlyRate:       cfg.MinimumHourlyRate(),
		EnforceGeofence:         cfg.Schedule.EnforceGeofence,
	}
}

func companyFrom(cfg *config.Config) persistence.Company {
	return persistence.Company{
		Name: cfg.Company.Name,
		Location: persistence.Location{
			Latitude:  cfg.Company.Latitude,
			Longitude: cfg.Company.Longitude,
			Radius:    cfg.Company.Radius,
			Address:   cfg.Company.Address,
			Name:      cfg.Company.LocationName,
		},
	}
}

// signingSecret returns the configured JWT secret. Without one an ephemeral
// secret is generated, so tokens stop verifying after a restart.
func signingSecret(cfg *config.Config, logger *slog.Logger) (string, error) {
	if secret := strings.TrimSpace(cfg.Auth.JWTSecret); secret != "" {
		return secret, nil
	}
	if cfg.Auth.Required {
		return "", errors.New("auth.jwt_secret is required when auth.required is set")
	}
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("generate signing secret: %w", err)
	}
	logger.Warn("auth.jwt_secret not set, using an ephemeral signing secret")
	return hex.EncodeToString(buf), nil
}

// newServices builds the application services over store.
func newServices(cfg *config.Config, store persistence.Store, logger *slog.Logger, m *metrics.Metrics) (*application.Services, error) {
	secret, err := signingSecret(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps := application.ServiceDeps{
		Store:       store,
		IDGenerator: uuid.NewString,
		Now:         time.Now,
		Settings:    settingsFrom(cfg),
		Logger:      logger,
	}
	if m != nil {
		deps.Recorder = m
	}
	tokens := application.NewTokenManager(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, time.Now)
	return application.NewServices(deps, tokens), nil
}
