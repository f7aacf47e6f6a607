// Package migrations applies the embedded SQL schema for the relational
// store backends.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/example/worktime/internal/persistence"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Up applies every pending migration for driver. dsn is the sqlite file path
// or the postgres connection URL.
func Up(ctx context.Context, driver, dsn string, logger *slog.Logger) error {
	m, err := newMigrate(driver, dsn, logger)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := run(ctx, m, m.Up); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func Down(ctx context.Context, driver, dsn string, logger *slog.Logger) error {
	m, err := newMigrate(driver, dsn, logger)
	if err != nil {
		return err
	}
	defer closeMigrate(m, logger)

	if err := run(ctx, m, m.Down); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: down: %w", err)
	}
	return nil
}

// Version reports the applied schema version. ok is false when no migration
// has been applied yet.
func Version(driver, dsn string) (version uint, dirty bool, ok bool, err error) {
	m, err := newMigrate(driver, dsn, nil)
	if err != nil {
		return 0, false, false, err
	}
	defer closeMigrate(m, nil)

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("migrations: version: %w", err)
	}
	return version, dirty, true, nil
}

// DatabaseURL builds the migrate URL for driver.
func DatabaseURL(driver, dsn string) (string, error) {
	switch driver {
	case persistence.DriverSQLite:
		if dsn == "" {
			return "", errors.New("migrations: sqlite path is required")
		}
		return "sqlite://" + strings.TrimPrefix(dsn, "file:"), nil
	case persistence.DriverPostgres:
		if dsn == "" {
			return "", errors.New("migrations: postgres url is required")
		}
		return dsn, nil
	default:
		return "", fmt.Errorf("migrations: driver %q has no schema", driver)
	}
}

func newMigrate(driver, dsn string, logger *slog.Logger) (*migrate.Migrate, error) {
	url, err := DatabaseURL(driver, dsn)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(files, driver)
	if err != nil {
		return nil, fmt.Errorf("migrations: open embedded source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, fmt.Errorf("migrations: connect %s: %w", driver, err)
	}
	if logger != nil {
		m.Log = migrateLogger{logger: logger.With("component", "migrations", "driver", driver)}
	}
	return m, nil
}

func run(ctx context.Context, m *migrate.Migrate, step func() error) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()
	return step()
}

func closeMigrate(m *migrate.Migrate, logger *slog.Logger) {
	srcErr, dbErr := m.Close()
	if logger == nil {
		return
	}
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration database", "error", dbErr)
	}
}

type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool { return false }
