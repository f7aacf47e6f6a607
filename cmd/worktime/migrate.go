package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/worktime/internal/config"
	"github.com/example/worktime/internal/persistence"
	"github.com/example/worktime/internal/persistence/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema for the sqlite or postgres backend",
	RunE:  runMigrate,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE:  runMigrateDown,
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE:  runMigrateVersion,
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

func schemaTarget(cfg *config.Config) (driver, dsn string, err error) {
	driver = cfg.Storage.Driver
	if driver == persistence.DriverJSON {
		return "", "", fmt.Errorf("storage driver %q has no schema to migrate", driver)
	}
	return driver, cfg.StorageDSN(), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	driver, dsn, err := schemaTarget(cfg)
	if err != nil {
		return err
	}
	return migrateUp(cmd.Context(), driver, dsn, logger)
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	driver, dsn, err := schemaTarget(cfg)
	if err != nil {
		return err
	}
	if err := migrations.Down(cmd.Context(), driver, dsn, logger); err != nil {
		return err
	}
	logger.Info("migrations rolled back", "driver", driver)
	return nil
}

func runMigrateVersion(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	driver, dsn, err := schemaTarget(cfg)
	if err != nil {
		return err
	}
	version, dirty, ok, err := migrations.Version(driver, dsn)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case !ok:
		fmt.Fprintln(out, "no migrations applied")
	case dirty:
		fmt.Fprintf(out, "%d (dirty)\n", version)
	default:
		fmt.Fprintln(out, version)
	}
	return nil
}
