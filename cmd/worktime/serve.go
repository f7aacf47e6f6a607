package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httptransport "github.com/example/worktime/internal/http"
	"github.com/example/worktime/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WorkTime API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	store, err := openStore(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	services, err := newServices(cfg, store, logger, m)
	if err != nil {
		return err
	}
	written, err := services.Company.Ensure(ctx, companyFrom(cfg), cfg.Company.Override)
	if err != nil {
		return fmt.Errorf("initialise company: %w", err)
	}
	if written {
		logger.Info("company settings written", "name", cfg.Company.Name)
	}

	routerCfg := httptransport.NewRouterConfig(services, logger)
	routerCfg.Metrics = m
	routerCfg.AuthRequired = cfg.Auth.Required
	routerCfg.CORSOrigins = cfg.Server.CORSOrigins

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httptransport.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// serve runs srv until ctx is cancelled, then drains it within timeout.
func serve(ctx context.Context, srv *http.Server, timeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("worktime API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
