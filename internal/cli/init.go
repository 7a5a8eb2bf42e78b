// Package cli provides common initialization and terminal rendering shared
// by cmd/receipts, cmd/receipts-worker and cmd/receiptctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"receipts/internal/config"
	"receipts/internal/core"
	applog "receipts/internal/log"
)

// SetupLogger builds the component logger for a process at the configured
// level and installs it as the slog default.
func SetupLogger(level, component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = component
	cfg.Format = os.Getenv("LOG_FORMAT")
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitialRates returns the rate table the process starts from, exiting when
// the configured rates file cannot be used.
func InitialRates(logger *applog.Logger, cfg *config.Config) core.RateTable {
	rates, err := cfg.InitialRates()
	if err != nil {
		logger.Error("Failed to load exchange rates", "error", err, "path", cfg.RatesFile)
		os.Exit(1)
	}
	if cfg.RatesFile != "" {
		logger.Info("Exchange rates seeded from file", "path", cfg.RatesFile)
	}
	return rates
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		cancel()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}

// Fatal prints err for a command-line user and exits with status 1.
func Fatal(err error) {
	fmt.Fprintln(os.Stderr, RenderError(err))
	os.Exit(1)
}
