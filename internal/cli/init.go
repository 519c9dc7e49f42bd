// Package cli holds the start-up and shutdown steps shared by
// cmd/expenses and cmd/expenses-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expenses/internal/config"
	"expenses/internal/log"
)

// LoadEnvFile loads a dotenv file for local development. A missing file
// is not an error; variables already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig parses args, loads the env file they name and returns the
// environment config with flag overrides applied. It does not validate.
func LoadConfig(name string, args []string) (*config.Config, error) {
	flags := config.NewFlags(name)
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := LoadEnvFile(flags.EnvFile); err != nil {
		return nil, err
	}

	cfg := config.Load()
	flags.Apply(cfg)
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. An unknown level falls back to info; Validate reports it.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	level, _ := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// MustValidate exits the process when validate rejects the config.
func MustValidate(logger *log.Logger, validate func() error) {
	if err := validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ShutdownStep is one named cleanup action run by GracefulShutdown.
type ShutdownStep struct {
	Name string
	Fn   func(context.Context) error
}

// GracefulShutdown runs steps in order under a shared deadline. Every
// step runs even if an earlier one fails; failures are logged and joined.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, steps ...ShutdownStep) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if err := step.Fn(ctx); err != nil {
			logger.Error("Shutdown step failed", log.FieldOperation, step.Name, log.FieldError, err)
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}

	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", "timeout", timeout)
	} else {
		logger.Info("Shutdown complete")
	}
	return errors.Join(errs...)
}
