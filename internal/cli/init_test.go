package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"expenses/internal/log"
)

func discardLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg)
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file: error = %v, want nil", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("empty path: error = %v, want nil", err)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("EXPENSES_CLI_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("EXPENSES_CLI_TEST_KEY") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("EXPENSES_CLI_TEST_KEY"); got != "from-file" {
		t.Errorf("EXPENSES_CLI_TEST_KEY = %q, want from-file", got)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "app.env")
	if err := os.WriteFile(envFile, []byte("DATA_BACKEND=sqlite\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7000")
	// t.Setenv restores the original value; unset so the env file applies.
	t.Setenv("DATA_BACKEND", "")
	os.Unsetenv("DATA_BACKEND")

	cfg, err := LoadConfig("expenses", []string{"--env-file", envFile, "--port", "9000"})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want flag value 9000", cfg.Port)
	}
	if cfg.DataBackend != "sqlite" {
		t.Errorf("DataBackend = %q, want sqlite from env file", cfg.DataBackend)
	}

	if _, err := LoadConfig("expenses", []string{"--no-such-flag"}); err == nil {
		t.Error("LoadConfig() expected error for unknown flag")
	}
}

func TestGracefulShutdown(t *testing.T) {
	var order []string
	step := func(name string, err error) ShutdownStep {
		return ShutdownStep{Name: name, Fn: func(context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	boom := errors.New("boom")
	err := GracefulShutdown(discardLogger(), time.Second,
		step("http", nil),
		step("store", boom),
		step("events", nil),
	)
	if !errors.Is(err, boom) {
		t.Errorf("GracefulShutdown() error = %v, want wrapping boom", err)
	}
	if len(order) != 3 || order[2] != "events" {
		t.Errorf("steps run = %v, want all three in order", order)
	}
}

func TestGracefulShutdown_Deadline(t *testing.T) {
	err := GracefulShutdown(discardLogger(), 10*time.Millisecond, ShutdownStep{
		Name: "slow",
		Fn: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GracefulShutdown() error = %v, want deadline exceeded", err)
	}
}

func TestSignalContext_CancelledByParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := SignalContext(parent, discardLogger())
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with its parent")
	}
}
