package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/otel"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/timeouts"
	"github.com/rs/zerolog"
)

// Command identifiers for telemetry and CLI naming consistency.
const (
	ServiceBootstrap = "bootstrap"
	ServiceSchemas   = "schemas"
	ServiceSeed      = "seed"
)

// RunOptions controls shared entrypoint behavior for bootstrap commands.
type RunOptions struct {
	// Timeout bounds the whole run; zero means no limit.
	Timeout time.Duration
	// ShutdownTimeout sets the timeout used when stopping telemetry.
	ShutdownTimeout time.Duration
	// Logger receives telemetry shutdown failures.
	Logger zerolog.Logger
}

// ParseConfig loads environment defaults into cfg. Flags bound afterwards
// default to these values, so env is overridden by explicit flags.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// RunWithTelemetry configures observability and executes a command run.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	return RunWithTelemetryAndOptions(ctx, service, RunOptions{Logger: zerolog.Nop()}, run)
}

// RunWithTelemetryAndOptions configures observability and executes a command run.
func RunWithTelemetryAndOptions(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		shutdownTimeout := options.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = timeouts.Shutdown
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			options.Logger.Warn().Err(err).Str("service", service).Msg("otel shutdown")
		}
	}()
	return run(ctx)
}
