// Package main provides the elephant-bootstrap CLI: load revisor schemas into
// a fresh repository and seed the documents the editorial UI expects.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	entrypoint "github.com/louisbranch/elephant-bootstrap/internal/platform/cmd"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/logging"
	"github.com/louisbranch/elephant-bootstrap/internal/tools/schemaload"
	"github.com/louisbranch/elephant-bootstrap/internal/tools/seed"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	stop()
	config.Exit(err)
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "elephant-bootstrap",
		Short:         "Bootstrap a local elephant repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newSchemasCommand(stdout, stderr), newSeedCommand(stdout, stderr))
	return root
}

func newSchemasCommand(stdout, stderr io.Writer) *cobra.Command {
	var cfg schemaload.Config
	envErr := entrypoint.ParseConfig(&cfg)

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Register revisor schema definitions that are not active yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			logger, err := logging.New(stderr, entrypoint.ServiceSchemas, cfg.Log)
			if err != nil {
				return err
			}
			cfg.Connection = cfg.Connection.Resolve(cmd.Context())
			opts := entrypoint.RunOptions{Timeout: cfg.Connection.Timeout, Logger: logger}
			return entrypoint.RunWithTelemetryAndOptions(cmd.Context(), entrypoint.ServiceSchemas, opts, func(ctx context.Context) error {
				return schemaload.Run(ctx, cfg, stdout, logger)
			})
		},
	}
	cfg.BindFlags(cmd.Flags())
	return cmd
}

func newSeedCommand(stdout, stderr io.Writer) *cobra.Command {
	var cfg seed.Config
	envErr := entrypoint.ParseConfig(&cfg)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the default sections in an empty repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			logger, err := logging.New(stderr, entrypoint.ServiceSeed, cfg.Log)
			if err != nil {
				return err
			}
			if cfg.List {
				return seed.Run(cmd.Context(), cfg, stdout, logger)
			}
			cfg.Connection = cfg.Connection.Resolve(cmd.Context())
			opts := entrypoint.RunOptions{Timeout: cfg.Connection.Timeout, Logger: logger}
			return entrypoint.RunWithTelemetryAndOptions(cmd.Context(), entrypoint.ServiceSeed, opts, func(ctx context.Context) error {
				return seed.Run(ctx, cfg, stdout, logger)
			})
		},
	}
	cfg.BindFlags(cmd.Flags())
	return cmd
}
