package schemaload

import (
	"context"
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/louisbranch/elephant-bootstrap/internal/identity"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/louisbranch/elephant-bootstrap/internal/twirp"
	"github.com/rs/zerolog"
)

// Run executes the schemas command against a resolved configuration and
// prints the summary to out.
func Run(ctx context.Context, cfg Config, out io.Writer, logger zerolog.Logger) error {
	if out == nil {
		out = io.Discard
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := NewCatalog(osfs.New(cfg.Dir), cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}
	tokens, err := identity.NewProvider(identity.Request{
		TokenURL:     cfg.Connection.TokenURL,
		ClientID:     cfg.Connection.ClientID,
		ClientSecret: cfg.Connection.ClientSecret,
		Username:     cfg.Connection.Username,
		Password:     cfg.Connection.Password,
	})
	if err != nil {
		return err
	}
	client, err := twirp.NewClient(cfg.Connection.RepositoryURL, cfg.Connection.TwirpService)
	if err != nil {
		return err
	}

	logger.Info().Str("dir", cfg.Dir).Str("policy", string(cfg.Policy)).Bool("dry_run", cfg.DryRun).Msg("loading missing schemas")
	reconciler := NewReconciler(tokens, repository.NewSchemas(client), catalog, Options{
		Policy: cfg.Policy,
		DryRun: cfg.DryRun,
		Logger: logger,
	})
	report, runErr := reconciler.Run(ctx)
	if runErr != nil && len(report.Outcomes) == 0 {
		return runErr
	}
	if err := report.WriteSummary(out, cfg.RestartHint); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	c := report.Counts()
	return config.StrictResult(cfg.Strict, c.Failed, len(report.Outcomes))
}
