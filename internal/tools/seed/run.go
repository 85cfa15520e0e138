package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/louisbranch/elephant-bootstrap/internal/identity"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/louisbranch/elephant-bootstrap/internal/tools/seed/ledger"
	"github.com/louisbranch/elephant-bootstrap/internal/twirp"
	"github.com/rs/zerolog"
)

// Run executes the seed command against a resolved configuration and prints
// the summary to out.
func Run(ctx context.Context, cfg Config, out io.Writer, logger zerolog.Logger) error {
	if out == nil {
		out = io.Discard
	}
	catalog, err := LoadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	if cfg.List {
		var ids IDGenerator
		if cfg.StableIDs {
			ids = StableIDs{}
		}
		return WriteList(out, catalog, ids)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store ledgerStore
	if cfg.Ledger != "" {
		opened, err := ledger.Open(ctx, cfg.Ledger)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer opened.Close()
		store = opened
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

	logger.Info().Str("catalog", catalog.Name).Int("entries", len(catalog.Entries)).Bool("dry_run", cfg.DryRun).Msg("seeding documents")
	seeder := NewSeeder(tokens, repository.NewDocuments(client), store, Options{
		Write:  cfg.WriteOptions(),
		IDs:    cfg.IDs(),
		DryRun: cfg.DryRun,
		Logger: logger,
	})
	report, runErr := seeder.Run(ctx, catalog)
	if runErr != nil && len(report.Outcomes) == 0 {
		return runErr
	}
	if err := report.WriteSummary(out, cfg.Statuses); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	c := report.Counts()
	return config.StrictResult(cfg.Strict, c.Failed, len(report.Outcomes))
}
