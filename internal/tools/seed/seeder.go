package seed

import (
	"context"
	"fmt"

	"github.com/louisbranch/elephant-bootstrap/internal/identity"
	perrors "github.com/louisbranch/elephant-bootstrap/internal/platform/errors"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/louisbranch/elephant-bootstrap/internal/tools/seed/ledger"
	"github.com/louisbranch/elephant-bootstrap/internal/twirp"
	"github.com/rs/zerolog"
)

type tokenSource interface {
	Token(ctx context.Context, scopes ...string) (identity.AccessToken, error)
}

type documentWriter interface {
	Update(ctx context.Context, token string, req repository.UpdateRequest) (repository.UpdateResponse, error)
}

type ledgerStore interface {
	Lookup(ctx context.Context, naturalKey string) (ledger.Entry, bool, error)
	Record(ctx context.Context, entry ledger.Entry) error
}

// Options tune a Seeder.
type Options struct {
	Write  WriteOptions
	IDs    IDGenerator
	DryRun bool
	Logger zerolog.Logger
}

// Seeder creates catalog documents through the create-only write API.
type Seeder struct {
	tokens    tokenSource
	documents documentWriter
	ledger    ledgerStore
	opts      Options
}

// NewSeeder wires a Seeder. ledger may be nil.
func NewSeeder(tokens tokenSource, documents documentWriter, store ledgerStore, opts Options) *Seeder {
	if opts.IDs == nil {
		opts.IDs = RandomIDs{}
	}
	return &Seeder{tokens: tokens, documents: documents, ledger: store, opts: opts}
}

// Run creates every catalog entry in order. A token failure aborts the run;
// per-entry failures are recorded and the batch continues. Dry runs make no
// network calls.
func (s *Seeder) Run(ctx context.Context, catalog Catalog) (Report, error) {
	log := s.opts.Logger
	report := Report{DryRun: s.opts.DryRun}

	var token string
	if !s.opts.DryRun {
		log.Info().Strs("scopes", []string{repository.ScopeDocRead, repository.ScopeDocWrite}).Msg("requesting access token")
		tok, err := s.tokens.Token(ctx, repository.ScopeDocRead, repository.ScopeDocWrite)
		if err != nil {
			return report, fmt.Errorf("acquire token: %w", err)
		}
		log.Debug().Strs("granted", tok.Scopes).Time("expires_at", tok.Expiry).Msg("access token acquired")
		token = tok.Value
	}

	created := make(map[string]ParentRef, len(catalog.Entries))
	for _, entry := range catalog.Entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome, err := s.seed(ctx, token, entry, created)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil {
			return report, err
		}
		if outcome.UUID != "" && outcome.Kind != Failed {
			created[entry.Key] = ParentRef{UUID: outcome.UUID, Type: entry.Type}
		}
	}
	return report, nil
}

// seed handles one entry. The returned error is non-nil only when the run
// must stop.
func (s *Seeder) seed(ctx context.Context, token string, entry Entry, created map[string]ParentRef) (Outcome, error) {
	log := s.opts.Logger.With().Str("entry", entry.Key).Str("title", entry.Title).Logger()
	outcome := Outcome{Key: entry.Key, Title: entry.Title, Type: entry.Type}

	if s.ledger != nil {
		recorded, ok, err := s.ledger.Lookup(ctx, entry.NaturalKey())
		if err != nil {
			return outcome, err
		}
		if ok {
			outcome.Kind = Skipped
			outcome.UUID = recorded.UUID
			outcome.Reason = "recorded in ledger"
			log.Info().Str("uuid", recorded.UUID).Msg("skipping document recorded by an earlier run")
			return outcome, nil
		}
	}

	var parent *ParentRef
	if entry.Parent != "" {
		ref, ok := created[entry.Parent]
		if !ok {
			outcome.Kind = Skipped
			outcome.Reason = "parent " + entry.Parent + " was not created"
			log.Warn().Str("parent", entry.Parent).Msg("skipping document without parent")
			return outcome, nil
		}
		parent = &ref
	}

	id := s.opts.IDs.NewID(entry)
	outcome.UUID = id
	req := BuildUpdate(BuildDocument(entry, id, parent), s.opts.Write)

	if s.opts.DryRun {
		outcome.Kind = Planned
		log.Info().Str("uuid", id).Msg("would create document")
		return outcome, nil
	}

	resp, err := s.documents.Update(ctx, token, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Kind = Failed
			outcome.Reason = "canceled"
			outcome.Err = err
			return outcome, ctxErr
		}
		if perrors.IsConflict(err) {
			if _, stable := s.opts.IDs.(StableIDs); stable {
				outcome.Kind = Skipped
				outcome.Reason = "already exists"
				log.Info().Str("uuid", id).Msg("document already exists")
				s.record(ctx, log, entry, id, "")
				return outcome, nil
			}
		}
		outcome.Kind = Failed
		outcome.Reason = twirp.Describe(err)
		outcome.Err = err
		log.Error().Err(err).Str("uuid", id).
			Str("code", string(perrors.CodeOf(err))).
			Str("msg", outcome.Reason).
			Msg("failed to create document")
		return outcome, nil
	}

	outcome.Kind = Created
	outcome.Version = resp.Version
	log.Info().Str("uuid", id).Str("version", resp.Version).Msg("created document")
	s.record(ctx, log, entry, id, resp.Version)
	return outcome, nil
}

func (s *Seeder) record(ctx context.Context, log zerolog.Logger, entry Entry, id, version string) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.Record(ctx, ledger.Entry{
		NaturalKey: entry.NaturalKey(),
		UUID:       id,
		Type:       entry.Type,
		Version:    version,
	})
	if err != nil {
		log.Warn().Err(err).Msg("document created but not recorded in ledger")
	}
}
