package schemaload

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/elephant-bootstrap/internal/identity"
	perrors "github.com/louisbranch/elephant-bootstrap/internal/platform/errors"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/louisbranch/elephant-bootstrap/internal/twirp"
	"github.com/rs/zerolog"
)

// TokenSource issues scoped access tokens.
type TokenSource interface {
	Token(ctx context.Context, scopes ...string) (identity.AccessToken, error)
}

// Registry is the schema registry of the repository.
type Registry interface {
	ListActive(ctx context.Context) ([]repository.Schema, error)
	Register(ctx context.Context, token string, req repository.RegisterSchemaRequest) error
}

// Options tune a Reconciler.
type Options struct {
	Policy Policy
	DryRun bool
	Logger zerolog.Logger
}

// Reconciler registers catalog schemas missing from the registry.
type Reconciler struct {
	tokens   TokenSource
	registry Registry
	catalog  *Catalog
	opts     Options
}

// NewReconciler wires a Reconciler.
func NewReconciler(tokens TokenSource, registry Registry, catalog *Catalog, opts Options) *Reconciler {
	if opts.Policy == "" {
		opts.Policy = PolicyPresence
	}
	return &Reconciler{tokens: tokens, registry: registry, catalog: catalog, opts: opts}
}

// Run acquires a token, snapshots the active schemas, and handles every
// catalog file exactly once. Token, listing, and catalog errors abort the run;
// per-file problems are recorded in the report and the batch continues.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	log := r.opts.Logger
	report := Report{DryRun: r.opts.DryRun}

	log.Info().Str("scope", repository.ScopeSchemaAdmin).Msg("requesting access token")
	token, err := r.tokens.Token(ctx, repository.ScopeSchemaAdmin)
	if err != nil {
		return report, fmt.Errorf("acquire token: %w", err)
	}
	log.Debug().Strs("granted", token.Scopes).Time("expires_at", token.Expiry).Msg("access token acquired")

	schemas, err := r.registry.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list active schemas: %w", err)
	}
	active := make(ActiveSet, len(schemas))
	for _, s := range schemas {
		active[s.Name] = s.Version
	}
	report.Active = len(active)
	log.Info().Int("active", len(active)).Msg("listed active schemas")

	files, err := r.catalog.Files()
	if err != nil {
		return report, err
	}
	log.Info().Int("files", len(files)).Msg("found schema files")

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		raw, err := r.catalog.Read(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("unreadable schema file")
			report.Outcomes = append(report.Outcomes, Outcome{Kind: Failed, File: file, Reason: "unreadable", Err: err})
			continue
		}
		step := Decide(ParseDefinition(file, raw), active, r.opts.Policy)
		outcome, err := r.apply(ctx, token.Value, step)
		report.Outcomes = append(report.Outcomes, outcome)
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// apply executes one step. The returned error is non-nil only when the run
// was canceled.
func (r *Reconciler) apply(ctx context.Context, token string, step Step) (Outcome, error) {
	log := r.opts.Logger
	def := step.Definition
	outcome := Outcome{File: def.File, Name: def.Name, Reason: step.Reason}
	if !def.Malformed() {
		outcome.Version = def.WireVersion()
	}

	if step.Action == ActionSkip {
		outcome.Kind = Skipped
		log.Info().Str("file", def.File).Str("schema", def.Name).Str("reason", step.Reason).Msg("skipping schema")
		return outcome, nil
	}

	if r.opts.DryRun {
		outcome.Kind = Planned
		log.Info().Str("schema", def.Name).Str("version", outcome.Version).Msg("would register schema")
		return outcome, nil
	}

	log.Info().Str("schema", def.Name).Str("version", outcome.Version).Msg("registering schema")
	err := r.registry.Register(ctx, token, repository.RegisterSchemaRequest{
		Schema: repository.Schema{
			Name:    def.Name,
			Version: outcome.Version,
			Spec:    string(def.Raw),
		},
		Activate: true,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			outcome.Kind = Failed
			outcome.Reason = "canceled"
			outcome.Err = err
			return outcome, ctxErr
		}
		outcome.Kind = Failed
		outcome.Reason = twirp.Describe(err)
		outcome.Err = err
		logRemoteFailure(log, err).Str("schema", def.Name).Msg("registration failed")
		return outcome, nil
	}
	outcome.Kind = Loaded
	outcome.Reason = "registered and activated"
	log.Info().Str("schema", def.Name).Msg("registered and activated")
	return outcome, nil
}

func logRemoteFailure(log zerolog.Logger, err error) *zerolog.Event {
	ev := log.Error().Err(err).Str("code", string(perrors.CodeOf(err)))
	var rpcErr *twirp.RemoteProcedureError
	if errors.As(err, &rpcErr) {
		ev = ev.Int("status", rpcErr.StatusCode)
	}
	return ev
}
