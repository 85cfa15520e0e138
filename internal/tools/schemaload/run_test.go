package schemaload

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/elephant-bootstrap/internal/identity"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	perrors "github.com/louisbranch/elephant-bootstrap/internal/platform/errors"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/louisbranch/elephant-bootstrap/internal/testkit/fakerepo"
	"github.com/rs/zerolog"
)

const (
	articleSchema = "{\n  \"name\": \"core/article\",\n  \"version\": 2\n}\n"
	imageSchema   = "{\n  \"name\": \"core/image\",\n  \"version\": 1,\n  \"documents\": []\n}\n"
	draftSchema   = "{\n  \"name\": \"core/draft\"\n}\n"
)

func writeSchemaDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func testConfig(fake *fakerepo.Server, dir string) Config {
	return Config{
		Connection: config.Connection{
			RepositoryURL: fake.RepositoryURL(),
			TwirpService:  "elephant.repository",
			TokenURL:      fake.TokenURL(),
			ClientID:      "elephant",
			ClientSecret:  "elephant-secret",
			Username:      "dev",
			Password:      "dev",
		},
		Dir:         dir,
		Include:     []string{"*.json"},
		Exclude:     []string{"*testdata*"},
		Policy:      PolicyPresence,
		RestartHint: "docker compose restart elephant-repository",
	}
}

func TestRunRegistersOnlyMissingSchemas(t *testing.T) {
	fake := fakerepo.New(t)
	fake.SetActive(repository.Schema{Name: "core/article", Version: "v2.0"})
	dir := writeSchemaDir(t, map[string]string{
		"article.json":        articleSchema,
		"image.json":          imageSchema,
		"draft.json":          draftSchema,
		"image-testdata.json": imageSchema,
	})

	var out bytes.Buffer
	if err := Run(context.Background(), testConfig(fake, dir), &out, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}

	tokenReqs := fake.TokenRequests()
	if len(tokenReqs) != 1 || tokenReqs[0].Get("scope") != "schema_admin" || tokenReqs[0].Get("grant_type") != "password" {
		t.Fatalf("token requests = %v", tokenReqs)
	}
	listCalls := fake.Calls(repository.ProcListActive)
	if len(listCalls) != 1 || listCalls[0].Authorization != "" || string(listCalls[0].Body) != "{}" {
		t.Fatalf("list calls = %+v", listCalls)
	}

	registers := fake.Calls(repository.ProcRegister)
	if len(registers) != 1 {
		t.Fatalf("expected 1 register call, got %d", len(registers))
	}
	reg := registers[0]
	if reg.Authorization != "Bearer fake-token" {
		t.Fatalf("authorization = %q", reg.Authorization)
	}
	if reg.Get("schema.name").String() != "core/image" || reg.Get("schema.version").String() != "v1.0" {
		t.Fatalf("unexpected register body %s", reg.Body)
	}
	if reg.Get("schema.spec").String() != imageSchema {
		t.Fatalf("spec must equal file content, got %q", reg.Get("schema.spec").String())
	}
	if !reg.Get("activate").Bool() {
		t.Fatal("expected activate=true")
	}

	summary := out.String()
	for _, want := range []string{"Loaded:  1", "Skipped: 2", "Failed:  0", "docker compose restart elephant-repository"} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}

	// Unchanged catalog against the updated service registers nothing.
	out.Reset()
	if err := Run(context.Background(), testConfig(fake, dir), &out, zerolog.Nop()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := len(fake.Calls(repository.ProcRegister)); got != 1 {
		t.Fatalf("expected no new register calls, total %d", got)
	}
	if !strings.Contains(out.String(), "Skipped: 3") || strings.Contains(out.String(), "Restart") {
		t.Fatalf("unexpected second summary:\n%s", out.String())
	}
}

func TestRunTokenRejectedMakesNoRPC(t *testing.T) {
	fake := fakerepo.New(t)
	fake.FailToken(http.StatusUnauthorized, `{"error":"invalid_grant","error_description":"Invalid user credentials"}`)
	dir := writeSchemaDir(t, map[string]string{"image.json": imageSchema})

	var out bytes.Buffer
	err := Run(context.Background(), testConfig(fake, dir), &out, zerolog.Nop())
	var exchangeErr *identity.ExchangeError
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected *identity.ExchangeError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "Invalid user credentials") {
		t.Fatalf("expected raw body in error, got %v", err)
	}
	if calls := fake.Calls(""); len(calls) != 0 {
		t.Fatalf("expected no RPC calls, got %d", len(calls))
	}
	if out.Len() != 0 {
		t.Fatalf("expected no summary, got %q", out.String())
	}
}

func TestRunListingFailureIsFatal(t *testing.T) {
	fake := fakerepo.New(t)
	fake.Handle(repository.ProcListActive, func(fakerepo.Call) fakerepo.Response {
		return fakerepo.TwirpError(perrors.CodeUnavailable, "database is starting")
	})
	dir := writeSchemaDir(t, map[string]string{"image.json": imageSchema})

	err := Run(context.Background(), testConfig(fake, dir), &bytes.Buffer{}, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "database is starting") {
		t.Fatalf("expected listing error, got %v", err)
	}
	if got := len(fake.Calls(repository.ProcRegister)); got != 0 {
		t.Fatalf("expected no register calls, got %d", got)
	}
}

func TestRunFailedRegistrationContinuesBatch(t *testing.T) {
	fake := fakerepo.New(t)
	fake.Handle(repository.ProcRegister, func(call fakerepo.Call) fakerepo.Response {
		if call.Get("schema.name").String() == "core/article" {
			return fakerepo.TwirpError(perrors.CodeInvalidArgument, "invalid schema spec")
		}
		return fakerepo.Response{Status: http.StatusOK, Body: map[string]any{}}
	})
	dir := writeSchemaDir(t, map[string]string{
		"article.json": articleSchema,
		"image.json":   imageSchema,
	})

	cfg := testConfig(fake, dir)
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, zerolog.Nop()); err != nil {
		t.Fatalf("non-strict run must succeed, got %v", err)
	}
	if got := len(fake.Calls(repository.ProcRegister)); got != 2 {
		t.Fatalf("expected both registrations attempted, got %d", got)
	}
	if !strings.Contains(out.String(), "Loaded:  1") || !strings.Contains(out.String(), "Failed:  1") {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}

	cfg.Strict = true
	err := Run(context.Background(), cfg, &bytes.Buffer{}, zerolog.Nop())
	var partial *config.PartialFailureError
	if !errors.As(err, &partial) || partial.Failed != 1 {
		t.Fatalf("expected partial failure in strict mode, got %v", err)
	}
}

func TestRunDryRunRegistersNothing(t *testing.T) {
	fake := fakerepo.New(t)
	dir := writeSchemaDir(t, map[string]string{"image.json": imageSchema})

	cfg := testConfig(fake, dir)
	cfg.DryRun = true
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fake.TokenRequests()) != 1 || len(fake.Calls(repository.ProcListActive)) != 1 {
		t.Fatal("dry run still exchanges a token and lists active schemas")
	}
	if got := len(fake.Calls(repository.ProcRegister)); got != 0 {
		t.Fatalf("expected no register calls, got %d", got)
	}
	if !strings.Contains(out.String(), "Would register: 1") {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}
}

func TestRunMissingDirectoryIsFatal(t *testing.T) {
	fake := fakerepo.New(t)
	cfg := testConfig(fake, filepath.Join(t.TempDir(), "absent"))
	if err := Run(context.Background(), cfg, &bytes.Buffer{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing schema directory")
	}
}

func TestRunValidatesBeforeNetwork(t *testing.T) {
	fake := fakerepo.New(t)
	cfg := testConfig(fake, t.TempDir())
	cfg.Connection.ClientID = ""
	if err := Run(context.Background(), cfg, &bytes.Buffer{}, zerolog.Nop()); err == nil {
		t.Fatal("expected validation error")
	}
	if len(fake.TokenRequests()) != 0 {
		t.Fatal("validation errors must precede the token exchange")
	}
}
