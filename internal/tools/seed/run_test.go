package seed

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/elephant-bootstrap/internal/identity"
	"github.com/louisbranch/elephant-bootstrap/internal/platform/config"
	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/louisbranch/elephant-bootstrap/internal/testkit/fakerepo"
	"github.com/rs/zerolog"
)

func testConfig(fake *fakerepo.Server) Config {
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
		Statuses:       []string{"usable"},
		ACLUnit:        "core://unit/redaktionen",
		ACLPermissions: []string{"r", "w"},
	}
}

func TestRunSeedsDefaultSections(t *testing.T) {
	fake := fakerepo.New(t)

	var out bytes.Buffer
	if err := Run(context.Background(), testConfig(fake), &out, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}

	tokenReqs := fake.TokenRequests()
	if len(tokenReqs) != 1 || tokenReqs[0].Get("scope") != "doc_read doc_write" {
		t.Fatalf("token requests = %v", tokenReqs)
	}
	calls := fake.Calls(repository.ProcUpdate)
	if len(calls) != 6 {
		t.Fatalf("expected 6 writes, got %d", len(calls))
	}
	wantCodes := []string{"nyheter", "sport", "kultur", "ekonomi", "noje", "debatt"}
	ids := map[string]bool{}
	for i, call := range calls {
		if call.Authorization != "Bearer fake-token" {
			t.Fatalf("call %d authorization = %q", i, call.Authorization)
		}
		id := call.Get("uuid").String()
		if ids[id] {
			t.Fatalf("duplicate uuid %s", id)
		}
		ids[id] = true
		if call.Get("ifMatch").String() != "0" || call.Get("status.0.name").String() != "usable" {
			t.Fatalf("call %d body = %s", i, call.Body)
		}
		if call.Get("acl.#").Int() != 1 || call.Get("acl.0.uri").String() != "core://unit/redaktionen" {
			t.Fatalf("call %d acl = %s", i, call.Get("acl").Raw)
		}
		if got := call.Get("document.uri").String(); got != "core://section/"+id {
			t.Fatalf("call %d uri = %q", i, got)
		}
		if got := call.Get("document.meta.0.data.code").String(); got != wantCodes[i] {
			t.Fatalf("call %d code = %q, want %q", i, got, wantCodes[i])
		}
		if call.Get("document.language").String() != "sv-se" {
			t.Fatalf("call %d language = %s", i, call.Get("document.language").Raw)
		}
	}
	if fake.Documents() != 6 {
		t.Fatalf("stored documents = %d", fake.Documents())
	}
	if !strings.Contains(out.String(), `6 documents created with status "usable"`) {
		t.Fatalf("summary = %s", out.String())
	}
}

func TestRunTokenFailureMakesNoWrites(t *testing.T) {
	fake := fakerepo.New(t)
	fake.FailToken(http.StatusUnauthorized, `{"error":"invalid_grant","error_description":"Invalid user credentials"}`)

	var out bytes.Buffer
	err := Run(context.Background(), testConfig(fake), &out, zerolog.Nop())
	var exchangeErr *identity.ExchangeError
	if !errors.As(err, &exchangeErr) || exchangeErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected exchange error, got %v", err)
	}
	if len(fake.Calls("")) != 0 {
		t.Fatalf("expected no procedure calls, got %d", len(fake.Calls("")))
	}
	if out.Len() != 0 {
		t.Fatalf("expected no summary, got %s", out.String())
	}
}

func TestRunMissingVersionCountsAsFailure(t *testing.T) {
	fake := fakerepo.New(t)
	fake.Handle(repository.ProcUpdate, func(fakerepo.Call) fakerepo.Response {
		return fakerepo.Response{Status: http.StatusOK, Body: map[string]any{"uuid": "x"}}
	})

	cfg := testConfig(fake)
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "6 failed") {
		t.Fatalf("summary = %s", out.String())
	}

	cfg.Strict = true
	err := Run(context.Background(), cfg, &out, zerolog.Nop())
	var partial *config.PartialFailureError
	if !errors.As(err, &partial) || partial.Failed != 6 || partial.Total != 6 {
		t.Fatalf("expected partial failure, got %v", err)
	}
}

func TestRunStableIDsSecondRunSkips(t *testing.T) {
	fake := fakerepo.New(t)
	cfg := testConfig(fake)
	cfg.StableIDs = true

	if err := Run(context.Background(), cfg, &bytes.Buffer{}, zerolog.Nop()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, zerolog.Nop()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if fake.Documents() != 6 {
		t.Fatalf("stored documents = %d", fake.Documents())
	}
	if !strings.Contains(out.String(), "0 documents created") || !strings.Contains(out.String(), "6 skipped") {
		t.Fatalf("summary = %s", out.String())
	}
}

func TestRunLedgerSkipsRecordedDocuments(t *testing.T) {
	fake := fakerepo.New(t)
	cfg := testConfig(fake)
	cfg.Ledger = filepath.Join(t.TempDir(), "seed.db")

	if err := Run(context.Background(), cfg, &bytes.Buffer{}, zerolog.Nop()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, zerolog.Nop()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := len(fake.Calls(repository.ProcUpdate)); got != 6 {
		t.Fatalf("expected 6 writes across both runs, got %d", got)
	}
	if !strings.Contains(out.String(), "6 skipped") {
		t.Fatalf("summary = %s", out.String())
	}
}

func TestRunDryRunContactsNothing(t *testing.T) {
	fake := fakerepo.New(t)
	cfg := testConfig(fake)
	cfg.DryRun = true

	var out bytes.Buffer
	if err := Run(context.Background(), cfg, &out, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(fake.TokenRequests()) != 0 || len(fake.Calls("")) != 0 {
		t.Fatal("dry run contacted the fake")
	}
	if !strings.Contains(out.String(), "Dry run: 6 documents would be created") {
		t.Fatalf("summary = %s", out.String())
	}
}

func TestRunListSkipsValidation(t *testing.T) {
	var out bytes.Buffer
	if err := Run(context.Background(), Config{List: true}, &out, zerolog.Nop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Nöje") || !strings.Contains(out.String(), "debatt") {
		t.Fatalf("list = %s", out.String())
	}
}

func TestRunValidatesBeforeNetwork(t *testing.T) {
	fake := fakerepo.New(t)
	cfg := testConfig(fake)
	cfg.Connection.TokenURL = "not a url"

	if err := Run(context.Background(), cfg, &bytes.Buffer{}, zerolog.Nop()); err == nil {
		t.Fatal("expected validation error")
	}
	if len(fake.TokenRequests()) != 0 {
		t.Fatal("validation failure still requested a token")
	}
}
