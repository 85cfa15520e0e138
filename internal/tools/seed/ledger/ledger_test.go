package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed-ledger.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close ledger: %v", err)
		}
	})
	return store, path
}

func TestRecordAndLookup(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Lookup(ctx, "core/section:sport"); err != nil || ok {
		t.Fatalf("lookup before record = %v, %v", ok, err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Record(ctx, Entry{NaturalKey: "core/section:sport", UUID: "u-1", Type: "core/section", Version: "1", CreatedAt: at}); err != nil {
		t.Fatalf("record: %v", err)
	}
	entry, ok, err := store.Lookup(ctx, "core/section:sport")
	if err != nil || !ok {
		t.Fatalf("lookup = %v, %v", ok, err)
	}
	if entry.UUID != "u-1" || entry.Version != "1" || !entry.CreatedAt.Equal(at) {
		t.Fatalf("entry = %+v", entry)
	}

	if err := store.Record(ctx, Entry{NaturalKey: "core/section:sport", UUID: "u-2", Type: "core/section"}); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	entry, _, _ = store.Lookup(ctx, "core/section:sport")
	if entry.UUID != "u-2" {
		t.Fatalf("expected replaced record, got %+v", entry)
	}
}

func TestRecordRequiresKeyAndUUID(t *testing.T) {
	store, _ := openTestStore(t)
	if err := store.Record(context.Background(), Entry{UUID: "u"}); err == nil {
		t.Fatal("expected error without key")
	}
	if err := store.Record(context.Background(), Entry{NaturalKey: "k"}); err == nil {
		t.Fatal("expected error without uuid")
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	store, path := openTestStore(t)
	ctx := context.Background()
	if err := store.Record(ctx, Entry{NaturalKey: "core/section:kultur", UUID: "u-k", Type: "core/section"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	entry, ok, err := reopened.Lookup(ctx, "core/section:kultur")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !ok || entry.UUID != "u-k" || entry.CreatedAt.IsZero() {
		t.Fatalf("entry = %+v, found %v", entry, ok)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
