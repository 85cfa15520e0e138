// Package ledger records seed documents created by previous runs in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/elephant-bootstrap/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Entry is one recorded seed document.
type Entry struct {
	NaturalKey string
	UUID       string
	Type       string
	Version    string
	CreatedAt  time.Time
}

// Store is a SQLite-backed ledger.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens (creating if needed) the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrationFS, "migrations"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Lookup returns the document recorded for naturalKey.
func (s *Store) Lookup(ctx context.Context, naturalKey string) (Entry, bool, error) {
	var (
		entry     Entry
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT natural_key, uuid, doc_type, version, created_at FROM seed_documents WHERE natural_key = ?`,
		naturalKey,
	).Scan(&entry.NaturalKey, &entry.UUID, &entry.Type, &entry.Version, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("lookup %s: %w", naturalKey, err)
	}
	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	return entry, true, nil
}

// Record stores entry, replacing an earlier record for the same key.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.NaturalKey == "" || entry.UUID == "" {
		return fmt.Errorf("natural key and uuid are required")
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO seed_documents (natural_key, uuid, doc_type, version, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(natural_key) DO UPDATE SET
    uuid = excluded.uuid,
    doc_type = excluded.doc_type,
    version = excluded.version,
    created_at = excluded.created_at`,
		entry.NaturalKey, entry.UUID, entry.Type, entry.Version, createdAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", entry.NaturalKey, err)
	}
	return nil
}
