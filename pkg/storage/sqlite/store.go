// Package sqlite provides a single-file SQLite backend for storage.Store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/txn2/mcp-bookstore/pkg/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"

	defaultProfile = "default"
)

// Store implements storage.Store over SQLite.
type Store struct {
	db      *sql.DB
	profile string
}

// Config configures the SQLite store.
type Config struct {
	// Path is the database file. Required.
	Path string
	// Profile namespaces records so several operators can share one file.
	Profile string
}

// Open opens (or creates) the database file and applies the bundled schema.
func Open(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if cfg.Profile == "" {
		cfg.Profile = defaultProfile
	}

	dsn := filepath.Clean(cfg.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, profile: cfg.Profile}
	if err := s.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// applyMigrations executes the Up section of every embedded migration.
// The statements are idempotent.
func (s *Store) applyMigrations() error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	for _, e := range entries {
		content, err := migrations.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		up := extractUp(string(content))
		if strings.TrimSpace(up) == "" {
			continue
		}
		if _, err := s.db.Exec(up); err != nil {
			return fmt.Errorf("apply migration %s: %w", e.Name(), err)
		}
	}
	return nil
}

// extractUp returns the text between the Up marker and the Down marker.
func extractUp(content string) string {
	start := strings.Index(content, upMarker)
	if start < 0 {
		return content
	}
	content = content[start+len(upMarker):]
	if end := strings.Index(content, downMarker); end >= 0 {
		content = content[:end]
	}
	return content
}

// Get returns the stored value, or nil, nil when the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE profile = ? AND record_key = ?`,
		s.profile, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading record: %w", err)
	}
	return value, nil
}

// Set upserts value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (profile, record_key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(profile, record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.profile, key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE profile = ? AND record_key = ?`,
		s.profile, key,
	)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Mode returns "sqlite".
func (*Store) Mode() string {
	return "sqlite"
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Verify interface compliance.
var _ storage.Store = (*Store)(nil)
