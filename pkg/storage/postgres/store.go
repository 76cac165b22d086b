// Package postgres provides PostgreSQL storage for client records, so
// several operators can share sessions and pending-clear markers.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq" // registers the "postgres" driver

	"github.com/txn2/mcp-bookstore/pkg/database/migrate"
	"github.com/txn2/mcp-bookstore/pkg/storage"
)

const (
	tableName      = "client_records"
	defaultProfile = "default"
)

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db      *sql.DB
	profile string
	ownsDB  bool
}

// Config configures the PostgreSQL store.
type Config struct {
	// DSN is the connection string. Only used by Open.
	DSN string
	// Profile namespaces records within the shared table.
	Profile string
}

// New wraps an existing database handle. The caller owns db.
func New(db *sql.DB, cfg Config) *Store {
	if cfg.Profile == "" {
		cfg.Profile = defaultProfile
	}
	return &Store{db: db, profile: cfg.Profile}
}

// Open connects to cfg.DSN, runs migrations, and returns a store that
// closes the connection on Close.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if err := migrate.Run(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := New(db, cfg)
	s.ownsDB = true
	return s, nil
}

// Get returns the stored value. Returns nil, nil if the key is absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}

	query, args, err := psq.Select("value").
		From(tableName).
		Where(sq.Eq{"profile": s.profile, "record_key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	var value []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
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

	query, args, err := psq.Insert(tableName).
		Columns("profile", "record_key", "value", "updated_at").
		Values(s.profile, key, value, time.Now().UTC()).
		Suffix("ON CONFLICT (profile, record_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	query, args, err := psq.Delete(tableName).
		Where(sq.Eq{"profile": s.profile, "record_key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// Mode returns "postgres".
func (*Store) Mode() string {
	return "postgres"
}

// Close closes the connection when the store opened it.
func (s *Store) Close() error {
	if s == nil || !s.ownsDB || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Verify interface compliance.
var _ storage.Store = (*Store)(nil)
