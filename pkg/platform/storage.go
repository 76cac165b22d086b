package platform

import (
	"context"
	"fmt"

	"github.com/txn2/mcp-bookstore/pkg/storage"
	"github.com/txn2/mcp-bookstore/pkg/storage/postgres"
	"github.com/txn2/mcp-bookstore/pkg/storage/sqlite"
)

// healthKey is read by the storage readiness check. It is never written.
const healthKey = "healthcheck"

// OpenStorage opens the store selected by cfg. A failed open returns a nil
// interface, never one wrapping a nil pointer.
func OpenStorage(ctx context.Context, cfg StorageConfig) (storage.Store, error) {
	switch cfg.Provider {
	case StorageMemory:
		return storage.NewMemoryStore(), nil
	case StorageFile:
		s, err := storage.NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StorageSQLite:
		s, err := sqlite.Open(sqlite.Config{Path: cfg.Path, Profile: cfg.Profile})
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoragePostgres:
		s, err := postgres.Open(ctx, postgres.Config{DSN: cfg.DSN, Profile: cfg.Profile})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// StorageCheck reports whether store can serve reads.
func StorageCheck(store storage.Store) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, err := store.Get(ctx, healthKey); err != nil {
			return fmt.Errorf("%s storage: %w", store.Mode(), err)
		}
		return nil
	}
}
