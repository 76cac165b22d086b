// Package storage provides the key-value persistence used for client-side
// durable state (the persisted session record). Values are opaque bytes; the
// caller owns serialization.
//
// Backends: memory (ephemeral), file (one file per key), sqlite and postgres
// (see the subpackages).
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidKey is returned when a key is empty or contains path separators.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store persists opaque records by key.
type Store interface {
	// Get returns the stored value, or nil, nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Mode returns the backend name: "memory", "file", "sqlite" or "postgres".
	Mode() string
	// Close releases backend resources.
	Close() error
}

// ValidateKey rejects keys that cannot be stored safely by every backend.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}
