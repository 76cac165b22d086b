// Package session holds the signed-in user's identity and bearer token and
// persists it across restarts. It is the single source of truth for whether
// protected operations (cart, checkout, order history, admin) are reachable.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/txn2/mcp-bookstore/pkg/storage"
)

// StorageKey is the fixed key the session record is persisted under.
const StorageKey = "userInfo"

const (
	// slogKeyError is the slog attribute key for error values.
	slogKeyError = "error"
	// slogKeyMode is the slog attribute key for the storage backend.
	slogKeyMode = "storage"
)

// ErrIncomplete is returned by Login when a required field is empty.
var ErrIncomplete = errors.New("session is missing required fields")

// Session is the authenticated user as returned by the login and register
// endpoints. It is persisted in the same JSON shape.
type Session struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

// Complete reports whether every required field is populated.
func (s Session) Complete() bool {
	return strings.TrimSpace(s.ID) != "" &&
		strings.TrimSpace(s.Name) != "" &&
		strings.TrimSpace(s.Email) != "" &&
		strings.TrimSpace(s.Token) != ""
}

// ExpiresAt reads the exp claim of a JWT token without verifying it. The
// value is informational; an expired token never ends the session.
func (s Session) ExpiresAt() (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Store owns the current session. A Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	kv        storage.Store
	current   *Session
	observers []func(*Session)
}

// NewStore creates an anonymous store backed by kv. Call Restore to load a
// previously persisted session.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// OnChange registers fn to be called after every login, logout and restore
// with the new session (nil when anonymous).
func (s *Store) OnChange(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Restore loads the persisted session. A record that cannot be decoded or is
// incomplete is deleted and the store stays anonymous. Restore never fails.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	s.current = s.load(ctx)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) load(ctx context.Context) *Session {
	data, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		slog.Warn("session restore: read failed", slogKeyMode, s.kv.Mode(), slogKeyError, err)
		return nil
	}
	if data == nil {
		return nil
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil || !sess.Complete() {
		slog.Warn("session restore: discarding corrupt record", slogKeyMode, s.kv.Mode())
		if err := s.kv.Delete(ctx, StorageKey); err != nil {
			slog.Warn("session restore: purge failed", slogKeyMode, s.kv.Mode(), slogKeyError, err)
		}
		return nil
	}
	return &sess
}

// Login persists sess and makes it current. The in-memory state changes only
// after the record is written.
func (s *Store) Login(ctx context.Context, sess Session) error {
	if !sess.Complete() {
		return ErrIncomplete
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	s.mu.Lock()
	if err := s.kv.Set(ctx, StorageKey, data); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persisting session: %w", err)
	}
	s.current = &sess
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	slog.Debug("session started", "user_id", sess.ID, "admin", sess.IsAdmin)
	s.notify(snapshot)
	return nil
}

// Logout removes the persisted record and resets to anonymous. Calling it
// while anonymous is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	if err := s.kv.Delete(ctx, StorageKey); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("clearing session: %w", err)
	}
	wasActive := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if wasActive {
		slog.Debug("session ended")
		s.notify(nil)
	}
	return nil
}

// Current returns a copy of the active session, or nil when anonymous.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Token returns the bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// IsAuthenticated reports whether a session is active.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the active session belongs to an administrator.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.IsAdmin
}

func (s *Store) snapshotLocked() *Session {
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Store) notify(sess *Session) {
	s.mu.RLock()
	observers := make([]func(*Session), len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(sess)
	}
}
