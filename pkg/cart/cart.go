// Package cart mirrors the signed-in user's server-side cart.
//
// The mirror is only ever replaced wholesale with the cart the backend
// returns; nothing is merged or computed locally. Mutations are serialized
// so the last request issued is also the last one applied.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/notify"
	"github.com/txn2/mcp-bookstore/pkg/session"
	"github.com/txn2/mcp-bookstore/pkg/storage"
)

// Notices shown to the user.
const (
	MsgAuthRequired    = "Bạn cần đăng nhập để thêm sản phẩm vào giỏ hàng"
	MsgLoginRequired   = "Bạn cần đăng nhập để sử dụng giỏ hàng"
	MsgAdded           = "Đã thêm vào giỏ hàng!"
	MsgAddFailed       = "Thêm giỏ hàng thất bại"
	MsgUpdateFailed    = "Cập nhật giỏ hàng thất bại"
	MsgRemoveFailed    = "Xóa sản phẩm khỏi giỏ hàng thất bại"
	MsgClearFailed     = "Xóa giỏ hàng thất bại"
	MsgLoadFailed      = "Không thể tải giỏ hàng."
	MsgInvalidQuantity = "Số lượng phải lớn hơn 0"
)

// pendingClearKey stores the id of the user whose cart still has to be
// cleared after an order was placed.
const pendingClearKey = "cartClearPending"

var (
	// ErrAuthRequired is returned when no session is active.
	ErrAuthRequired = api.ErrAuthRequired
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrSessionChanged is returned when the session ended or changed while
	// a request was in flight. Its response is discarded.
	ErrSessionChanged = errors.New("session changed during cart request")
)

// Backend is the remote cart API.
type Backend interface {
	GetCart(ctx context.Context, token string) (*bookstore.Cart, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) (*bookstore.Cart, error)
	UpdateCartItem(ctx context.Context, token, productID string, quantity int) (*bookstore.Cart, error)
	RemoveCartItem(ctx context.Context, token, productID string) (*bookstore.Cart, error)
	ClearCart(ctx context.Context, token string) (*bookstore.Cart, error)
}

// Identity supplies the active session.
type Identity interface {
	Token() string
	Current() *session.Session
}

// Store is the in-memory cart mirror.
type Store struct {
	backend  Backend
	identity Identity
	notifier notify.Notifier
	kv       storage.Store

	// mutate is held across each remote call.
	mutate sync.Mutex

	mu    sync.RWMutex
	items []bookstore.CartItem
	// gen counts session changes. A response is applied only if gen is
	// unchanged since its request was issued.
	gen uint64
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where user-facing notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithStorage persists the pending-clear marker so it survives restarts.
func WithStorage(kv storage.Store) Option {
	return func(s *Store) {
		if kv != nil {
			s.kv = kv
		}
	}
}

// New creates an empty cart mirror.
func New(backend Backend, identity Identity, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		identity: identity,
		notifier: notify.NewSlogNotifier(nil),
		kv:       storage.NewMemoryStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnSessionChange empties the mirror. Register it with
// session.Store.OnChange so a logout never leaves a cart behind.
func (s *Store) OnSessionChange(_ *session.Session) {
	s.Reset()
}

// Reset empties the mirror and invalidates requests still in flight.
func (s *Store) Reset() {
	s.mu.Lock()
	s.gen++
	s.items = nil
	s.mu.Unlock()
}

// AddItem adds quantity of product; zero means one.
func (s *Store) AddItem(ctx context.Context, product bookstore.Product, quantity int) error {
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		s.notices(ctx).Error(MsgInvalidQuantity)
		return ErrInvalidQuantity
	}

	err := s.apply(ctx, MsgAuthRequired, MsgAddFailed, func(token string) (*bookstore.Cart, error) {
		return s.backend.AddToCart(ctx, token, product.ID, quantity)
	})
	if err != nil {
		return fmt.Errorf("adding %s to cart: %w", product.ID, err)
	}
	s.notices(ctx).Success(MsgAdded)
	return nil
}

// UpdateQuantity sets the quantity of productID.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		s.notices(ctx).Error(MsgInvalidQuantity)
		return ErrInvalidQuantity
	}

	err := s.apply(ctx, MsgLoginRequired, MsgUpdateFailed, func(token string) (*bookstore.Cart, error) {
		return s.backend.UpdateCartItem(ctx, token, productID, quantity)
	})
	if err != nil {
		return fmt.Errorf("updating cart item %s: %w", productID, err)
	}
	return nil
}

// RemoveItem drops productID from the cart.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	err := s.apply(ctx, MsgLoginRequired, MsgRemoveFailed, func(token string) (*bookstore.Cart, error) {
		return s.backend.RemoveCartItem(ctx, token, productID)
	})
	if err != nil {
		return fmt.Errorf("removing cart item %s: %w", productID, err)
	}
	return nil
}

// Clear empties the cart. On success the mirror is empty whatever the
// backend returned, and any pending reconciliation is dropped.
func (s *Store) Clear(ctx context.Context) error {
	err := s.apply(ctx, MsgLoginRequired, MsgClearFailed, func(token string) (*bookstore.Cart, error) {
		if _, err := s.backend.ClearCart(ctx, token); err != nil {
			return nil, err
		}
		s.dropPending(ctx)
		return &bookstore.Cart{}, nil
	})
	if err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Refresh reloads the mirror from the backend. When a clear is pending for
// the current user it is retried first.
func (s *Store) Refresh(ctx context.Context) error {
	err := s.apply(ctx, MsgLoginRequired, MsgLoadFailed, func(token string) (*bookstore.Cart, error) {
		if s.pendingForCurrent(ctx) {
			if _, err := s.backend.ClearCart(ctx, token); err != nil {
				return nil, fmt.Errorf("reconciling cart: %w", err)
			}
			s.dropPending(ctx)
			slog.Info("cart reconciled after order")
		}
		return s.backend.GetCart(ctx, token)
	})
	if err != nil {
		return fmt.Errorf("loading cart: %w", err)
	}
	return nil
}

// MarkClearPending records that the current user's cart must be cleared on
// the next Refresh.
func (s *Store) MarkClearPending(ctx context.Context) error {
	cur := s.identity.Current()
	if cur == nil {
		return ErrAuthRequired
	}
	if err := s.kv.Set(ctx, pendingClearKey, []byte(cur.ID)); err != nil {
		return fmt.Errorf("saving pending cart clear: %w", err)
	}
	return nil
}

// ClearPending reports whether a reconciliation is outstanding for the
// current user.
func (s *Store) ClearPending(ctx context.Context) bool {
	return s.pendingForCurrent(ctx)
}

// apply runs call with the session token under the mutation lock and
// replaces the mirror with its result. Without a session it raises authMsg
// and makes no call. Failures raise failMsg, or the backend's message, and
// leave the mirror untouched. A response that arrives after the session
// changed is dropped.
func (s *Store) apply(ctx context.Context, authMsg, failMsg string, call func(token string) (*bookstore.Cart, error)) error {
	s.mutate.Lock()
	defer s.mutate.Unlock()

	gen := s.generation()
	token := s.identity.Token()
	if token == "" {
		s.notices(ctx).Error(authMsg)
		return ErrAuthRequired
	}
	if err := ctx.Err(); err != nil {
		s.notices(ctx).Error(failMsg)
		return err
	}

	cart, err := call(token)
	if err != nil {
		s.notices(ctx).Error(api.MessageOr(err, failMsg))
		return err
	}
	if cart == nil {
		cart = &bookstore.Cart{}
	}
	if !s.replaceIf(gen, cart.Items) {
		slog.Debug("dropping cart response from a previous session")
		return ErrSessionChanged
	}
	return nil
}

// notices returns the notifier for the call carried by ctx.
func (s *Store) notices(ctx context.Context) notify.Notifier {
	return notify.For(ctx, s.notifier)
}

func (s *Store) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Store) pendingForCurrent(ctx context.Context) bool {
	cur := s.identity.Current()
	if cur == nil {
		return false
	}
	owner, err := s.kv.Get(ctx, pendingClearKey)
	if err != nil {
		slog.Warn("reading pending cart clear", "error", err)
		return false
	}
	return owner != nil && string(owner) == cur.ID
}

func (s *Store) dropPending(ctx context.Context) {
	if err := s.kv.Delete(ctx, pendingClearKey); err != nil {
		slog.Warn("removing pending cart clear", "error", err)
	}
}

// replaceIf swaps in items unless the session changed since gen.
func (s *Store) replaceIf(gen uint64, items []bookstore.CartItem) bool {
	cp := make([]bookstore.CartItem, len(items))
	copy(cp, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.items = cp
	return true
}

// Items returns a copy of the mirror.
func (s *Store) Items() []bookstore.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]bookstore.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count returns the total quantity across all lines.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Subtotal returns the sum of price times quantity. It is for display; the
// backend computes the authoritative total.
func (s *Store) Subtotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, it := range s.items {
		total += it.LineTotal()
	}
	return total
}

// IsEmpty reports whether the mirror has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}
