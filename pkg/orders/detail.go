package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/notify"
)

// ErrNotLoaded is returned by UpdateStatus before an order was loaded.
var ErrNotLoaded = errors.New("no order loaded")

// Detail is the admin view of one order. Each status update is an
// independent request; the backend enforces legal transitions.
type Detail struct {
	backend  Backend
	tokens   TokenSource
	notifier notify.Notifier

	// update serializes remote calls.
	update sync.Mutex

	mu    sync.RWMutex
	order *bookstore.Order
}

// DetailOption configures a Detail.
type DetailOption func(*Detail)

// WithNotifier sets where user-facing notices go.
func WithNotifier(n notify.Notifier) DetailOption {
	return func(d *Detail) {
		if n != nil {
			d.notifier = n
		}
	}
}

// NewDetail creates an empty detail view.
func NewDetail(backend Backend, tokens TokenSource, opts ...DetailOption) *Detail {
	d := &Detail{
		backend:  backend,
		tokens:   tokens,
		notifier: notify.NewSlogNotifier(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Order returns a copy of the displayed order, or nil.
func (d *Detail) Order() *bookstore.Order {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.order.Clone()
}

// Load fetches id and displays it. On failure the previous record stays.
func (d *Detail) Load(ctx context.Context, id string) (*bookstore.Order, error) {
	token := d.tokens.Token()
	if token == "" {
		notify.For(ctx, d.notifier).Error(MsgAuthNeeded)
		return nil, ErrAuthRequired
	}

	d.update.Lock()
	defer d.update.Unlock()

	order, err := d.backend.GetOrder(ctx, token, id)
	if err != nil {
		notify.For(ctx, d.notifier).Error(MsgDetailFailed)
		return nil, fmt.Errorf(msgOrderLoadError, id, err)
	}
	normalize(order)
	d.show(order)
	return order, nil
}

// UpdateStatus sets the displayed order's status with an optional note and
// displays the record the backend returns, including its new history entry.
// On failure the previous record stays.
func (d *Detail) UpdateStatus(ctx context.Context, status Status, note string) (*bookstore.Order, error) {
	if !status.Valid() {
		notify.For(ctx, d.notifier).Error(MsgInvalidStatus)
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	token := d.tokens.Token()
	if token == "" {
		notify.For(ctx, d.notifier).Error(MsgAuthNeeded)
		return nil, ErrAuthRequired
	}

	d.update.Lock()
	defer d.update.Unlock()

	current := d.Order()
	if current == nil {
		notify.For(ctx, d.notifier).Error(MsgNoOrderLoaded)
		return nil, ErrNotLoaded
	}

	updated, err := d.backend.UpdateOrderStatus(ctx, token, current.ID, bookstore.StatusUpdate{
		Status: string(status),
		Note:   note,
	})
	if err != nil {
		notify.For(ctx, d.notifier).Error(api.MessageOr(err, MsgUpdateFailed))
		return nil, fmt.Errorf("updating order %s status: %w", current.ID, err)
	}
	normalize(updated)
	d.show(updated)
	notify.For(ctx, d.notifier).Success(MsgStatusUpdated)
	return updated, nil
}

func (d *Detail) show(o *bookstore.Order) {
	cp := o.Clone()
	d.mu.Lock()
	d.order = cp
	d.mu.Unlock()
}
