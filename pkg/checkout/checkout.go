// Package checkout implements order submission:
//
//	Idle -> Submitting -> Placed | Failed
//
// Failed returns to Submitting on the next attempt. Placed is terminal.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/notify"
)

// Notices shown to the user.
const (
	MsgOrderFailed  = "Không thể đặt hàng. Vui lòng thử lại."
	MsgPlaced       = "Đơn hàng của bạn đã được đặt thành công."
	MsgCartFailed   = "Không thể tải giỏ hàng."
	MsgEmptyCart    = "Giỏ hàng của bạn đang trống."
	MsgFormRequired = "Vui lòng điền đầy đủ thông tin giao hàng."
	MsgLoginFirst   = "Vui lòng đăng nhập để thanh toán."
)

// State is a checkout phase.
type State int

// Checkout phases.
const (
	Idle State = iota
	Submitting
	Placed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Placed:
		return "placed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrAuthRequired is returned when no session is active.
	ErrAuthRequired = api.ErrAuthRequired
	// ErrEmptyCart is returned when the server cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAlreadyPlaced is returned by Submit after an order was placed.
	ErrAlreadyPlaced = errors.New("order already placed")
	// ErrInProgress is returned when a submission is already running.
	ErrInProgress = errors.New("checkout already in progress")
)

// FormError lists the shipping fields that failed validation.
type FormError struct {
	Fields []string
}

func (e *FormError) Error() string {
	return "invalid shipping details: " + strings.Join(e.Fields, ", ")
}

// Form is the shipping details entered at checkout.
type Form struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate requires every field and a plausible email.
func (f Form) Validate() error {
	var bad []string
	if strings.TrimSpace(f.FullName) == "" {
		bad = append(bad, "fullName")
	}
	if strings.TrimSpace(f.Address) == "" {
		bad = append(bad, "address")
	}
	if email := strings.TrimSpace(f.Email); email == "" || !strings.Contains(email, "@") {
		bad = append(bad, "email")
	}
	if strings.TrimSpace(f.Phone) == "" {
		bad = append(bad, "phone")
	}
	if len(bad) > 0 {
		return &FormError{Fields: bad}
	}
	return nil
}

func (f Form) address() bookstore.ShippingAddress {
	return bookstore.ShippingAddress{
		FullName: strings.TrimSpace(f.FullName),
		Address:  strings.TrimSpace(f.Address),
		Email:    strings.TrimSpace(f.Email),
		Phone:    strings.TrimSpace(f.Phone),
	}
}

// Cart is the part of the cart store checkout drives.
type Cart interface {
	Refresh(ctx context.Context) error
	Items() []bookstore.CartItem
	Clear(ctx context.Context) error
	MarkClearPending(ctx context.Context) error
}

// OrderCreator places orders.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, order bookstore.NewOrder) (*bookstore.Order, error)
}

// TokenSource supplies the bearer token.
type TokenSource interface {
	Token() string
}

// Result is a placed order.
type Result struct {
	Order *bookstore.Order `json:"order"`
	// CartCleared is false when the order went through but the cart could
	// not be emptied; the cart is then reconciled on its next refresh.
	CartCleared bool `json:"cartCleared"`
}

// Flow is one checkout instance.
type Flow struct {
	orders   OrderCreator
	cart     Cart
	tokens   TokenSource
	notifier notify.Notifier

	mu      sync.Mutex
	state   State
	lastErr string
	result  *Result
}

// Option configures a Flow.
type Option func(*Flow)

// WithNotifier sets where user-facing notices go.
func WithNotifier(n notify.Notifier) Option {
	return func(f *Flow) {
		if n != nil {
			f.notifier = n
		}
	}
}

// New creates a flow in the Idle state.
func New(orders OrderCreator, cart Cart, tokens TokenSource, opts ...Option) *Flow {
	f := &Flow{
		orders:   orders,
		cart:     cart,
		tokens:   tokens,
		notifier: notify.NewSlogNotifier(nil),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current phase.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// LastError returns the message shown for the most recent failure.
func (f *Flow) LastError() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Result returns the placed order, or nil before Placed.
func (f *Flow) Result() *Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Submit validates the form, re-reads the cart from the server and places
// the order. Guard failures leave the state unchanged. An empty cart mirror
// is rejected before any request; a cart found empty on the server is
// rejected before the order request.
func (f *Flow) Submit(ctx context.Context, form Form) (*Result, error) {
	token, err := f.begin(ctx, form)
	if err != nil {
		return nil, err
	}

	if err := f.cart.Refresh(ctx); err != nil {
		f.fail(ctx, api.MessageOr(err, MsgCartFailed))
		return nil, fmt.Errorf("loading cart for checkout: %w", err)
	}
	items := f.cart.Items()
	if len(items) == 0 {
		f.abort(ctx, MsgEmptyCart)
		return nil, ErrEmptyCart
	}

	order, err := f.orders.CreateOrder(ctx, token, buildOrder(items, form))
	if err != nil {
		f.fail(ctx, api.MessageOr(err, MsgOrderFailed))
		return nil, fmt.Errorf("creating order: %w", err)
	}

	res := &Result{Order: order, CartCleared: true}
	if err := f.cart.Clear(ctx); err != nil {
		res.CartCleared = false
		slog.Warn("order placed but cart not cleared", "order_id", order.ID, "error", err)
		if err := f.cart.MarkClearPending(ctx); err != nil {
			slog.Warn("recording pending cart clear", "order_id", order.ID, "error", err)
		}
	}

	f.mu.Lock()
	f.state = Placed
	f.lastErr = ""
	f.result = res
	f.mu.Unlock()

	notify.For(ctx, f.notifier).Success(MsgPlaced)
	return res, nil
}

// begin checks the guards and moves to Submitting.
func (f *Flow) begin(ctx context.Context, form Form) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case Placed:
		return "", ErrAlreadyPlaced
	case Submitting:
		return "", ErrInProgress
	case Idle, Failed:
	}

	token := f.tokens.Token()
	if token == "" {
		f.lastErr = MsgLoginFirst
		notify.For(ctx, f.notifier).Error(MsgLoginFirst)
		return "", ErrAuthRequired
	}
	if err := form.Validate(); err != nil {
		f.lastErr = MsgFormRequired
		notify.For(ctx, f.notifier).Error(MsgFormRequired)
		return "", err
	}
	if len(f.cart.Items()) == 0 {
		f.lastErr = MsgEmptyCart
		notify.For(ctx, f.notifier).Error(MsgEmptyCart)
		return "", ErrEmptyCart
	}

	f.state = Submitting
	f.lastErr = ""
	return token, nil
}

// fail moves to Failed with msg.
func (f *Flow) fail(ctx context.Context, msg string) {
	f.mu.Lock()
	f.state = Failed
	f.lastErr = msg
	f.mu.Unlock()
	notify.For(ctx, f.notifier).Error(msg)
}

// abort returns to Idle with msg; used when a guard trips after the cart
// was re-read.
func (f *Flow) abort(ctx context.Context, msg string) {
	f.mu.Lock()
	f.state = Idle
	f.lastErr = msg
	f.mu.Unlock()
	notify.For(ctx, f.notifier).Error(msg)
}

func buildOrder(items []bookstore.CartItem, form Form) bookstore.NewOrder {
	order := bookstore.NewOrder{
		OrderItems:      make([]bookstore.OrderItem, 0, len(items)),
		ShippingAddress: form.address(),
	}
	for _, it := range items {
		order.OrderItems = append(order.OrderItems, bookstore.OrderItem{
			Product:  it.Product.ID,
			Name:     it.Product.Name,
			Price:    it.Product.Price,
			Quantity: it.Quantity,
			ImageURL: it.Product.ImageURL,
		})
		order.TotalPrice += it.LineTotal()
	}
	return order
}
