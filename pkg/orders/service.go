package orders

import (
	"context"
	"fmt"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
)

// Notices shown to the user.
const (
	MsgHistoryLogin  = "Vui lòng đăng nhập để xem lịch sử đơn hàng."
	MsgHistoryFailed = "Không thể tải lịch sử đơn hàng."
	MsgListFailed    = "Không thể tải danh sách đơn hàng."
	MsgDetailFailed  = "Không thể tải chi tiết đơn hàng."
	MsgUpdateFailed  = "Cập nhật trạng thái thất bại."
	MsgStatusUpdated = "Đã cập nhật trạng thái đơn hàng."
	MsgInvalidStatus = "Trạng thái đơn hàng không hợp lệ."
	MsgNoOrderLoaded = "Chưa chọn đơn hàng."
	MsgAuthNeeded    = "Vui lòng đăng nhập."
)

const msgOrderLoadError = "loading order %s: %w"

// ErrAuthRequired is returned when no session is active.
var ErrAuthRequired = api.ErrAuthRequired

// Backend is the remote order API.
type Backend interface {
	MyOrders(ctx context.Context, token string) ([]bookstore.Order, error)
	ListOrders(ctx context.Context, token string, page int) (*bookstore.OrderPage, error)
	GetOrder(ctx context.Context, token, id string) (*bookstore.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, update bookstore.StatusUpdate) (*bookstore.Order, error)
}

// TokenSource supplies the bearer token.
type TokenSource interface {
	Token() string
}

// Service reads orders for the signed-in user.
type Service struct {
	backend Backend
	tokens  TokenSource
}

// NewService creates an order service.
func NewService(backend Backend, tokens TokenSource) *Service {
	return &Service{backend: backend, tokens: tokens}
}

// History returns the signed-in customer's orders.
func (s *Service) History(ctx context.Context) ([]bookstore.Order, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrAuthRequired
	}
	list, err := s.backend.MyOrders(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("loading order history: %w", err)
	}
	for i := range list {
		normalize(&list[i])
	}
	return list, nil
}

// List returns one page of all orders. Admin only.
func (s *Service) List(ctx context.Context, page int) (*bookstore.OrderPage, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrAuthRequired
	}
	result, err := s.backend.ListOrders(ctx, token, page)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	for i := range result.Orders {
		normalize(&result.Orders[i])
	}
	return result, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id string) (*bookstore.Order, error) {
	token := s.tokens.Token()
	if token == "" {
		return nil, ErrAuthRequired
	}
	order, err := s.backend.GetOrder(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf(msgOrderLoadError, id, err)
	}
	normalize(order)
	return order, nil
}
