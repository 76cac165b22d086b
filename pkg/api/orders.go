package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/format"
)

// CreateOrder places an order. Each call carries a fresh Idempotency-Key.
func (c *Client) CreateOrder(ctx context.Context, token string, order bookstore.NewOrder) (*bookstore.Order, error) {
	var created bookstore.Order
	err := c.send(ctx, request{
		method:         http.MethodPost,
		url:            c.cfg.OrdersURL,
		token:          token,
		auth:           true,
		body:           order,
		idempotencyKey: uuid.NewString(),
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// MyOrders returns the signed-in user's orders.
func (c *Client) MyOrders(ctx context.Context, token string) ([]bookstore.Order, error) {
	var orders []bookstore.Order
	err := c.send(ctx, request{
		method: http.MethodGet,
		url:    endpoint(c.cfg.OrdersURL, "myorders"),
		token:  token,
		auth:   true,
	}, &orders)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrders returns one page of all orders. Admin only.
func (c *Client) ListOrders(ctx context.Context, token string, page int) (*bookstore.OrderPage, error) {
	var result bookstore.OrderPage
	err := c.send(ctx, request{
		method: http.MethodGet,
		url:    withQuery(c.cfg.OrdersURL, url.Values{"pageNumber": {format.PageParam(page)}}),
		token:  token,
		auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrder returns one order.
func (c *Client) GetOrder(ctx context.Context, token, id string) (*bookstore.Order, error) {
	var order bookstore.Order
	err := c.send(ctx, request{
		method: http.MethodGet,
		url:    endpoint(c.cfg.OrdersURL, id),
		token:  token,
		auth:   true,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus changes an order's status and returns the updated record.
// Admin only.
func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, update bookstore.StatusUpdate) (*bookstore.Order, error) {
	var order bookstore.Order
	err := c.send(ctx, request{
		method: http.MethodPut,
		url:    endpoint(c.cfg.OrdersURL, id, "status"),
		token:  token,
		auth:   true,
		body:   update,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// RevenueSummary returns revenue statistics for the last months months.
// Admin only.
func (c *Client) RevenueSummary(ctx context.Context, token string, months int) (*bookstore.RevenueSummary, error) {
	var summary bookstore.RevenueSummary
	err := c.send(ctx, request{
		method: http.MethodGet,
		url:    withQuery(endpoint(c.cfg.OrdersURL, "stats", "summary"), url.Values{"months": {strconv.Itoa(months)}}),
		token:  token,
		auth:   true,
	}, &summary)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
