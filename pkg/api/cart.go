package api

import (
	"context"
	"net/http"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
)

type addToCartBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateCartBody struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the signed-in user's cart.
func (c *Client) GetCart(ctx context.Context, token string) (*bookstore.Cart, error) {
	return c.cartCall(ctx, request{method: http.MethodGet, url: c.cfg.CartURL, token: token})
}

// AddToCart adds quantity of productID and returns the resulting cart.
func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) (*bookstore.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodPost,
		url:    endpoint(c.cfg.CartURL, "add"),
		token:  token,
		body:   addToCartBody{ProductID: productID, Quantity: quantity},
	})
}

// UpdateCartItem sets the quantity of productID and returns the resulting cart.
func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) (*bookstore.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodPut,
		url:    endpoint(c.cfg.CartURL, "update", productID),
		token:  token,
		body:   updateCartBody{Quantity: quantity},
	})
}

// RemoveCartItem drops productID and returns the resulting cart.
func (c *Client) RemoveCartItem(ctx context.Context, token, productID string) (*bookstore.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodDelete,
		url:    endpoint(c.cfg.CartURL, "remove", productID),
		token:  token,
	})
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context, token string) (*bookstore.Cart, error) {
	return c.cartCall(ctx, request{
		method: http.MethodDelete,
		url:    endpoint(c.cfg.CartURL, "clear"),
		token:  token,
	})
}

func (c *Client) cartCall(ctx context.Context, r request) (*bookstore.Cart, error) {
	r.auth = true
	var cart bookstore.Cart
	if err := c.send(ctx, r, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
