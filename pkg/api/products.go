package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/format"
)

// ProductQuery filters the paged catalog.
type ProductQuery struct {
	Page       int
	Featured   bool
	Bestseller bool
}

// ListProducts returns one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*bookstore.ProductPage, error) {
	params := url.Values{"pageNumber": {format.PageParam(q.Page)}}
	if q.Featured {
		params.Set("featured", "true")
	}
	if q.Bestseller {
		params.Set("bestseller", "true")
	}

	var page bookstore.ProductPage
	err := c.send(ctx, request{method: http.MethodGet, url: withQuery(c.cfg.ProductsURL, params)}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct returns a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*bookstore.Product, error) {
	var p bookstore.Product
	if err := c.send(ctx, request{method: http.MethodGet, url: endpoint(c.cfg.ProductsURL, id)}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// RelatedProducts returns products the backend considers related to id.
func (c *Client) RelatedProducts(ctx context.Context, id string) ([]bookstore.Product, error) {
	var products []bookstore.Product
	err := c.send(ctx, request{method: http.MethodGet, url: endpoint(c.cfg.ProductsURL, id, "related")}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts finds products by name.
func (c *Client) SearchProducts(ctx context.Context, name string, page int) (*bookstore.ProductPage, error) {
	params := url.Values{"name": {name}, "pageNumber": {format.PageParam(page)}}

	var result bookstore.ProductPage
	err := c.send(ctx, request{method: http.MethodGet, url: withQuery(endpoint(c.cfg.ProductsURL, "search"), params)}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Categories returns the category names.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := c.send(ctx, request{method: http.MethodGet, url: endpoint(c.cfg.ProductsURL, "categories")}, &categories)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ProductsByCategory returns one page of a category.
func (c *Client) ProductsByCategory(ctx context.Context, category string, page int) (*bookstore.ProductPage, error) {
	params := url.Values{"pageNumber": {format.PageParam(page)}}

	var result bookstore.ProductPage
	err := c.send(ctx, request{
		method: http.MethodGet,
		url:    withQuery(endpoint(c.cfg.ProductsURL, "category", category), params),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateProduct adds a product. Admin only.
func (c *Client) CreateProduct(ctx context.Context, token string, p bookstore.Product) (*bookstore.Product, error) {
	var created bookstore.Product
	err := c.send(ctx, request{
		method: http.MethodPost,
		url:    c.cfg.ProductsURL,
		token:  token,
		auth:   true,
		body:   p,
	}, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateProduct replaces a product's fields. Admin only.
func (c *Client) UpdateProduct(ctx context.Context, token, id string, p bookstore.Product) (*bookstore.Product, error) {
	var updated bookstore.Product
	err := c.send(ctx, request{
		method: http.MethodPut,
		url:    endpoint(c.cfg.ProductsURL, id),
		token:  token,
		auth:   true,
		body:   p,
	}, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteProduct removes a product. Admin only.
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.send(ctx, request{
		method: http.MethodDelete,
		url:    endpoint(c.cfg.ProductsURL, id),
		token:  token,
		auth:   true,
	}, nil)
}
