// Package api is a typed client for the bookstore REST backend.
//
// Each resource (products, cart, orders, users) has its own base URL. Calls
// that need a bearer token take it explicitly and return ErrAuthRequired
// without touching the network when it is empty.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every request when Config.Timeout is zero.
	DefaultTimeout = 15 * time.Second

	defaultProductsURL = "http://localhost:5000/api/products"
	defaultCartURL     = "http://localhost:5000/api/cart"
	defaultOrdersURL   = "http://localhost:5000/api/orders"
	defaultUsersURL    = "http://localhost:5000/api/users"

	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"

	// maxErrorBody caps how much of a failed response is read for its message.
	maxErrorBody = 64 << 10
)

// ErrAuthRequired is returned when a bearer call is made without a token.
var ErrAuthRequired = errors.New("authentication required")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the backend's "message" field, if it sent one.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bookstore api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("bookstore api: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// MessageOr returns the backend's message when err carries one, otherwise
// fallback.
func MessageOr(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// Config holds the per-resource base URLs.
type Config struct {
	ProductsURL string        `env:"BOOKSTORE_PRODUCTS_URL" envDefault:"http://localhost:5000/api/products"`
	CartURL     string        `env:"BOOKSTORE_CART_URL"     envDefault:"http://localhost:5000/api/cart"`
	OrdersURL   string        `env:"BOOKSTORE_ORDERS_URL"   envDefault:"http://localhost:5000/api/orders"`
	UsersURL    string        `env:"BOOKSTORE_USERS_URL"    envDefault:"http://localhost:5000/api/users"`
	Timeout     time.Duration `env:"BOOKSTORE_API_TIMEOUT"  envDefault:"15s"`
}

// ConfigFromEnv reads the base URLs from the environment, falling back to
// the localhost defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ProductsURL == "" {
		c.ProductsURL = defaultProductsURL
	}
	if c.CartURL == "" {
		c.CartURL = defaultCartURL
	}
	if c.OrdersURL == "" {
		c.OrdersURL = defaultOrdersURL
	}
	if c.UsersURL == "" {
		c.UsersURL = defaultUsersURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.ProductsURL = strings.TrimRight(c.ProductsURL, "/")
	c.CartURL = strings.TrimRight(c.CartURL, "/")
	c.OrdersURL = strings.TrimRight(c.OrdersURL, "/")
	c.UsersURL = strings.TrimRight(c.UsersURL, "/")
}

// Client calls the bookstore backend.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client. Empty fields of cfg take their defaults.
func New(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// request describes one backend call.
type request struct {
	method string
	url    string
	// token is sent as a bearer credential; auth makes it mandatory.
	token          string
	auth           bool
	body           any
	idempotencyKey string
}

// send performs r and decodes a 2xx body into out (when non-nil).
func (c *Client) send(ctx context.Context, r request, out any) error {
	if r.auth && r.token == "" {
		return ErrAuthRequired
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	if r.idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, r.idempotencyKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("bookstore api call",
		"method", r.method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// endpoint joins base and path segments, escaping each segment.
func endpoint(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// withQuery appends encoded query parameters, skipping empty values.
func withQuery(u string, params url.Values) string {
	for k, v := range params {
		if len(v) == 0 || v[0] == "" {
			delete(params, k)
		}
	}
	if len(params) == 0 {
		return u
	}
	return u + "?" + params.Encode()
}
