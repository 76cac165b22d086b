package platform

import (
	"net/http"

	"github.com/txn2/mcp-bookstore/pkg/notify"
	"github.com/txn2/mcp-bookstore/pkg/registry"
	"github.com/txn2/mcp-bookstore/pkg/storage"
)

// Options configures the platform.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	// Store (optional, will be opened from config if not provided).
	// A provided store is not closed by the platform.
	Store storage.Store

	// HTTPClient (optional) replaces the backend client's transport.
	HTTPClient *http.Client

	// Notifier (optional) receives every notice, including those raised
	// outside a tool call.
	// Defaults to a slog notifier.
	Notifier notify.Notifier

	// ToolkitRegistry (optional, will be created if not provided).
	ToolkitRegistry *registry.Registry
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithStore sets the key-value store.
func WithStore(store storage.Store) Option {
	return func(o *Options) {
		o.Store = store
	}
}

// WithHTTPClient sets the HTTP client used to reach the backend.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = hc
	}
}

// WithNotifier sets the downstream notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(o *Options) {
		o.Notifier = n
	}
}

// WithToolkitRegistry sets the toolkit registry.
func WithToolkitRegistry(reg *registry.Registry) Option {
	return func(o *Options) {
		o.ToolkitRegistry = reg
	}
}
