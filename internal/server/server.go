// Package server assembles the bookstore platform and the HTTP surface it
// is served on.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/health"
	"github.com/txn2/mcp-bookstore/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

// Check names reported by the readiness endpoint.
const (
	checkStorage = "storage"
	checkBackend = "backend"
)

// LoadConfig reads the config file at path, or builds the default
// configuration from the environment when path is empty.
func LoadConfig(path string) (*platform.Config, error) {
	if path == "" {
		cfg, err := platform.DefaultConfig()
		if err != nil {
			return nil, fmt.Errorf("loading default config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := platform.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// New creates the platform for cfg. The build version is reported when the
// config does not name one.
func New(cfg *platform.Config, opts ...platform.Option) (*platform.Platform, error) {
	if cfg.Server.Version == "" {
		cfg.Server.Version = Version
	}
	p, err := platform.New(append([]platform.Option{platform.WithConfig(cfg)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating platform: %w", err)
	}
	return p, nil
}

// NewChecker returns a health checker probing the platform's store and the
// products endpoint of the backend.
func NewChecker(p *platform.Platform) *health.Checker {
	checker := health.NewChecker()
	checker.AddCheck(checkStorage, platform.StorageCheck(p.Store()))
	client := p.Deps().API
	checker.AddCheck(checkBackend, func(ctx context.Context) error {
		if _, err := client.Categories(ctx); err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		return nil
	})
	return checker
}

// Handler serves the MCP endpoint at /mcp next to the liveness and
// readiness endpoints. /mcp is guarded by the configured API keys and
// answers browsers from the configured origins only.
func Handler(p *platform.Platform, checker *health.Checker) http.Handler {
	server := p.MCPServer()
	cfg := p.Config().Server
	var mcpHandler http.Handler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
	mcpHandler = apiKeyMiddleware(cfg.APIKeys)(mcpHandler)
	mcpHandler = corsMiddleware(cfg.CORS.AllowedOrigins)(mcpHandler)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.HandleFunc("GET /healthz", checker.LivenessHandler())
	mux.HandleFunc("GET /readyz", checker.ReadinessHandler())
	return mux
}
