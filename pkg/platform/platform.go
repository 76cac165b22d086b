package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/format"
	"github.com/txn2/mcp-bookstore/pkg/middleware"
	"github.com/txn2/mcp-bookstore/pkg/notify"
	"github.com/txn2/mcp-bookstore/pkg/registry"
	"github.com/txn2/mcp-bookstore/pkg/storage"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Platform is the main platform facade. It owns the key-value store, the
// backend client, the session and cart stores, and the MCP server the
// toolkits are registered on.
type Platform struct {
	config *Config

	// Core components
	mcpServer *mcp.Server
	lifecycle *Lifecycle

	store  storage.Store
	client *api.Client
	deps      toolkits.Deps

	// Registries
	toolkitRegistry *registry.Registry
}

// New creates a new platform instance.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	if err := options.Config.Validate(); err != nil {
		return nil, err
	}

	p := &Platform{
		config:    options.Config,
		lifecycle: NewLifecycle(),
	}

	if err := p.initializeComponents(options); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("initializing components: %w", err)
	}

	return p, nil
}

// initializeComponents wires storage, the backend client, the stores and
// the toolkits, in that order.
func (p *Platform) initializeComponents(opts *Options) error {
	if err := p.initStorage(opts); err != nil {
		return err
	}
	if err := p.initDeps(opts); err != nil {
		return err
	}
	if err := p.initRegistry(opts); err != nil {
		return err
	}
	p.finalizeSetup()
	return nil
}

// initStorage opens the configured store unless one was provided.
func (p *Platform) initStorage(opts *Options) error {
	if opts.Store != nil {
		p.store = opts.Store
		return nil
	}
	store, err := OpenStorage(context.Background(), p.config.Storage)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", p.config.Storage.Provider, err)
	}
	p.store = store
	p.lifecycle.Track("storage", store)
	return nil
}

// initDeps builds the backend client and the client-side stores.
func (p *Platform) initDeps(opts *Options) error {
	formatter, err := format.New(p.config.Display.Timezone)
	if err != nil {
		return fmt.Errorf("creating formatter: %w", err)
	}

	var clientOpts []api.Option
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	p.client = api.New(api.Config{
		ProductsURL: p.config.API.ProductsURL,
		CartURL:     p.config.API.CartURL,
		OrdersURL:   p.config.API.OrdersURL,
		UsersURL:    p.config.API.UsersURL,
		Timeout:     p.config.API.Timeout,
	}, clientOpts...)

	next := opts.Notifier
	if next == nil {
		next = notify.NewSlogNotifier(slog.Default())
	}
	p.deps = toolkits.NewDeps(p.client, p.store, formatter, next)
	return nil
}

// initRegistry creates the configured toolkits.
func (p *Platform) initRegistry(opts *Options) error {
	if opts.ToolkitRegistry != nil {
		p.toolkitRegistry = opts.ToolkitRegistry
	} else {
		p.toolkitRegistry = registry.NewRegistry()
		registry.RegisterBuiltinFactories(p.toolkitRegistry, p.deps)
	}
	p.lifecycle.Track("toolkits", p.toolkitRegistry)

	loader := registry.NewLoader(p.toolkitRegistry)
	if err := loader.Load(registry.LoaderConfig{Toolkits: p.config.Toolkits}); err != nil {
		return fmt.Errorf("loading toolkits: %w", err)
	}
	return nil
}

// finalizeSetup creates the MCP server and registers the platform's own
// tools and prompts.
func (p *Platform) finalizeSetup() {
	p.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    p.config.Server.Name,
		Version: p.config.Server.Version,
	}, &mcp.ServerOptions{
		Instructions: p.config.Server.AgentInstructions,
	})

	p.mcpServer.AddReceivingMiddleware(
		middleware.MCPToolVisibilityMiddleware(p.config.Server.Tools.Allow, p.config.Server.Tools.Deny),
		middleware.MCPToolLoggingMiddleware(slog.Default(), p.config.Server.ToolLogging),
	)

	p.registerInfoTool()
	p.registerToolkitsTool()
	p.registerPlatformPrompts()
	p.validateAgentInstructions()

	p.lifecycle.Append(Hook{Name: "session", Start: p.restore, Stop: p.release})
}

// restore brings back the persisted session and, when signed in, the
// server-side cart. A cart failure does not stop startup.
func (p *Platform) restore(ctx context.Context) error {
	p.deps.Sessions.Restore(ctx)
	if !p.deps.Sessions.IsAuthenticated() {
		return nil
	}
	if err := p.deps.Cart.Refresh(ctx); err != nil {
		slog.Warn("restoring cart failed", "error", err)
	}
	return nil
}

// release drops the in-memory cart so the next Start reloads it.
func (p *Platform) release(_ context.Context) error {
	p.deps.Cart.Reset()
	return nil
}

// Start registers the toolkit tools and restores client state.
func (p *Platform) Start(ctx context.Context) error {
	// Register tools from all toolkits
	p.toolkitRegistry.RegisterAllTools(p.mcpServer)

	// Start lifecycle
	return p.lifecycle.Start(ctx)
}

// Stop undoes Start. The session stays persisted; the cart mirror is
// dropped until the next Start.
func (p *Platform) Stop(ctx context.Context) error {
	return p.lifecycle.Stop(ctx)
}

// MCPServer returns the MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Deps returns the stores and client the toolkits act on.
func (p *Platform) Deps() toolkits.Deps {
	return p.deps
}

// Store returns the key-value store.
func (p *Platform) Store() storage.Store {
	return p.store
}

// ToolkitRegistry returns the toolkit registry.
func (p *Platform) ToolkitRegistry() *registry.Registry {
	return p.toolkitRegistry
}

// Close stops the platform if it is running and closes the toolkits and
// the store it opened. A store passed in with WithStore stays open.
func (p *Platform) Close() error {
	return p.lifecycle.Close(context.Background())
}
