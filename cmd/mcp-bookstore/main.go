// Package main provides the entry point for the mcp-bookstore server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/txn2/mcp-bookstore/internal/server"
	"github.com/txn2/mcp-bookstore/pkg/platform"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	envFile     string
	transport   string
	address     string
	hashKey     string
	showVersion bool
}

func parseFlags(args []string) (serverOptions, error) {
	opts := serverOptions{}
	fs := flag.NewFlagSet("mcp-bookstore", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.envFile, "env-file", "", "Load environment variables from this file (default .env when present)")
	fs.StringVar(&opts.transport, "transport", "", "Transport type: stdio, http (overrides config)")
	fs.StringVar(&opts.address, "address", "", "Listen address for the http transport (overrides config)")
	fs.StringVar(&opts.hashKey, "hash-key", "", "Print the bcrypt hash of an API key for server.api_keys[].key_hash and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parsing flags: %w", err)
	}
	return opts, nil
}

// loadEnvFile loads the named file, or .env when it exists. Variables
// already set in the environment win.
func loadEnvFile(name string) error {
	if name == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		name = ".env"
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	return nil
}

// applyFlagOverrides lets explicit flags win over the config file.
func applyFlagOverrides(cfg *platform.Config, opts serverOptions) {
	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
}

func run(args []string, stderr io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	if opts.showVersion {
		_, _ = fmt.Fprintf(stderr, "mcp-bookstore version %s\n", mcpserver.Version)
		return nil
	}

	if opts.hashKey != "" {
		hash, err := platform.HashAPIKey(opts.hashKey)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(stderr, hash)
		return nil
	}

	if err := loadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := mcpserver.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, opts)

	logger, err := platform.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := mcpserver.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			slog.Error("closing platform", "error", err)
		}
	}()

	if err := p.Start(ctx); err != nil {
		return fmt.Errorf("starting platform: %w", err)
	}

	slog.Info("mcp-bookstore starting",
		"version", cfg.Server.Version,
		"transport", cfg.Server.Transport,
		"storage", p.Store().Mode(),
	)

	serveErr := startServer(ctx, p)

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		slog.Error("stopping platform", "error", err)
	}
	return serveErr
}

func startServer(ctx context.Context, p *platform.Platform) error {
	cfg := p.Config()
	switch cfg.Server.Transport {
	case platform.TransportStdio:
		if err := p.MCPServer().Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("serving stdio: %w", err)
		}
		return nil
	case platform.TransportHTTP:
		return serveHTTP(ctx, p, cfg.Server.Address, cfg.Server.ShutdownTimeout)
	default:
		return fmt.Errorf("unknown transport: %s", cfg.Server.Transport)
	}
}

// serveHTTP serves until ctx is cancelled, then marks the server draining
// and shuts it down within timeout.
func serveHTTP(ctx context.Context, p *platform.Platform, addr string, timeout time.Duration) error {
	checker := mcpserver.NewChecker(p)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mcpserver.Handler(p, checker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	checker.SetReady()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	checker.SetDraining()
	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
