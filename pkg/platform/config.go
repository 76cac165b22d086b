// Package platform provides the main platform orchestration.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/txn2/mcp-bookstore/pkg/middleware"
	"github.com/txn2/mcp-bookstore/pkg/registry"
)

// CurrentConfigVersion is the current config API version.
const CurrentConfigVersion = "v1"

// Storage providers.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const (
	defaultServerName = "mcp-bookstore"
	defaultAddress    = ":8080"
	defaultTimezone   = "Asia/Ho_Chi_Minh"
	defaultStorageDir = ".mcp-bookstore"
)

// Config holds the complete platform configuration.
type Config struct {
	APIVersion string                                `yaml:"apiVersion"`
	Server     ServerConfig                          `yaml:"server"`
	API        APIConfig                             `yaml:"api"`
	Storage    StorageConfig                         `yaml:"storage"`
	Logging    LoggingConfig                         `yaml:"logging"`
	Display    DisplayConfig                         `yaml:"display"`
	Toolkits   map[string]registry.ToolkitKindConfig `yaml:"toolkits"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name              string         `yaml:"name"`
	Version           string         `yaml:"version"`
	Description       string         `yaml:"description"`
	Tags              []string       `yaml:"tags"`               // Discovery keywords for routing
	AgentInstructions string         `yaml:"agent_instructions"` // Inline operational guidance for AI agents
	Prompts           []PromptConfig `yaml:"prompts"`            // Platform-level MCP prompts
	Transport         string         `yaml:"transport"`          // "stdio", "http"
	Address           string         `yaml:"address"`
	ShutdownTimeout   time.Duration  `yaml:"shutdown_timeout"`
	Tools             ToolsConfig    `yaml:"tools"`
	CORS              CORSConfig     `yaml:"cors"`
	APIKeys           []APIKey       `yaml:"api_keys"` // Required on /mcp when set; http transport only

	ToolLogging middleware.ToolLoggingConfig `yaml:"tool_logging"`
}

// CORSConfig lists the browser origins allowed to call the HTTP endpoint.
// An empty list allows none; "*" allows any origin without credentials.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// APIKey is a key accepted on the HTTP endpoint. Set Key, or KeyHash to a
// bcrypt hash from HashAPIKey.
type APIKey struct {
	Name    string `yaml:"name"`
	Key     string `yaml:"key"`
	KeyHash string `yaml:"key_hash"`
}

// ToolsConfig hides tools from tools/list by glob pattern.
type ToolsConfig struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// PromptConfig defines a platform-level MCP prompt.
type PromptConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Content     string `yaml:"content"`
}

// APIConfig holds the backend base URLs. Environment variables win over
// the file.
type APIConfig struct {
	ProductsURL string        `yaml:"products_url" env:"BOOKSTORE_PRODUCTS_URL"`
	CartURL     string        `yaml:"cart_url"     env:"BOOKSTORE_CART_URL"`
	OrdersURL   string        `yaml:"orders_url"   env:"BOOKSTORE_ORDERS_URL"`
	UsersURL    string        `yaml:"users_url"    env:"BOOKSTORE_USERS_URL"`
	Timeout     time.Duration `yaml:"timeout"      env:"BOOKSTORE_API_TIMEOUT"`
}

// StorageConfig selects where the session record and the pending cart
// reconciliation marker are kept.
type StorageConfig struct {
	Provider string `yaml:"provider" env:"BOOKSTORE_STORAGE_PROVIDER"` // "memory", "file", "sqlite", "postgres"
	Path     string `yaml:"path"     env:"BOOKSTORE_STORAGE_PATH"`     // directory (file) or database file (sqlite)
	DSN      string `yaml:"dsn"      env:"BOOKSTORE_STORAGE_DSN"`      // postgres connection string
	Profile  string `yaml:"profile"  env:"BOOKSTORE_STORAGE_PROFILE"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"BOOKSTORE_LOG_LEVEL"` // debug, info, warn, error
	Format string `yaml:"format" env:"BOOKSTORE_LOG_FORMAT"` // text, json
}

// DisplayConfig configures how dates are rendered.
type DisplayConfig struct {
	Timezone string `yaml:"timezone" env:"BOOKSTORE_TIMEZONE"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration, expands ${VAR} references,
// applies environment overrides and defaults.
func ParseConfig(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.APIVersion != "" && cfg.APIVersion != CurrentConfigVersion {
		return nil, fmt.Errorf("unsupported config apiVersion %q (supported: %s)", cfg.APIVersion, CurrentConfigVersion)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// DefaultConfig returns the configuration used when no file is given,
// with environment overrides applied.
func DefaultConfig() (*Config, error) {
	var cfg Config
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// applyEnvOverrides overwrites the fields whose variables are set.
func applyEnvOverrides(cfg *Config) error {
	if err := env.Parse(&cfg.API); err != nil {
		return fmt.Errorf("parsing api environment: %w", err)
	}
	if err := env.Parse(&cfg.Storage); err != nil {
		return fmt.Errorf("parsing storage environment: %w", err)
	}
	if err := env.Parse(&cfg.Logging); err != nil {
		return fmt.Errorf("parsing logging environment: %w", err)
	}
	if err := env.Parse(&cfg.Display); err != nil {
		return fmt.Errorf("parsing display environment: %w", err)
	}
	return nil
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = CurrentConfigVersion
	}
	if cfg.Server.Name == "" {
		cfg.Server.Name = defaultServerName
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportStdio
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultAddress
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = StorageFile
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Provider {
		case StorageFile:
			cfg.Storage.Path = defaultStorageDir
		case StorageSQLite:
			cfg.Storage.Path = defaultStorageDir + ".db"
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Display.Timezone == "" {
		cfg.Display.Timezone = defaultTimezone
	}
	if len(cfg.Toolkits) == 0 {
		cfg.Toolkits = map[string]registry.ToolkitKindConfig{
			"storefront": {Enabled: true, Default: "storefront"},
			"admin":      {Enabled: true, Default: "admin"},
		}
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains([]string{TransportStdio, TransportHTTP}, c.Server.Transport) {
		errs = append(errs, fmt.Sprintf("server.transport must be stdio or http, got %q", c.Server.Transport))
	}

	switch c.Storage.Provider {
	case StorageMemory:
	case StorageFile, StorageSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, "storage.path is required for the "+c.Storage.Provider+" provider")
		}
	case StoragePostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, "storage.dsn is required for the postgres provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.provider %q is not one of memory, file, sqlite, postgres", c.Storage.Provider))
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Sprintf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("display.timezone %q: %v", c.Display.Timezone, err))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, "api.timeout must not be negative")
	}
	for i, k := range c.Server.APIKeys {
		if msg := k.validate(i); msg != "" {
			errs = append(errs, msg)
		}
	}
	for _, o := range c.Server.CORS.AllowedOrigins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			errs = append(errs, fmt.Sprintf("server.cors.allowed_origins: %q is not an http(s) origin", o))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
