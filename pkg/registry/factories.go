package registry

import (
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
	adminkit "github.com/txn2/mcp-bookstore/pkg/toolkits/admin"
	storefrontkit "github.com/txn2/mcp-bookstore/pkg/toolkits/storefront"
)

// RegisterBuiltinFactories registers all built-in toolkit factories. Every
// toolkit they create acts on deps.
func RegisterBuiltinFactories(r *Registry, deps toolkits.Deps) {
	r.RegisterFactory(storefrontkit.Kind, StorefrontFactory(deps))
	r.RegisterFactory(adminkit.Kind, AdminFactory(deps))
}

// StorefrontFactory returns a factory for storefront toolkits.
func StorefrontFactory(deps toolkits.Deps) ToolkitFactory {
	return func(name string, _ map[string]any) (Toolkit, error) {
		return storefrontkit.New(name, deps)
	}
}

// AdminFactory returns a factory for admin toolkits.
func AdminFactory(deps toolkits.Deps) ToolkitFactory {
	return func(name string, cfg map[string]any) (Toolkit, error) {
		config, err := adminkit.ParseConfig(cfg)
		if err != nil {
			return nil, err
		}
		return adminkit.New(name, config, deps)
	}
}
