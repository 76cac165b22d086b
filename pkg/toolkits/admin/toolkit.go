// Package admin exposes the admin console as MCP tools: order management
// and status updates, the revenue dashboard, user administration and
// catalog editing. Every tool requires a signed-in administrator and
// checks that locally before calling the backend.
package admin

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/orders"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Kind is the registry kind of this toolkit.
const Kind = "admin"

// Tool names.
const (
	toolOrders        = "admin_orders_list"
	toolOrder         = "admin_order_get"
	toolUpdateStatus  = "admin_order_update_status"
	toolRevenue       = "admin_revenue_summary"
	toolUsers         = "admin_users_list"
	toolDeleteUser    = "admin_user_delete"
	toolCreateProduct = "admin_product_create"
	toolUpdateProduct = "admin_product_update"
	toolDeleteProduct = "admin_product_delete"
)

// Config holds admin toolkit settings.
type Config struct {
	// ReadOnly leaves out every tool that changes backend state.
	ReadOnly bool
}

// ParseConfig reads a Config from a toolkit instance map.
func ParseConfig(cfg map[string]any) (Config, error) {
	var c Config
	if v, ok := cfg["read_only"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return c, fmt.Errorf("admin: read_only must be a boolean, got %T", v)
		}
		c.ReadOnly = b
	}
	return c, nil
}

// Toolkit implements the admin toolkit.
type Toolkit struct {
	name   string
	cfg    Config
	deps   toolkits.Deps
	orders *orders.Service
}

// New creates an admin toolkit over deps.
func New(name string, cfg Config, deps toolkits.Deps) (*Toolkit, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &Toolkit{
		name:   name,
		cfg:    cfg,
		deps:   deps,
		orders: orders.NewService(deps.API, deps.Sessions),
	}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return Kind
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// Tools returns the list of tool names provided by this toolkit.
func (t *Toolkit) Tools() []string {
	tools := []string{toolOrders, toolOrder, toolRevenue, toolUsers}
	if !t.cfg.ReadOnly {
		tools = append(tools, toolUpdateStatus, toolDeleteUser, toolCreateProduct, toolUpdateProduct, toolDeleteProduct)
	}
	return tools
}

// RegisterTools registers the admin tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	t.registerOrderTools(s)
	t.registerUserTools(s)
	if !t.cfg.ReadOnly {
		t.registerProductTools(s)
	}
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}

// guard returns an error result unless an administrator is signed in.
func (t *Toolkit) guard() *mcp.CallToolResult {
	switch {
	case !t.deps.Sessions.IsAuthenticated():
		return toolkits.ErrorResult(toolkits.MsgLoginRequired)
	case !t.deps.Sessions.IsAdmin():
		return toolkits.ErrorResult(toolkits.MsgAdminRequired)
	}
	return nil
}
