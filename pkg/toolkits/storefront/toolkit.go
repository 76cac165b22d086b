// Package storefront exposes the customer-facing flows as MCP tools:
// sign-in, catalog browsing, the cart, checkout and order history.
package storefront

import (
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/checkout"
	"github.com/txn2/mcp-bookstore/pkg/orders"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

// Kind is the registry kind of this toolkit.
const Kind = "storefront"

// Tool names.
const (
	toolLogin      = "session_login"
	toolRegister   = "session_register"
	toolLogout     = "session_logout"
	toolWhoami     = "session_whoami"
	toolProducts   = "products_list"
	toolSearch     = "products_search"
	toolByCategory = "products_by_category"
	toolProduct    = "product_get"
	toolCategories = "categories_list"
	toolCartView   = "cart_view"
	toolCartAdd    = "cart_add"
	toolCartUpdate = "cart_update"
	toolCartRemove = "cart_remove"
	toolCartClear  = "cart_clear"
	toolCheckout   = "checkout_submit"
	toolMyOrders   = "orders_mine"
)

// Toolkit implements the storefront toolkit.
type Toolkit struct {
	name   string
	deps   toolkits.Deps
	orders *orders.Service

	// checkoutMu guards active, the flow of the submission in progress.
	checkoutMu sync.Mutex
	active     *checkout.Flow
}

// New creates a storefront toolkit over deps.
func New(name string, deps toolkits.Deps) (*Toolkit, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	return &Toolkit{
		name:   name,
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
func (*Toolkit) Tools() []string {
	return []string{
		toolLogin, toolRegister, toolLogout, toolWhoami,
		toolProducts, toolSearch, toolByCategory, toolProduct, toolCategories,
		toolCartView, toolCartAdd, toolCartUpdate, toolCartRemove, toolCartClear,
		toolCheckout, toolMyOrders,
	}
}

// RegisterTools registers the storefront tools and the product resource
// template with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	t.registerSessionTools(s)
	t.registerCatalogTools(s)
	t.registerCartTools(s)
	t.registerOrderTools(s)
	t.registerProductResource(s)
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}
