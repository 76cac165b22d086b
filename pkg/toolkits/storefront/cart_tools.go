package storefront

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/bookstore"
	"github.com/txn2/mcp-bookstore/pkg/cart"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

type cartAddInput struct {
	ProductID string `json:"product_id" jsonschema:"product id"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"how many to add, default 1"`
}

type cartUpdateInput struct {
	ProductID string `json:"product_id" jsonschema:"product id of the cart line"`
	Quantity  int    `json:"quantity" jsonschema:"new quantity, at least 1"`
}

type cartRemoveInput struct {
	ProductID string `json:"product_id" jsonschema:"product id of the cart line"`
}

func (t *Toolkit) registerCartTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCartView,
		Description: "Show the signed-in user's cart as held by the server, with line totals and subtotal.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, toolkits.Scoped(t.handleCartView))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCartAdd,
		Description: "Add a book to the cart. Requires a signed-in user.",
	}, toolkits.Scoped(t.handleCartAdd))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCartUpdate,
		Description: "Change the quantity of a cart line.",
	}, toolkits.Scoped(t.handleCartUpdate))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCartRemove,
		Description: "Remove a line from the cart.",
	}, toolkits.Scoped(t.handleCartRemove))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCartClear,
		Description: "Empty the cart.",
	}, toolkits.Scoped(t.handleCartClear))
}

func (t *Toolkit) handleCartView(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if err := t.deps.Cart.Refresh(ctx); err != nil {
		return t.cartFailure(ctx, err, cart.MsgLoadFailed)
	}
	return t.cartResult(ctx)
}

func (t *Toolkit) handleCartAdd(ctx context.Context, _ *mcp.CallToolRequest, in cartAddInput) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(in.ProductID)
	if id == "" {
		return toolkits.ErrorResult(msgProductIDEmpty), nil, nil
	}
	if err := t.deps.Cart.AddItem(ctx, bookstore.Product{ID: id}, in.Quantity); err != nil {
		return t.cartFailure(ctx, err, cart.MsgAddFailed)
	}
	return t.cartResult(ctx)
}

func (t *Toolkit) handleCartUpdate(ctx context.Context, _ *mcp.CallToolRequest, in cartUpdateInput) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(in.ProductID)
	if id == "" {
		return toolkits.ErrorResult(msgProductIDEmpty), nil, nil
	}
	if err := t.deps.Cart.UpdateQuantity(ctx, id, in.Quantity); err != nil {
		return t.cartFailure(ctx, err, cart.MsgUpdateFailed)
	}
	return t.cartResult(ctx)
}

func (t *Toolkit) handleCartRemove(ctx context.Context, _ *mcp.CallToolRequest, in cartRemoveInput) (*mcp.CallToolResult, any, error) {
	id := strings.TrimSpace(in.ProductID)
	if id == "" {
		return toolkits.ErrorResult(msgProductIDEmpty), nil, nil
	}
	if err := t.deps.Cart.RemoveItem(ctx, id); err != nil {
		return t.cartFailure(ctx, err, cart.MsgRemoveFailed)
	}
	return t.cartResult(ctx)
}

func (t *Toolkit) handleCartClear(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if err := t.deps.Cart.Clear(ctx); err != nil {
		return t.cartFailure(ctx, err, cart.MsgClearFailed)
	}
	return t.cartResult(ctx)
}

// cartFailure reports err using the message the cart store already raised.
func (t *Toolkit) cartFailure(ctx context.Context, err error, fallback string) (*mcp.CallToolResult, any, error) {
	notices := t.deps.Drain(ctx)
	if n := len(notices); n > 0 {
		return toolkits.ErrorResult(notices[n-1].Message, notices...), nil, nil
	}
	return toolkits.ErrorResult(api.MessageOr(err, fallback)), nil, nil
}

func (t *Toolkit) cartResult(ctx context.Context) (*mcp.CallToolResult, any, error) {
	return t.deps.Success(ctx, t.deps.CartView(t.deps.Cart, t.deps.Cart.ClearPending(ctx)))
}
