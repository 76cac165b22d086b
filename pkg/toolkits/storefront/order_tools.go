package storefront

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/checkout"
	"github.com/txn2/mcp-bookstore/pkg/orders"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

const msgCheckoutBusy = "Đơn hàng đang được xử lý, vui lòng chờ."

type checkoutInput struct {
	FullName string `json:"full_name" jsonschema:"recipient name"`
	Address  string `json:"address" jsonschema:"delivery address"`
	Email    string `json:"email" jsonschema:"contact email"`
	Phone    string `json:"phone" jsonschema:"contact phone number"`
}

// checkoutOutput is a placed order and the cart after checkout.
type checkoutOutput struct {
	Order       toolkits.OrderView `json:"order"`
	CartCleared bool               `json:"cartCleared"`
	Cart        toolkits.CartView  `json:"cart"`
}

func (t *Toolkit) registerOrderTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolCheckout,
		Description: "Place an order for everything in the cart. The cart is re-read from the server first; " +
			"all shipping fields are required. On success the cart is emptied.",
	}, toolkits.Scoped(t.handleCheckout))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolMyOrders,
		Description: "List the signed-in customer's orders with their status.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, toolkits.Scoped(t.handleMyOrders))
}

// startCheckout returns a fresh flow, or nil while another submission is
// still running.
func (t *Toolkit) startCheckout() *checkout.Flow {
	t.checkoutMu.Lock()
	defer t.checkoutMu.Unlock()
	if t.active != nil && t.active.State() == checkout.Submitting {
		return nil
	}
	t.active = checkout.New(t.deps.API, t.deps.Cart, t.deps.Sessions, checkout.WithNotifier(t.deps.Notices))
	return t.active
}

func (t *Toolkit) handleCheckout(ctx context.Context, _ *mcp.CallToolRequest, in checkoutInput) (*mcp.CallToolResult, any, error) {
	flow := t.startCheckout()
	if flow == nil {
		return toolkits.ErrorResult(msgCheckoutBusy), nil, nil
	}

	res, err := flow.Submit(ctx, checkout.Form{
		FullName: in.FullName,
		Address:  in.Address,
		Email:    in.Email,
		Phone:    in.Phone,
	})
	if err != nil {
		msg := flow.LastError()
		if msg == "" {
			msg = checkout.MsgOrderFailed
		}
		var formErr *checkout.FormError
		if errors.As(err, &formErr) {
			msg += " (" + strings.Join(formErr.Fields, ", ") + ")"
		}
		return toolkits.ErrorResult(msg, t.deps.Drain(ctx)...), nil, nil
	}

	return t.deps.Success(ctx, checkoutOutput{
		Order:       t.deps.Order(*res.Order),
		CartCleared: res.CartCleared,
		Cart:        t.deps.CartView(t.deps.Cart, !res.CartCleared),
	})
}

func (t *Toolkit) handleMyOrders(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	list, err := t.orders.History(ctx)
	if err != nil {
		if errors.Is(err, orders.ErrAuthRequired) {
			return toolkits.ErrorResult(orders.MsgHistoryLogin), nil, nil
		}
		return t.deps.Failure(ctx, err, orders.MsgHistoryFailed)
	}
	return t.deps.Success(ctx, t.deps.Orders(list))
}
