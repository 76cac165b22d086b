package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/orders"
	"github.com/txn2/mcp-bookstore/pkg/revenue"
	"github.com/txn2/mcp-bookstore/pkg/toolkits"
)

const msgOrderIDEmpty = "Vui lòng chọn đơn hàng."

type pageInput struct {
	Page int `json:"page,omitempty" jsonschema:"page number, starting at 1"`
}

type orderGetInput struct {
	ID string `json:"id" jsonschema:"order id"`
}

type updateStatusInput struct {
	ID     string `json:"id" jsonschema:"order id"`
	Status string `json:"status" jsonschema:"one of pending, processing, shipping, delivered, cancelled"`
	Note   string `json:"note,omitempty" jsonschema:"optional note stored in the status history"`
}

type revenueInput struct {
	Months int `json:"months,omitempty" jsonschema:"reporting window: 3, 6 or 12 months (default 6)"`
}

// orderPageView is one page of the admin order list.
type orderPageView struct {
	Orders []toolkits.OrderView `json:"orders"`
	Page   int                  `json:"page"`
	Pages  int                  `json:"pages"`
}

// monthView is one bucket of the revenue chart.
type monthView struct {
	Label          string  `json:"label"`
	Revenue        float64 `json:"revenue"`
	RevenueDisplay string  `json:"revenueDisplay"`
	Orders         int     `json:"orders"`
}

// revenueView is the dashboard summary.
type revenueView struct {
	Months          int         `json:"months"`
	Total           float64     `json:"total"`
	TotalDisplay    string      `json:"totalDisplay"`
	Orders          int         `json:"orders"`
	OrdersDisplay   string      `json:"ordersDisplay"`
	AvgOrderDisplay string      `json:"avgOrderDisplay"`
	Trend           string      `json:"trend"`
	TotalProducts   int         `json:"totalProducts,omitempty"`
	TotalUsers      int         `json:"totalUsers,omitempty"`
	Monthly         []monthView `json:"monthly"`
}

func (t *Toolkit) registerOrderTools(s *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolOrders,
		Description: "List all customer orders, newest first, one page at a time.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleOrders))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolOrder,
		Description: "Get one order with its items, shipping address and status history.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleOrder))

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolRevenue,
		Description: "Revenue dashboard: totals, average order value, month-over-month trend and monthly buckets.",
		Annotations: readOnly,
	}, toolkits.Scoped(t.handleRevenue))

	if t.cfg.ReadOnly {
		return
	}
	mcp.AddTool(s, &mcp.Tool{
		Name: toolUpdateStatus,
		Description: "Change an order's status with an optional note. The backend appends the change to the " +
			"order's status history and decides which transitions are allowed.",
	}, toolkits.Scoped(t.handleUpdateStatus))
}

func (t *Toolkit) handleOrders(ctx context.Context, _ *mcp.CallToolRequest, in pageInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	page, err := t.orders.List(ctx, in.Page)
	if err != nil {
		return t.deps.Failure(ctx, err, orders.MsgListFailed)
	}
	return t.deps.Success(ctx, orderPageView{Orders: t.deps.Orders(page.Orders), Page: page.Page, Pages: page.Pages})
}

func (t *Toolkit) handleOrder(ctx context.Context, _ *mcp.CallToolRequest, in orderGetInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return toolkits.ErrorResult(msgOrderIDEmpty), nil, nil
	}
	order, err := t.orders.Get(ctx, id)
	if err != nil {
		return t.deps.Failure(ctx, err, orders.MsgDetailFailed)
	}
	return t.deps.Success(ctx, t.deps.Order(*order))
}

func (t *Toolkit) handleUpdateStatus(ctx context.Context, _ *mcp.CallToolRequest, in updateStatusInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return toolkits.ErrorResult(msgOrderIDEmpty), nil, nil
	}
	status, err := orders.ParseStatus(in.Status)
	if err != nil {
		return toolkits.ErrorResult(orders.MsgInvalidStatus), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}

	detail := orders.NewDetail(t.deps.API, t.deps.Sessions, orders.WithNotifier(t.deps.Notices))
	if _, err := detail.Load(ctx, id); err != nil {
		return t.deps.Failure(ctx, err, orders.MsgDetailFailed)
	}
	updated, err := detail.UpdateStatus(ctx, status, strings.TrimSpace(in.Note))
	if err != nil {
		return t.deps.Failure(ctx, err, orders.MsgUpdateFailed)
	}
	return t.deps.Success(ctx, t.deps.Order(*updated))
}

func (t *Toolkit) handleRevenue(ctx context.Context, _ *mcp.CallToolRequest, in revenueInput) (*mcp.CallToolResult, any, error) {
	if res := t.guard(); res != nil {
		return res, nil, nil
	}
	report, err := revenue.Load(ctx, t.deps.API, t.deps.Sessions.Token(), in.Months)
	if err != nil {
		if errors.Is(err, revenue.ErrInvalidMonths) {
			return toolkits.ErrorResult(err.Error()), nil, nil
		}
		return t.deps.Failure(ctx, err, revenue.MsgLoadFailed)
	}
	return t.deps.Success(ctx, t.revenueView(report))
}

func (t *Toolkit) revenueView(r *revenue.Report) revenueView {
	f := t.deps.Format
	v := revenueView{
		Months:          r.Months,
		Total:           r.Aggregates.Total,
		TotalDisplay:    f.Currency(r.Aggregates.Total),
		Orders:          r.Aggregates.Orders,
		OrdersDisplay:   f.Number(r.Aggregates.Orders),
		AvgOrderDisplay: f.Currency(r.Aggregates.AvgOrder),
		Trend:           r.Trend,
		Monthly:         []monthView{},
	}
	if r.Summary == nil {
		return v
	}
	v.TotalProducts = r.Summary.TotalProducts
	v.TotalUsers = r.Summary.TotalUsers
	for _, m := range r.Summary.MonthlyRevenue {
		v.Monthly = append(v.Monthly, monthView{
			Label:          m.Label,
			Revenue:        m.Revenue,
			RevenueDisplay: f.Currency(m.Revenue),
			Orders:         m.Orders,
		})
	}
	return v
}
