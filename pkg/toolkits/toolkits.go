// Package toolkits holds what the storefront and admin toolkits share: the
// client-side stores they act on and the helpers that turn outcomes into
// MCP tool results.
package toolkits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-bookstore/pkg/api"
	"github.com/txn2/mcp-bookstore/pkg/cart"
	"github.com/txn2/mcp-bookstore/pkg/format"
	"github.com/txn2/mcp-bookstore/pkg/notify"
	"github.com/txn2/mcp-bookstore/pkg/session"
	"github.com/txn2/mcp-bookstore/pkg/storage"
)

// Messages returned when a tool's precondition fails locally.
const (
	MsgLoginRequired = "Vui lòng đăng nhập."
	MsgAdminRequired = "Chỉ quản trị viên mới có quyền thực hiện thao tác này."
	MsgConfirm       = "Thao tác này cần xác nhận: gửi lại với confirm=true."
	msgMarshalFailed = "internal error marshaling response"
)

// Deps are the process-wide stores and clients a toolkit acts on.
type Deps struct {
	Sessions *session.Store
	Cart     *cart.Store
	API      *api.Client
	Format   *format.Formatter
	// Notices receives every user-facing message. The messages raised
	// during one tool call are also collected by the Recorder that Scoped
	// attaches to its context.
	Notices notify.Notifier
}

// NewDeps builds the stores over client and kv. Notices go to next, or to
// the default logger when next is nil. Signing out empties the cart.
func NewDeps(client *api.Client, kv storage.Store, f *format.Formatter, next notify.Notifier) Deps {
	if f == nil {
		f = format.Default()
	}
	if next == nil {
		next = notify.NewSlogNotifier(nil)
	}
	sessions := session.NewStore(kv)
	carts := cart.New(client, sessions, cart.WithNotifier(next), cart.WithStorage(kv))
	sessions.OnChange(carts.OnSessionChange)
	return Deps{
		Sessions: sessions,
		Cart:     carts,
		API:      client,
		Format:   f,
		Notices:  next,
	}
}

// Validate reports the first missing dependency.
func (d Deps) Validate() error {
	switch {
	case d.Sessions == nil:
		return errors.New("toolkit deps: session store is required")
	case d.Cart == nil:
		return errors.New("toolkit deps: cart store is required")
	case d.API == nil:
		return errors.New("toolkit deps: api client is required")
	case d.Format == nil:
		return errors.New("toolkit deps: formatter is required")
	case d.Notices == nil:
		return errors.New("toolkit deps: notifier is required")
	}
	return nil
}

// Scoped gives every call of h its own notice Recorder, so the notices in
// a result are the ones that call raised.
func Scoped[In any](h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, any, error) {
		ctx, _ = notify.WithRecorder(ctx)
		return h(ctx, req, in)
	}
}

// Notify returns the notifier for the call carried by ctx.
func (d Deps) Notify(ctx context.Context) notify.Notifier {
	return notify.For(ctx, d.Notices)
}

// Drain returns and clears the notices raised so far in the call carried
// by ctx.
func (Deps) Drain(ctx context.Context) []notify.Notice {
	r := notify.FromContext(ctx)
	if r == nil {
		return nil
	}
	return r.Drain()
}

// response is the JSON body of every successful tool result.
type response struct {
	Data    any             `json:"data"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

// errorBody is the JSON body of every failed tool result.
type errorBody struct {
	Error   string          `json:"error"`
	Notices []notify.Notice `json:"notices,omitempty"`
}

// ErrorResult creates an error CallToolResult.
func ErrorResult(msg string, notices ...notify.Notice) *mcp.CallToolResult {
	data, err := json.Marshal(errorBody{Error: msg, Notices: notices})
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error": %q}`, msg))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
		IsError: true,
	}
}

// JSONResult creates a success CallToolResult carrying v and notices.
func JSONResult(v any, notices []notify.Notice) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(response{Data: v, Notices: notices})
	if err != nil {
		return ErrorResult(msgMarshalFailed), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// Failure turns err into an error result. The backend's own message wins
// over fallback; a missing session maps to MsgLoginRequired.
func (d Deps) Failure(ctx context.Context, err error, fallback string) (*mcp.CallToolResult, any, error) {
	msg := api.MessageOr(err, fallback)
	if errors.Is(err, api.ErrAuthRequired) {
		msg = MsgLoginRequired
	}
	return ErrorResult(msg, d.Drain(ctx)...), nil, nil
}

// Success wraps v with the notices raised while producing it.
func (d Deps) Success(ctx context.Context, v any) (*mcp.CallToolResult, any, error) {
	return JSONResult(v, d.Drain(ctx))
}
