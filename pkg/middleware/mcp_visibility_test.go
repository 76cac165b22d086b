package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestIsToolVisible(t *testing.T) {
	tests := []struct {
		name    string
		tool    string
		allow   []string
		deny    []string
		visible bool
	}{
		{
			name:    "no rules - all visible",
			tool:    "cart_add",
			visible: true,
		},
		{
			name:    "allow only - matching",
			tool:    "cart_add",
			allow:   []string{"cart_*"},
			visible: true,
		},
		{
			name:    "allow only - not matching",
			tool:    "admin_orders_list",
			allow:   []string{"cart_*"},
			visible: false,
		},
		{
			name:    "deny only - matching",
			tool:    "admin_user_delete",
			deny:    []string{"admin_*_delete"},
			visible: false,
		},
		{
			name:    "deny only - not matching",
			tool:    "admin_users_list",
			deny:    []string{"admin_*_delete"},
			visible: true,
		},
		{
			name:    "allow and deny - allowed then denied",
			tool:    "admin_product_delete",
			allow:   []string{"admin_*"},
			deny:    []string{"*_delete"},
			visible: false,
		},
		{
			name:    "allow and deny - not allowed",
			tool:    "checkout_submit",
			allow:   []string{"admin_*"},
			deny:    []string{"*_delete"},
			visible: false,
		},
		{
			name:    "exact match deny",
			tool:    "platform_info",
			deny:    []string{"platform_info"},
			visible: false,
		},
		{
			name:    "multiple allow patterns",
			tool:    "orders_mine",
			allow:   []string{"cart_*", "orders_*"},
			visible: true,
		},
		{
			name:    "invalid allow pattern treated as non-match",
			tool:    "cart_add",
			allow:   []string{"[invalid"},
			visible: false,
		},
		{
			name:    "invalid deny pattern treated as non-match",
			tool:    "cart_add",
			deny:    []string{"[invalid"},
			visible: true,
		},
		{
			name:    "empty allow empty deny slices",
			tool:    "cart_add",
			allow:   []string{},
			deny:    []string{},
			visible: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsToolVisible(tt.tool, tt.allow, tt.deny)
			if got != tt.visible {
				t.Errorf("IsToolVisible(%q, %v, %v) = %v, want %v",
					tt.tool, tt.allow, tt.deny, got, tt.visible)
			}
		})
	}
}

// asListToolsResult extracts a *mcp.ListToolsResult from a mcp.Result,
// failing the test if the type assertion fails.
func asListToolsResult(t *testing.T, result mcp.Result) *mcp.ListToolsResult {
	t.Helper()
	lr, ok := result.(*mcp.ListToolsResult)
	if !ok {
		t.Fatalf("expected *mcp.ListToolsResult, got %T", result)
	}
	return lr
}

func listTools(names ...string) mcp.MethodHandler {
	return func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		tools := make([]*mcp.Tool, 0, len(names))
		for _, n := range names {
			tools = append(tools, &mcp.Tool{Name: n})
		}
		return &mcp.ListToolsResult{Tools: tools}, nil
	}
}

func TestMCPToolVisibilityMiddleware_FiltersToolsList(t *testing.T) {
	base := listTools("cart_add", "cart_view", "admin_user_delete", "platform_info")
	handler := MCPToolVisibilityMiddleware(nil, []string{"admin_*"})(base)

	result, err := handler(context.Background(), methodToolsList, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lr := asListToolsResult(t, result)
	if len(lr.Tools) != 3 {
		t.Fatalf("got %d tools, want 3", len(lr.Tools))
	}
	for _, tool := range lr.Tools {
		if tool.Name == "admin_user_delete" {
			t.Error("admin_user_delete should be hidden")
		}
	}
}

func TestMCPToolVisibilityMiddleware_NoRules(t *testing.T) {
	base := listTools("cart_add", "admin_user_delete")
	handler := MCPToolVisibilityMiddleware(nil, nil)(base)

	result, err := handler(context.Background(), methodToolsList, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(asListToolsResult(t, result).Tools); got != 2 {
		t.Errorf("got %d tools, want 2", got)
	}
}

func TestMCPToolVisibilityMiddleware_OtherMethods(t *testing.T) {
	want := &mcp.CallToolResult{}
	base := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return want, nil
	}
	handler := MCPToolVisibilityMiddleware([]string{"cart_*"}, nil)(base)

	got, err := handler(context.Background(), methodToolsCall, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("expected tools/call result to pass through unmodified")
	}
}

func TestMCPToolVisibilityMiddleware_Error(t *testing.T) {
	wantErr := errors.New("list failed")
	base := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return nil, wantErr
	}
	handler := MCPToolVisibilityMiddleware([]string{"cart_*"}, nil)(base)

	if _, err := handler(context.Background(), methodToolsList, nil); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
