package middleware

import (
	"context"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPToolVisibilityMiddleware filters tools/list responses with allow/deny
// glob patterns, so a deployment can hide tools its agents do not need.
//
// Hidden tools can still be called. The admin toolkit's read_only option is
// what removes the mutating tools.
func MCPToolVisibilityMiddleware(allow, deny []string) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		if len(allow) == 0 && len(deny) == 0 {
			return next
		}
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			result, err := next(ctx, method, req)
			if err != nil {
				return result, err
			}
			return filterToolVisibility(allow, deny, method, result), nil
		}
	}
}

// filterToolVisibility filters a tools/list result. Other methods pass
// through unchanged.
func filterToolVisibility(allow, deny []string, method string, result mcp.Result) mcp.Result {
	if method != methodToolsList {
		return result
	}

	listResult, ok := result.(*mcp.ListToolsResult)
	if !ok || listResult == nil {
		return result
	}

	filtered := make([]*mcp.Tool, 0, len(listResult.Tools))
	for _, tool := range listResult.Tools {
		if IsToolVisible(tool.Name, allow, deny) {
			filtered = append(filtered, tool)
		}
	}
	listResult.Tools = filtered
	return listResult
}

// IsToolVisible reports whether a tool appears in tools/list:
//   - No patterns configured: all tools visible
//   - Allow only: only matching tools pass
//   - Deny only: all pass except denied
//   - Both: allow first, then deny removes from that set
//
// Invalid glob patterns never match.
func IsToolVisible(name string, allow, deny []string) bool {
	if len(allow) > 0 && !matchesAny(name, allow) {
		return false
	}
	return !matchesAny(name, deny)
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}
