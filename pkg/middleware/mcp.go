// Package middleware provides MCP protocol-level middleware for the
// bookstore server.
package middleware

import (
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCP method names used across middleware.
const (
	methodToolsCall = "tools/call"
	methodToolsList = "tools/list"
)

// extractToolName returns the tool named by a tools/call request.
func extractToolName(req mcp.Request) (string, error) {
	if req == nil {
		return "", errors.New("missing request")
	}
	params := req.GetParams()
	if params == nil {
		return "", errors.New("missing params")
	}

	var name string
	switch p := params.(type) {
	case *mcp.CallToolParamsRaw:
		if p == nil {
			return "", errors.New("missing params")
		}
		name = p.Name
	case *mcp.CallToolParams:
		if p == nil {
			return "", errors.New("missing params")
		}
		name = p.Name
	default:
		return "", fmt.Errorf("unexpected params type: %T", params)
	}

	if name == "" {
		return "", errors.New("missing tool name")
	}
	return name, nil
}
