package platform

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// toolkitEntry describes a single toolkit instance.
type toolkitEntry struct {
	Kind  string   `json:"kind"`
	Name  string   `json:"name"`
	Tools []string `json:"tools"`
}

// listToolkitsOutput is the JSON response for the list_toolkits tool.
type listToolkitsOutput struct {
	Toolkits []toolkitEntry `json:"toolkits"`
	Count    int            `json:"count"`
}

// listToolkitsInput is empty since this tool has no parameters.
type listToolkitsInput struct{}

// registerToolkitsTool registers the list_toolkits tool with the MCP server.
func (p *Platform) registerToolkitsTool() {
	mcp.AddTool(p.mcpServer, &mcp.Tool{
		Name:        toolListToolkits,
		Description: "List the enabled toolkits (storefront, admin) and the tools each provides.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ listToolkitsInput) (*mcp.CallToolResult, any, error) {
		return p.handleListToolkits(ctx, req)
	})
}

// handleListToolkits handles the list_toolkits tool call.
func (p *Platform) handleListToolkits(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	toolkits := p.toolkitRegistry.All()

	entries := make([]toolkitEntry, 0, len(toolkits))
	for _, tk := range toolkits {
		entries = append(entries, toolkitEntry{
			Kind:  tk.Kind(),
			Name:  tk.Name(),
			Tools: tk.Tools(),
		})
	}

	data, err := json.MarshalIndent(listToolkitsOutput{Toolkits: entries, Count: len(entries)}, "", "  ")
	if err != nil {
		return &mcp.CallToolResult{ //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError, not as Go errors
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Error: " + err.Error()},
			},
			IsError: true,
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
