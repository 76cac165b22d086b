package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Platform tool names.
const (
	toolPlatformInfo = "platform_info"
	toolListToolkits = "list_toolkits"
)

// Info contains information about the deployment.
type Info struct {
	Name              string      `json:"name"`
	Version           string      `json:"version"`
	Description       string      `json:"description,omitempty"`
	Tags              []string    `json:"tags,omitempty"`
	AgentInstructions string      `json:"agent_instructions,omitempty"`
	Toolkits          []string    `json:"toolkits"`
	Backend           BackendInfo `json:"backend"`
	Storage           string      `json:"storage"`
	Timezone          string      `json:"timezone"`
	Features          Features    `json:"features"`
}

// BackendInfo lists the REST base URLs in use.
type BackendInfo struct {
	Products string `json:"products"`
	Cart     string `json:"cart"`
	Orders   string `json:"orders"`
	Users    string `json:"users"`
}

// Features describes what the enabled toolkits allow.
type Features struct {
	Storefront    bool `json:"storefront"`
	Admin         bool `json:"admin"`
	AdminReadOnly bool `json:"admin_read_only"`
	SignedIn      bool `json:"signed_in"`
}

// platformInfoInput is empty since this tool has no parameters.
type platformInfoInput struct{}

// registerInfoTool registers the platform_info tool with the MCP server.
func (p *Platform) registerInfoTool() {
	mcp.AddTool(p.mcpServer, &mcp.Tool{
		Name:        toolPlatformInfo,
		Description: p.buildInfoToolDescription(),
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ platformInfoInput) (*mcp.CallToolResult, any, error) {
		return p.handleInfo(ctx, req)
	})
}

// buildInfoToolDescription builds a dynamic tool description based on configuration.
func (p *Platform) buildInfoToolDescription() string {
	base := "Get information about this bookstore server"
	if p.config.Server.Name != "" && p.config.Server.Name != defaultServerName {
		base = fmt.Sprintf("Get information about %s", p.config.Server.Name)
	}
	if len(p.config.Server.Tags) > 0 {
		base += fmt.Sprintf(" (%s)", strings.Join(p.config.Server.Tags, ", "))
	}
	return base + ", including enabled toolkits, whether a user is signed in, and which backend it talks to. " +
		"Call this first to understand what is available."
}

// handleInfo handles the platform_info tool call.
func (p *Platform) handleInfo(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, any, error) {
	var kinds []string
	for _, tk := range p.toolkitRegistry.All() {
		if !slices.Contains(kinds, tk.Kind()) {
			kinds = append(kinds, tk.Kind())
		}
	}
	slices.Sort(kinds)

	apiCfg := p.client.Config()
	info := Info{
		Name:              p.config.Server.Name,
		Version:           p.config.Server.Version,
		Description:       p.config.Server.Description,
		Tags:              p.config.Server.Tags,
		AgentInstructions: p.config.Server.AgentInstructions,
		Toolkits:          kinds,
		Backend: BackendInfo{
			Products: apiCfg.ProductsURL,
			Cart:     apiCfg.CartURL,
			Orders:   apiCfg.OrdersURL,
			Users:    apiCfg.UsersURL,
		},
		Storage:  p.store.Mode(),
		Timezone: p.config.Display.Timezone,
		Features: Features{
			Storefront:    slices.Contains(kinds, "storefront"),
			Admin:         slices.Contains(kinds, "admin"),
			AdminReadOnly: p.adminReadOnly(),
			SignedIn:      p.deps.Sessions.IsAuthenticated(),
		},
	}

	data, err := json.MarshalIndent(info, "", "  ")
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

// adminReadOnly reports whether every admin toolkit leaves out the
// mutating tools.
func (p *Platform) adminReadOnly() bool {
	admins := p.toolkitRegistry.GetByKind("admin")
	if len(admins) == 0 {
		return false
	}
	for _, tk := range admins {
		if slices.Contains(tk.Tools(), "admin_user_delete") {
			return false
		}
	}
	return true
}
