package platform

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerVersion = "1.0.0"

// connectTestClient connects an in-memory MCP client to a server and returns the session.
// The caller must call cleanup() when done.
func connectTestClient(t *testing.T, server *mcp.Server) (session *mcp.ClientSession, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	t1, t2 := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(ctx, t1, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0"}, nil)
	clientSession, err := client.Connect(ctx, t2, nil)
	require.NoError(t, err)

	cleanup = func() {
		_ = clientSession.Close()
		_ = serverSession.Close()
	}
	return clientSession, cleanup
}

func promptPlatform(prompts []PromptConfig) *Platform {
	return &Platform{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: testServerVersion}, nil),
		config: &Config{
			Server: ServerConfig{
				Name:        "Nhà sách",
				Description: "Sách tiếng Việt giao toàn quốc.",
				Prompts:     prompts,
			},
		},
	}
}

func listPromptNames(t *testing.T, p *Platform) map[string]*mcp.Prompt {
	t.Helper()
	session, cleanup := connectTestClient(t, p.mcpServer)
	defer cleanup()

	resp, err := session.ListPrompts(context.Background(), &mcp.ListPromptsParams{})
	require.NoError(t, err)
	out := make(map[string]*mcp.Prompt, len(resp.Prompts))
	for _, pr := range resp.Prompts {
		out[pr.Name] = pr
	}
	return out
}

func TestRegisterPlatformPrompts(t *testing.T) {
	tests := []struct {
		name    string
		prompts []PromptConfig
		want    []string
	}{
		{
			name: "no prompts configured",
			want: []string{autoPromptName},
		},
		{
			name: "operator prompts alongside the overview",
			prompts: []PromptConfig{
				{Name: "return_policy", Description: "Returns", Content: "Returns are accepted within 7 days."},
				{Name: "shipping", Description: "Shipping", Content: "Free shipping above 300.000 ₫."},
			},
			want: []string{autoPromptName, "return_policy", "shipping"},
		},
		{
			name: "operator replaces the overview",
			prompts: []PromptConfig{
				{Name: autoPromptName, Description: "custom", Content: "custom content"},
			},
			want: []string{autoPromptName},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := promptPlatform(tt.prompts)
			p.registerPlatformPrompts()

			got := listPromptNames(t, p)
			assert.Len(t, got, len(tt.want))
			for _, name := range tt.want {
				assert.Contains(t, got, name)
			}
		})
	}
}

func TestAutoPromptContent(t *testing.T) {
	p := promptPlatform(nil)
	p.registerPlatformPrompts()

	session, cleanup := connectTestClient(t, p.mcpServer)
	defer cleanup()

	resp, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: autoPromptName})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)

	text, ok := resp.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok, "expected TextContent")
	assert.Contains(t, text.Text, "Sách tiếng Việt giao toàn quốc.")
	assert.Contains(t, text.Text, "platform_info")
	assert.Contains(t, text.Text, "checkout_submit")

	prompts := listPromptNames(t, p)
	assert.Equal(t, "Nhà sách", prompts[autoPromptName].Title)
}

func TestOperatorPromptContent(t *testing.T) {
	p := promptPlatform([]PromptConfig{{Name: autoPromptName, Description: "custom", Content: "custom content"}})
	p.registerPlatformPrompts()

	session, cleanup := connectTestClient(t, p.mcpServer)
	defer cleanup()

	resp, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: autoPromptName})
	require.NoError(t, err)
	text, ok := resp.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "custom content", text.Text)
}

func TestBuildPromptResult(t *testing.T) {
	for _, content := range []string{"Một dòng.", "Line 1\nLine 2", ""} {
		result := buildPromptResult(content)
		require.Len(t, result.Messages, 1)
		assert.Equal(t, mcp.Role("user"), result.Messages[0].Role)
		text, ok := result.Messages[0].Content.(*mcp.TextContent)
		require.True(t, ok, "expected TextContent")
		assert.Equal(t, content, text.Text)
	}
}
