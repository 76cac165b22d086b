package platform

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// autoPromptName is the built-in overview prompt. An operator prompt with
// the same name replaces it.
const autoPromptName = "bookstore-overview"

// registerPlatformPrompts registers platform-level prompts from config,
// then the overview prompt.
func (p *Platform) registerPlatformPrompts() {
	for _, promptCfg := range p.config.Server.Prompts {
		p.registerPrompt(promptCfg)
	}
	p.registerAutoPrompt()
}

// registerPrompt registers a single prompt with the MCP server.
func (p *Platform) registerPrompt(cfg PromptConfig) {
	content := cfg.Content

	p.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        cfg.Name,
		Description: cfg.Description,
	}, func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return buildPromptResult(content), nil
	})
}

// registerAutoPrompt registers the overview prompt unless the operator
// defined one.
func (p *Platform) registerAutoPrompt() {
	if slices.ContainsFunc(p.config.Server.Prompts, func(c PromptConfig) bool { return c.Name == autoPromptName }) {
		return
	}
	content := p.autoPromptContent()

	p.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        autoPromptName,
		Title:       p.config.Server.Name,
		Description: "How to shop and manage the bookstore through this server's tools.",
	}, func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return buildPromptResult(content), nil
	})
}

func (p *Platform) autoPromptContent() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping a customer of %s.\n", p.config.Server.Name)
	if p.config.Server.Description != "" {
		b.WriteString(p.config.Server.Description + "\n")
	}
	b.WriteString(`
Call platform_info first to see which toolkits are enabled.

Browsing needs no account: products_list, products_search, products_by_category,
categories_list and product_get.

The cart and checkout need a signed-in customer. Use session_whoami to check,
session_login or session_register to sign in. Add books with cart_add, review
them with cart_view, then call checkout_submit with the full name, address,
email and phone for delivery. The order is built from the cart as stored on the
server, so call cart_view before checking out to show the customer what will be
ordered. orders_mine lists past orders.

Administrators also get the admin_ tools. Deleting a user or a product only
happens when confirm is true; ask the administrator first.

Prices are in Vietnamese dong. Show the *Display fields to the user as-is.
`)
	return b.String()
}

// buildPromptResult wraps content as a single user message.
func buildPromptResult(content string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: content},
			},
		},
	}
}
