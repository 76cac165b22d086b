package platform

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
)

// knownToolPrefixes identify tool-name-like tokens in agent_instructions.
// They follow the naming of the storefront, admin and platform tools.
var knownToolPrefixes = []string{
	"session_",
	"products_",
	"product_",
	"categories_",
	"cart_",
	"checkout_",
	"orders_",
	"admin_",
	"platform_",
	"list_",
}

// toolTokenPattern matches word-boundary tokens that look like tool names:
// lowercase words joined by underscores.
var toolTokenPattern = regexp.MustCompile(`\b([a-z][a-z0-9]*(?:_[a-z0-9]+)+)\b`)

// platformTools are registered outside the toolkit registry.
var platformTools = []string{toolPlatformInfo, toolListToolkits}

// validateAgentInstructions logs a warning for every tool-like token in
// agent_instructions that no registered tool matches, so stale references
// show up after a tool is renamed or a toolkit is disabled.
func (p *Platform) validateAgentInstructions() {
	instructions := p.config.Server.AgentInstructions
	if instructions == "" {
		return
	}

	registered := append(p.toolkitRegistry.AllTools(), platformTools...)

	for _, token := range toolTokenPattern.FindAllString(instructions, -1) {
		if !hasKnownPrefix(token) || slices.Contains(registered, token) {
			continue
		}
		slog.Warn("agent_instructions references unrecognized tool",
			"token", token,
			"hint", "verify the tool name exists and its toolkit is enabled",
		)
	}
}

// hasKnownPrefix reports whether the token starts with a known tool prefix.
func hasKnownPrefix(token string) bool {
	return slices.ContainsFunc(knownToolPrefixes, func(prefix string) bool {
		return strings.HasPrefix(token, prefix)
	})
}
