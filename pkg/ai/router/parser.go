package router

import (
	"strings"

	"ai-finance-assistant-be/pkg/tools"
)

// PrefixForceTool forces a tool and bypasses classification:
// "!tool:stock_data_api pe NVDA".
const PrefixForceTool = "!tool:"

// ParsedPrompt contains routing information extracted from a prompt.
type ParsedPrompt struct {
	OriginalPrompt string
	CleanPrompt    string // prompt without the prefix
	ForcedTool     string // normalized tool name, "" when not forced
}

// Parse extracts a forced tool from prompt. An empty remainder becomes a
// single space so the agent still receives an input.
func Parse(prompt string) *ParsedPrompt {
	trimmed := strings.TrimSpace(prompt)
	if !strings.HasPrefix(strings.ToLower(trimmed), PrefixForceTool) {
		return &ParsedPrompt{OriginalPrompt: prompt, CleanPrompt: prompt}
	}

	rest := trimmed[len(PrefixForceTool):]
	name, query := rest, ""
	if idx := strings.IndexAny(rest, " \t\n"); idx >= 0 {
		name, query = rest[:idx], strings.TrimSpace(rest[idx+1:])
	}
	name = tools.NormalizeName(name)
	if name == "" {
		return &ParsedPrompt{OriginalPrompt: prompt, CleanPrompt: prompt}
	}
	if query == "" {
		query = " "
	}
	return &ParsedPrompt{OriginalPrompt: prompt, CleanPrompt: query, ForcedTool: name}
}

// IsForced reports whether the prompt names a tool.
func (p *ParsedPrompt) IsForced() bool {
	return p.ForcedTool != ""
}

// ForcedRoute builds the route of a forced prompt; Rule carries the tool name.
func (p *ParsedPrompt) ForcedRoute() Route {
	return Route{Action: ActionAuto, Query: p.CleanPrompt, Rule: p.ForcedTool, Source: SourceForced}
}
