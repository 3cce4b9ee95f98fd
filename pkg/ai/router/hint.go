package router

import (
	"fmt"

	"ai-finance-assistant-be/pkg/tools"
)

// Tool names the hints point the agent to.
const (
	toolDocs       = "search_financial_documents"
	toolWeb        = "search_web_tavily"
	toolStock      = tools.StockDataName
	toolCalculator = tools.CalculatorName
)

var actionTool = map[Action]string{
	ActionCalc:  toolCalculator,
	ActionStock: toolStock,
	ActionWeb:   toolWeb,
	ActionRAG:   toolDocs,
}

const (
	smalltalkHint = "This is smalltalk. Answer WITHOUT any tool, but you MUST still use the 'Final Answer:' format."
	creatorHint   = "The user asks who created you. Do not use any tool. Final Answer must be exactly your creator's name and nothing else."
	emailHint     = "If to/subject/body are missing -> Action: draft_email. Otherwise, and only if the user confirms -> Action: send_email_smtp."
)

// Hint turns a route into a suggestion for the agent prompt. It never calls a
// tool itself; auto and categories without a dedicated tool yield "".
func Hint(r Route) string {
	if r.Source == SourceForced && r.Rule != "" {
		return ForcedHint(r.Rule)
	}
	switch r.Action {
	case ActionSmalltalk:
		if r.IsCreatorQuery() {
			return creatorHint
		}
		return smalltalkHint
	case ActionEmail:
		return emailHint
	}
	if tool, ok := actionTool[r.Action]; ok {
		return ForcedHint(tool)
	}
	return ""
}

// ForcedHint asks the agent to start with tool.
func ForcedHint(tool string) string {
	return fmt.Sprintf("USE this tool first: %s", tool)
}
