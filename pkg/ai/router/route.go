package router

import "strings"

// Action is the tool category a turn is routed to.
type Action string

const (
	ActionSmalltalk  Action = "smalltalk"
	ActionRAG        Action = "RAG"
	ActionWeb        Action = "web"
	ActionStock      Action = "stock"
	ActionCalc       Action = "calc"
	ActionPortfolio  Action = "portfolio"
	ActionValuation  Action = "valuation"
	ActionFX         Action = "fx"
	ActionEvents     Action = "events"
	ActionKPI        Action = "kpi"
	ActionRisk       Action = "risk"
	ActionStatements Action = "statements"
	ActionESG        Action = "esg"
	ActionOptions    Action = "options"
	ActionBonds      Action = "bonds"
	ActionParity     Action = "parity"
	ActionRebalance  Action = "rebalance"
	ActionAuto       Action = "auto"
	ActionEmail      Action = "email"
)

// Actions lists every category in declaration order.
var Actions = []Action{
	ActionSmalltalk, ActionRAG, ActionWeb, ActionStock, ActionCalc, ActionPortfolio,
	ActionValuation, ActionFX, ActionEvents, ActionKPI, ActionRisk, ActionStatements,
	ActionESG, ActionOptions, ActionBonds, ActionParity, ActionRebalance, ActionAuto,
	ActionEmail,
}

// ParseAction maps s onto the enum, ignoring case and surrounding space.
func ParseAction(s string) (Action, bool) {
	s = strings.TrimSpace(s)
	for _, a := range Actions {
		if strings.EqualFold(s, string(a)) {
			return a, true
		}
	}
	return "", false
}

// Source tells how a route was decided.
type Source string

const (
	SourceFastPath Source = "fastpath"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback" // model failed validation, defaulted to auto
	SourceForced   Source = "forced"
)

// Route is the routing decision of one turn.
type Route struct {
	Action Action `json:"action"`
	Query  string `json:"query"`
	Rule   string `json:"rule,omitempty"`
	Source Source `json:"source"`
}

// IsCreatorQuery reports whether the user asked who built the assistant.
func (r Route) IsCreatorQuery() bool {
	return r.Source == SourceFastPath && r.Rule == RuleCreator
}
