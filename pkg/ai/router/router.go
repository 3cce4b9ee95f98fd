package router

import (
	"context"
	"fmt"
	"strings"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/llm"

	"github.com/google/jsonschema-go/jsonschema"
)

// routeOutput is the document the fallback model must produce.
type routeOutput struct {
	Action string `json:"action" jsonschema:"the most relevant tool category"`
	Query  string `json:"query" jsonschema:"the user text, unchanged"`
}

// Router classifies user text into a Route: ordered regex rules first,
// then a schema-constrained model call.
type Router struct {
	llmProvider llm.LLMProvider
	schema      *jsonschema.Schema
	logger      logger.ILogger
}

func NewRouter(llmProvider llm.LLMProvider, log logger.ILogger) *Router {
	r := &Router{llmProvider: llmProvider, logger: log}
	schema, err := RouteSchema()
	if err != nil {
		log.Warn("ROUTER", "Route schema unavailable, using prompt-only fallback", map[string]interface{}{"error": err.Error()})
	}
	r.schema = schema
	return r
}

// RouteSchema is the strict JSON schema of a Route with the action enum
// listing every category.
func RouteSchema() (*jsonschema.Schema, error) {
	s, err := llm.SchemaFor[routeOutput]()
	if err != nil {
		return nil, err
	}
	s = llm.StrictSchema(s)
	enum := make([]any, len(Actions))
	for i, a := range Actions {
		enum[i] = string(a)
	}
	s.Properties["action"].Enum = enum
	return s, nil
}

// Classify never fails: any fallback problem yields ActionAuto.
func (r *Router) Classify(ctx context.Context, text string) Route {
	if action, rule, ok := FastPath(text); ok {
		r.logger.Debug("ROUTER", "Fast path matched", map[string]interface{}{"rule": rule, "action": string(action)})
		return Route{Action: action, Query: text, Rule: rule, Source: SourceFastPath}
	}

	action, err := r.classifyWithModel(ctx, text)
	if err != nil {
		r.logger.Warn("ROUTER", "Routing validation failed, defaulting to auto", map[string]interface{}{"error": err.Error()})
		return Route{Action: ActionAuto, Query: text, Source: SourceFallback}
	}
	r.logger.Debug("ROUTER", "Model routed", map[string]interface{}{"action": string(action)})
	return Route{Action: action, Query: text, Source: SourceModel}
}

func (r *Router) classifyWithModel(ctx context.Context, text string) (Action, error) {
	if r.llmProvider == nil {
		return "", fmt.Errorf("no model configured")
	}

	prompt := buildPrompt(text)
	var (
		raw string
		err error
	)
	if sp, ok := r.llmProvider.(llm.StructuredProvider); ok && r.schema != nil {
		raw, err = sp.GenerateStructured(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.Schema{
			Name:        "route",
			Description: "Tool category for a financial assistant query",
			Definition:  r.schema,
		}, llm.WithTemperature(0))
	} else {
		raw, err = r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0))
	}
	if err != nil {
		return "", fmt.Errorf("router model call: %w", err)
	}

	var out routeOutput
	if err := llm.UnmarshalJSON(raw, &out); err != nil {
		return "", fmt.Errorf("decode route: %w", err)
	}
	action, ok := ParseAction(out.Action)
	if !ok {
		return "", fmt.Errorf("action %q is not a known category", out.Action)
	}
	return action, nil
}

func buildPrompt(text string) string {
	names := make([]string, len(Actions))
	for i, a := range Actions {
		names[i] = string(a)
	}

	var b strings.Builder
	b.WriteString("You are the intent router of a financial assistant.\n")
	b.WriteString("Pick the best category among: ")
	b.WriteString(strings.Join(names, ","))
	b.WriteString(".\n")
	b.WriteString(`Return STRICTLY a JSON object {"action": "<category>", "query": "<text>"}.`)
	b.WriteString("\n\nText: ")
	b.WriteString(text)
	return b.String()
}
