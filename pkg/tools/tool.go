package tools

import (
	"context"
	"strings"
	"unicode"
)

// Result is the textual outcome of a tool call. Failed marks error
// observations so the agent never reports them as success.
type Result struct {
	Text   string `json:"text"`
	Failed bool   `json:"failed"`
}

func OK(text string) Result { return Result{Text: text} }

func Fail(text string) Result { return Result{Text: text, Failed: true} }

// Tool is a text-in, text-out capability the agent may invoke.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, input string) Result
}

// Descriptor is the public view of a registered tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type funcTool struct {
	name        string
	description string
	fn          func(ctx context.Context, input string) Result
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return t.description }
func (t *funcTool) Invoke(ctx context.Context, input string) Result {
	return t.fn(ctx, input)
}

// NewFunc wraps fn as a Tool.
func NewFunc(name, description string, fn func(ctx context.Context, input string) Result) Tool {
	return &funcTool{name: name, description: description, fn: fn}
}

// NormalizeName lowercases name and turns every run of characters outside
// [a-z0-9] into a single underscore, e.g. "Web Search" -> "web_search".
func NormalizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
