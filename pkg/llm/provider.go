package llm

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string   // Override default model
	Stop        []string // Generation halts before any of these sequences
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithStop(stop ...string) Option {
	return func(o *Options) {
		o.Stop = append(o.Stop, stop...)
	}
}

// ApplyOptions folds opts over the given defaults.
func ApplyOptions(defaults Options, opts ...Option) *Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// Schema names a JSON schema the model output must conform to.
type Schema struct {
	Name        string
	Description string
	Definition  *jsonschema.Schema
}

// StructuredProvider is implemented by backends that can constrain
// their output to a JSON schema.
type StructuredProvider interface {
	LLMProvider

	// GenerateStructured returns the raw JSON document produced for prompt.
	GenerateStructured(ctx context.Context, history []Message, schema Schema, options ...Option) (string, error)
}
