package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/tools"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxSteps = 8

const (
	// UnableToComplete is the answer when even the forced conclusion fails to parse.
	UnableToComplete = "I was unable to complete this request within the allowed number of steps. Please rephrase or narrow down your question."

	// Apology is the answer when the model itself cannot be reached.
	Apology = "Sorry, an error occurred while generating the answer. Please try again."
)

// StopReason tells how a run ended.
type StopReason string

const (
	StopFinalAnswer StopReason = "final_answer"
	StopForced      StopReason = "forced_conclusion"
	StopFallback    StopReason = "fallback"
	StopModelError  StopReason = "model_error"
)

// Step is one iteration of the loop. Observation holds the tool output or
// the corrective message sent back after a parse failure.
type Step struct {
	Thought           string `json:"thought"`
	Action            string `json:"action,omitempty"`
	ActionInput       string `json:"action_input,omitempty"`
	Observation       string `json:"observation"`
	ObservationFailed bool   `json:"observation_failed"`
	Raw               string `json:"-"`
}

// Input is one user turn. A non-empty FixedAnswer replaces whatever the
// model concludes.
type Input struct {
	Text        string
	Hint        string
	History     []llm.Message
	FixedAnswer string
}

type Result struct {
	FinalAnswer string     `json:"final_answer"`
	Steps       []Step     `json:"steps"`
	StopReason  StopReason `json:"stop_reason"`
}

// ToolSet is the registry surface the loop needs.
type ToolSet interface {
	Lookup(name string) (tools.Tool, bool)
	Invoke(ctx context.Context, name, input string) tools.Result
	Names() []string
	Descriptors() []tools.Descriptor
}

type Config struct {
	MaxSteps    int
	CreatorName string
}

// Agent runs the Thought/Action/Observation loop over a tool set.
type Agent struct {
	llmProvider llm.LLMProvider
	tools       ToolSet
	config      Config
	logger      logger.ILogger
}

func NewAgent(llmProvider llm.LLMProvider, toolSet ToolSet, config Config, log logger.ILogger) (*Agent, error) {
	if llmProvider == nil {
		return nil, errors.New("model is required")
	}
	if toolSet == nil {
		return nil, errors.New("tool set is required")
	}
	if config.MaxSteps <= 0 {
		config.MaxSteps = DefaultMaxSteps
	}
	return &Agent{llmProvider: llmProvider, tools: toolSet, config: config, logger: log}, nil
}

var tracer = otel.Tracer("ai-finance-assistant-be/pkg/agent")

// Run always yields a non-empty FinalAnswer. The error is non-nil only when
// ctx is cancelled.
func (a *Agent) Run(ctx context.Context, in Input) (*Result, error) {
	ctx, span := tracer.Start(ctx, "agent.Run")
	defer span.End()

	res, err := a.loop(ctx, span, in)
	if err == nil && in.FixedAnswer != "" {
		res.FinalAnswer = in.FixedAnswer
	}
	return res, err
}

func (a *Agent) loop(ctx context.Context, span trace.Span, in Input) (*Result, error) {
	system := SystemPrompt(in.Hint, a.config.CreatorName, a.tools.Descriptors())
	var steps []Step

	for len(steps) < a.config.MaxSteps {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return &Result{FinalAnswer: Apology, Steps: steps, StopReason: StopModelError}, err
		}

		raw, err := a.generate(ctx, BuildMessages(system, in.History, in.Text, steps, false))
		if err != nil {
			return a.modelFailure(ctx, span, steps, err)
		}

		decision := Parse(raw)
		switch decision.Kind {
		case KindFinal:
			a.logger.Info("AGENT", "Final answer", map[string]interface{}{"steps": len(steps)})
			span.SetAttributes(attribute.Int("agent.steps", len(steps)), attribute.String("agent.stop", string(StopFinalAnswer)))
			return &Result{FinalAnswer: decision.FinalAnswer, Steps: steps, StopReason: StopFinalAnswer}, nil

		case KindAction:
			steps = append(steps, a.act(ctx, decision, raw))

		default:
			a.logger.Warn("AGENT", "Unparseable model output", map[string]interface{}{"error": decision.Err.Error()})
			steps = append(steps, Step{
				Thought:           decision.Thought,
				Observation:       formatCorrection(decision.Err, a.tools.Names()),
				ObservationFailed: true,
				Raw:               raw,
			})
		}
	}

	return a.conclude(ctx, span, system, in, steps)
}

func (a *Agent) act(ctx context.Context, d Decision, raw string) Step {
	step := Step{Thought: d.Thought, Action: d.Action, ActionInput: d.ActionInput, Raw: trimAfterInput(raw)}

	if _, ok := a.tools.Lookup(d.Action); !ok {
		step.Observation = fmt.Sprintf("Invalid action: %q is not a valid tool. Use exactly one of [%s] or give a Final Answer.",
			d.Action, strings.Join(a.tools.Names(), ", "))
		step.ObservationFailed = true
		a.logger.Warn("AGENT", "Unknown tool requested", map[string]interface{}{"tool": d.Action})
		return step
	}

	ctx, span := tracer.Start(ctx, "agent.tool")
	span.SetAttributes(attribute.String("tool.name", d.Action))
	res := a.tools.Invoke(ctx, d.Action, d.ActionInput)
	if res.Failed {
		span.SetStatus(codes.Error, res.Text)
	}
	span.End()

	step.Observation = res.Text
	step.ObservationFailed = res.Failed
	a.logger.Info("AGENT", "Tool invoked", map[string]interface{}{
		"tool":   d.Action,
		"failed": res.Failed,
	})
	return step
}

// conclude asks the model once more to answer from what it observed.
func (a *Agent) conclude(ctx context.Context, span trace.Span, system string, in Input, steps []Step) (*Result, error) {
	a.logger.Warn("AGENT", "Step budget exhausted, forcing conclusion", map[string]interface{}{"max_steps": a.config.MaxSteps})

	raw, err := a.generate(ctx, BuildMessages(system, in.History, in.Text, steps, true))
	if err != nil {
		return a.modelFailure(ctx, span, steps, err)
	}

	if d := Parse(raw); d.Kind == KindFinal {
		span.SetAttributes(attribute.String("agent.stop", string(StopForced)))
		return &Result{FinalAnswer: d.FinalAnswer, Steps: steps, StopReason: StopForced}, nil
	}

	span.SetAttributes(attribute.String("agent.stop", string(StopFallback)))
	return &Result{FinalAnswer: UnableToComplete, Steps: steps, StopReason: StopFallback}, nil
}

func (a *Agent) modelFailure(ctx context.Context, span trace.Span, steps []Step, err error) (*Result, error) {
	a.logger.Error("AGENT", "Model call failed", map[string]interface{}{"error": err.Error()})
	span.SetStatus(codes.Error, err.Error())
	res := &Result{FinalAnswer: Apology, Steps: steps, StopReason: StopModelError}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	return res, nil
}

func (a *Agent) generate(ctx context.Context, msgs []llm.Message) (string, error) {
	return a.llmProvider.Chat(ctx, msgs, llm.WithTemperature(0), llm.WithStop("\n"+labelObservation))
}

func formatCorrection(err error, names []string) string {
	return fmt.Sprintf("Invalid format: %v. Reply with either (A) 'Thought:', 'Action:' (one of [%s]) and 'Action Input:', or (B) 'Thought:' and 'Final Answer:'.",
		err, strings.Join(names, ", "))
}

// trimAfterInput drops a hallucinated Observation from raw output.
func trimAfterInput(raw string) string {
	if i := strings.Index(raw, "\n"+labelObservation); i >= 0 {
		return raw[:i]
	}
	return raw
}
