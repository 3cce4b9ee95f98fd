package agent

import (
	"errors"
	"fmt"
	"strings"

	"ai-finance-assistant-be/pkg/tools"
)

// Grammar labels.
const (
	labelThought     = "Thought:"
	labelAction      = "Action:"
	labelActionInput = "Action Input:"
	labelFinalAnswer = "Final Answer:"
	labelObservation = "Observation:"
)

// DecisionKind tags the branch the model output matched.
type DecisionKind int

const (
	KindParseError DecisionKind = iota
	KindAction
	KindFinal
)

// Decision is the parsed form of one generation.
type Decision struct {
	Kind        DecisionKind
	Thought     string
	Action      string
	ActionInput string
	FinalAnswer string
	Err         error
}

var (
	ErrNoThought       = errors.New("missing 'Thought:' line")
	ErrTextBeforeLabel = errors.New("free text before 'Thought:'")
	ErrBothBranches    = errors.New("output contains both an Action and a Final Answer")
	ErrNoBranch        = errors.New("output has neither an Action nor a Final Answer")
	ErrMalformedAction = errors.New("'Action:' must be followed by an 'Action Input:' line")
	ErrEmptyAnswer     = errors.New("'Final Answer:' is empty")
	ErrToolNameFormat  = errors.New("tool name must be lowercase snake_case without quotes or punctuation")
	ErrTrailingText    = errors.New("text after the closing quote of 'Action Input:'")
)

type section struct {
	label string
	lines []string
}

func (s section) text() string {
	return strings.TrimSpace(strings.Join(s.lines, "\n"))
}

// labels are matched longest first so "Action Input:" never reads as "Action:".
var labels = []string{labelActionInput, labelFinalAnswer, labelObservation, labelThought, labelAction}

func splitSections(text string) ([]section, error) {
	var sections []section
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		label := ""
		for _, l := range labels {
			if strings.HasPrefix(trimmed, l) {
				label = l
				break
			}
		}
		if label != "" {
			sections = append(sections, section{label: label, lines: []string{strings.TrimSpace(trimmed[len(label):])}})
			continue
		}
		if len(sections) == 0 {
			if trimmed != "" {
				return nil, ErrTextBeforeLabel
			}
			continue
		}
		last := &sections[len(sections)-1]
		last.lines = append(last.lines, line)
	}
	return sections, nil
}

// Parse applies the two-branch grammar:
//
//	Thought: <text>            Thought: <text>
//	Action: <tool_name>        Final Answer: <text>
//	Action Input: "<text>"
//
// A hallucinated Observation and anything after it is ignored.
func Parse(text string) Decision {
	sections, err := splitSections(text)
	if err != nil {
		return Decision{Kind: KindParseError, Err: err}
	}
	for i, s := range sections {
		if s.label == labelObservation {
			sections = sections[:i]
			break
		}
	}
	if len(sections) == 0 || sections[0].label != labelThought {
		return Decision{Kind: KindParseError, Err: ErrNoThought}
	}

	thought := sections[0].text()
	rest := sections[1:]

	var hasAction, hasFinal bool
	for _, s := range rest {
		switch s.label {
		case labelAction, labelActionInput:
			hasAction = true
		case labelFinalAnswer:
			hasFinal = true
		}
	}

	switch {
	case hasAction && hasFinal:
		return Decision{Kind: KindParseError, Thought: thought, Err: ErrBothBranches}
	case hasFinal:
		if len(rest) != 1 {
			return Decision{Kind: KindParseError, Thought: thought, Err: fmt.Errorf("%w: unexpected lines around 'Final Answer:'", ErrNoBranch)}
		}
		answer := rest[0].text()
		if answer == "" {
			return Decision{Kind: KindParseError, Thought: thought, Err: ErrEmptyAnswer}
		}
		return Decision{Kind: KindFinal, Thought: thought, FinalAnswer: answer}
	case hasAction:
		if len(rest) != 2 || rest[0].label != labelAction || rest[1].label != labelActionInput {
			return Decision{Kind: KindParseError, Thought: thought, Err: ErrMalformedAction}
		}
		name := rest[0].text()
		if name == "" || name != tools.NormalizeName(name) {
			return Decision{Kind: KindParseError, Thought: thought, Err: fmt.Errorf("%w: got %q", ErrToolNameFormat, name)}
		}
		input, err := actionInput(rest[1].text())
		if err != nil {
			return Decision{Kind: KindParseError, Thought: thought, Err: err}
		}
		return Decision{Kind: KindAction, Thought: thought, Action: name, ActionInput: input}
	default:
		return Decision{Kind: KindParseError, Thought: thought, Err: ErrNoBranch}
	}
}

// actionInput reads a quoted or bare tool input. A quoted input ends at its
// last matching quote and nothing but whitespace may follow it. A bare input
// runs to the end of the output.
func actionInput(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return s, nil
	}
	end := strings.LastIndexByte(s[1:], s[0])
	if end < 0 {
		return s, nil
	}
	end++
	if trailing := strings.TrimSpace(s[end+1:]); trailing != "" {
		return "", fmt.Errorf("%w: %q", ErrTrailingText, firstLine(trailing))
	}
	return strings.TrimSpace(s[1:end]), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
