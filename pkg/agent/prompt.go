package agent

import (
	"fmt"
	"strings"

	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/tools"
)

const systemPromptTemplate = `You are a helpful financial assistant.

HINT (if present): %s

You have access to the following tools:

%s

TOOL RULES (VERY IMPORTANT):
- On every turn you must produce EXACTLY one of these two formats:
  (A) Tool request:
      Thought: <short reasoning>
      Action: <tool_name>        # exactly one of [%s], no quotes, no trailing period
      Action Input: "<input text>"
  (B) Final answer:
      Thought: <short reasoning>
      Final Answer: <your answer for the user>

- Smalltalk (greetings, "how are you?"): do NOT use a tool. You must still answer with the "Final Answer:" format, briefly and naturally.
- If the user asks who created you, answer STRICTLY: "%s". Do not mention any other entity.
- Sending an email:
    1) If to/subject/body are not all provided, first use draft_email to propose a draft.
    2) Only once the user confirms AND everything is provided, use send_email_smtp.
    3) NEVER claim an email was sent if the sending tool returned an error.
- Never claim success when the last relevant Observation reports an error. Never repeat a failed Action on your own.
- When you choose a tool, write NOTHING after the "Action Input: ..." line.
  The system runs the tool and gives you "Observation:" on the next turn.
- After an Observation, choose either a NEW Action or "Final Answer:".
- NEVER write free text (explanations, figures) before "Final Answer:".
- Answer in the language of the user.

Correct examples:
Thought: I will compute the CAGR.
Action: financial_calculator
Action Input: "cagr 1000 1300 3"

Thought: I have the answer.
Final Answer: The CAGR is about 9.14%%.

Wrong examples (REJECTED):
Action: Financial_Calculator.
Action Input: 'cagr 1000 1300 3' The CAGR is...
`

// concludePrompt is appended to the scratchpad once the step budget is spent.
const concludePrompt = "\nYou have reached the maximum number of steps. Do not call any more tools. " +
	"Using ONLY the observations above, reply now with:\nThought: <short reasoning>\nFinal Answer: <answer>"

// SystemPrompt renders the system instructions for the given hint and tools.
func SystemPrompt(hint, creatorName string, descriptors []tools.Descriptor) string {
	var catalog strings.Builder
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
		fmt.Fprintf(&catalog, "%s: %s\n", d.Name, d.Description)
	}
	return fmt.Sprintf(systemPromptTemplate, hint, strings.TrimRight(catalog.String(), "\n"), strings.Join(names, ", "), creatorName)
}

// Scratchpad renders the steps taken so far in the grammar the model uses.
func Scratchpad(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		if s.Raw != "" {
			b.WriteString(strings.TrimSpace(s.Raw))
		} else {
			fmt.Fprintf(&b, "%s %s\n%s %s\n%s \"%s\"", labelThought, s.Thought, labelAction, s.Action, labelActionInput, s.ActionInput)
		}
		fmt.Fprintf(&b, "\n%s %s\n", labelObservation, s.Observation)
	}
	return b.String()
}

// BuildMessages assembles system instructions, history, the user input and
// the scratchpad of the current turn.
func BuildMessages(system string, history []llm.Message, input string, steps []Step, conclude bool) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+3)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: input})

	pad := Scratchpad(steps)
	if conclude {
		pad += concludePrompt
	}
	if pad != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: pad})
	}
	return msgs
}
