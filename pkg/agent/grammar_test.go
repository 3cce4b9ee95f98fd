package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Action(t *testing.T) {
	d := Parse("Thought: I will compute the CAGR.\nAction: financial_calculator\nAction Input: \"cagr 1000 1300 3\"")
	require.Equal(t, KindAction, d.Kind, d.Err)
	assert.Equal(t, "I will compute the CAGR.", d.Thought)
	assert.Equal(t, "financial_calculator", d.Action)
	assert.Equal(t, "cagr 1000 1300 3", d.ActionInput)
}

func TestParse_ActionInputMultiline(t *testing.T) {
	d := Parse("Thought: draft it\nAction: draft_email\nAction Input: \"to: cfo@example.com\nsubject: Q3\nbody: Hello,\nsee attached.\"")
	require.Equal(t, KindAction, d.Kind, d.Err)
	assert.Equal(t, "to: cfo@example.com\nsubject: Q3\nbody: Hello,\nsee attached.", d.ActionInput)
}

func TestParse_IgnoresHallucinatedObservation(t *testing.T) {
	d := Parse("Thought: look it up\nAction: stock_data_api\nAction Input: pe NVDA\nObservation: P/E = 12\nThought: done\nFinal Answer: 12")
	require.Equal(t, KindAction, d.Kind, d.Err)
	assert.Equal(t, "pe NVDA", d.ActionInput)
}

func TestParse_Final(t *testing.T) {
	d := Parse("  Thought: I have the answer.\r\nFinal Answer: The CAGR is about 9.14%.\nIt compounds yearly.")
	require.Equal(t, KindFinal, d.Kind, d.Err)
	assert.Equal(t, "The CAGR is about 9.14%.\nIt compounds yearly.", d.FinalAnswer)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"plain text", "The CAGR is 9.14%.", ErrTextBeforeLabel},
		{"no thought", "Final Answer: 42", ErrNoThought},
		{"thought only", "Thought: hmm", ErrNoBranch},
		{"both branches", "Thought: x\nAction: financial_calculator\nAction Input: cagr 1 2 3\nFinal Answer: 9%", ErrBothBranches},
		{"action without input", "Thought: x\nAction: financial_calculator", ErrMalformedAction},
		{"capitalized tool", "Thought: x\nAction: Financial_Calculator.\nAction Input: 'cagr 1000 1300 3'", ErrToolNameFormat},
		{"quoted tool", "Thought: x\nAction: \"stock_data_api\"\nAction Input: pe NVDA", ErrToolNameFormat},
		{"empty answer", "Thought: x\nFinal Answer:   ", ErrEmptyAnswer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(tt.text)
			assert.Equal(t, KindParseError, d.Kind)
			assert.ErrorIs(t, d.Err, tt.want)
		})
	}
}

func TestActionInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double quoted", `"a b"`, "a b"},
		{"single quoted", `'a b'`, "a b"},
		{"apostrophe inside", `'body: it's done'`, "body: it's done"},
		{"mismatched quotes", `"a b'`, `"a b'`},
		{"bare", "x", "x"},
		{"bare multiline", "to: a@b.com\nbody: Hi,\n\nthanks", "to: a@b.com\nbody: Hi,\n\nthanks"},
		{"trailing blank lines", "\"pe NVDA\"\n\n  ", "pe NVDA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := actionInput(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_TextAfterQuotedInput(t *testing.T) {
	out := "Thought: send it\nAction: send_email_smtp\nAction Input: \"to: a@b.com\nsubject: Hello\nbody: Hi Bob\"\n\nThe email has been sent successfully."
	d := Parse(out)
	assert.Equal(t, KindParseError, d.Kind)
	assert.ErrorIs(t, d.Err, ErrTrailingText)
	assert.Empty(t, d.ActionInput)

	d = Parse("Thought: x\nAction: financial_calculator\nAction Input: 'cagr 1000 1300 3' done")
	assert.ErrorIs(t, d.Err, ErrTrailingText)
}
