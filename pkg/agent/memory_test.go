package agent

import (
	"context"
	"testing"

	"ai-finance-assistant-be/internal/repository/memory"
	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAgent_TwoTurnCAGRScenario(t *testing.T) {
	model := &scriptedLLM{replies: []string{
		"Thought: context noted.\nFinal Answer: Noted: 1000€ grew to 1300€ over 3 years.",
		cagrAction,
		"Thought: done.\nFinal Answer: The CAGR is about 9.14% per year.",
	}}
	sessions := memory.NewSessionRepository()
	m := WithMemory(newTestAgent(t, model, testRegistry(t), 8), sessions)
	ctx := context.Background()

	_, err := m.Run(ctx, "s2", "Context: I have 1000€ that become 1300€ in 3 years. We will talk about it next.", "")
	require.NoError(t, err)

	res, err := m.Run(ctx, "s2", "On that basis, compute the CAGR.", "USE this tool first: financial_calculator")
	require.NoError(t, err)
	assert.Equal(t, "The CAGR is about 9.14% per year.", res.FinalAnswer)
	assert.Contains(t, res.Steps[0].Observation, "9.139")

	// The second turn saw the first turn's exchange.
	second := model.calls[1]
	require.GreaterOrEqual(t, len(second), 4)
	assert.Equal(t, llm.RoleUser, second[1].Role)
	assert.Contains(t, second[1].Content, "1000€")
	assert.Equal(t, llm.RoleAssistant, second[2].Role)

	history := sessions.History("s2")
	require.Len(t, history, 4)
	assert.Equal(t, store.RoleAssistant, history[3].Role)
	assert.Equal(t, "The CAGR is about 9.14% per year.", history[3].Content)
	for _, msg := range history {
		assert.NotContains(t, msg.Content, "Observation:")
	}
}

func TestMemoryAgent_SessionsAreIsolated(t *testing.T) {
	model := &scriptedLLM{replies: []string{"Thought: ok\nFinal Answer: hello"}}
	sessions := memory.NewSessionRepository()
	m := WithMemory(newTestAgent(t, model, testRegistry(t), 8), sessions)

	_, err := m.Run(context.Background(), "a", "secret for a", "")
	require.NoError(t, err)
	_, err = m.Run(context.Background(), "b", "hi", "")
	require.NoError(t, err)

	forB := model.calls[1]
	for _, msg := range forB {
		assert.NotContains(t, msg.Content, "secret for a")
	}
	assert.Len(t, sessions.History("a"), 2)
	assert.Len(t, sessions.History("b"), 2)
}

func TestMemoryAgent_CancelledTurnNotRecorded(t *testing.T) {
	sessions := memory.NewSessionRepository()
	m := WithMemory(newTestAgent(t, &scriptedLLM{replies: []string{"x"}}, testRegistry(t), 8), sessions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Run(ctx, "c", "hi", "")
	assert.Error(t, err)
	assert.Empty(t, sessions.History("c"))
}

func TestToLLMHistory(t *testing.T) {
	got := ToLLMHistory([]store.Message{
		{Role: store.RoleUser, Content: "q"},
		{Role: store.RoleAssistant, Content: " "},
		{Role: store.RoleAssistant, Content: "a"},
	})
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "q"}, {Role: llm.RoleAssistant, Content: "a"}}, got)
}
