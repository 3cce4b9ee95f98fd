package agent

import (
	"context"
	"strings"
	"time"

	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/store"
)

// SessionStore keeps per-session chat history.
type SessionStore interface {
	// Lock serializes turns of one session and returns the unlock func.
	Lock(sessionID string) func()
	History(sessionID string) []store.Message
	Append(sessionID string, messages ...store.Message)
}

// Runner is what the memory wrapper drives.
type Runner interface {
	Run(ctx context.Context, in Input) (*Result, error)
}

// MemoryAgent injects a session's history into every run and records the
// user input and final answer afterwards. Intermediate steps are not stored.
type MemoryAgent struct {
	runner   Runner
	sessions SessionStore
}

func WithMemory(runner Runner, sessions SessionStore) *MemoryAgent {
	return &MemoryAgent{runner: runner, sessions: sessions}
}

// Run executes one turn. Turns of the same session never interleave.
// A cancelled turn leaves the history untouched.
func (m *MemoryAgent) Run(ctx context.Context, sessionID, text, hint string) (*Result, error) {
	return m.RunInput(ctx, sessionID, Input{Text: text, Hint: hint})
}

// RunInput is Run with full control over the input. Any history already set
// on in is replaced by the session's.
func (m *MemoryAgent) RunInput(ctx context.Context, sessionID string, in Input) (*Result, error) {
	unlock := m.sessions.Lock(sessionID)
	defer unlock()

	in.History = ToLLMHistory(m.sessions.History(sessionID))
	res, err := m.runner.Run(ctx, in)
	if err != nil {
		return res, err
	}

	now := time.Now().UTC()
	m.sessions.Append(sessionID,
		store.Message{Role: store.RoleUser, Content: in.Text, CreatedAt: now},
		store.Message{Role: store.RoleAssistant, Content: res.FinalAnswer, CreatedAt: now},
	)
	return res, nil
}

// ToLLMHistory converts stored messages, skipping empty ones.
func ToLLMHistory(messages []store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if m.Role == store.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}
