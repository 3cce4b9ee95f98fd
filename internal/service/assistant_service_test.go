package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/internal/repository/memory"
	"ai-finance-assistant-be/pkg/agent"
	"ai-finance-assistant-be/pkg/ai/router"
	"ai-finance-assistant-be/pkg/events"
	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/store"
	"ai-finance-assistant-be/pkg/tools"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creator = "Diallo Mamadou Cherif"

type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	calls   [][]llm.Message
}

func (s *scriptedLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, history)
	i := len(s.calls) - 1
	if i >= len(s.replies) {
		i = len(s.replies) - 1
	}
	return s.replies[i], nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

type capturePublisher struct {
	events []events.Event
	err    error
}

func (c *capturePublisher) Publish(_ context.Context, ev events.Event) error {
	c.events = append(c.events, ev)
	return c.err
}

type fixture struct {
	svc       IAssistantService
	model     *scriptedLLM
	sessions  *memory.SessionRepository
	publisher *capturePublisher
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()
	log := logger.NewNopLogger()
	model := &scriptedLLM{replies: replies}

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewCalculator(), tools.NewDraftEmail(creator))

	a, err := agent.NewAgent(model, registry, agent.Config{MaxSteps: 8, CreatorName: creator}, log)
	require.NoError(t, err)

	sessions := memory.NewSessionRepository()
	pub := &capturePublisher{}
	svc := NewAssistantService(AssistantDeps{
		Router:      router.NewRouter(model, log),
		Agent:       agent.WithMemory(a, sessions),
		Sessions:    sessions,
		Tools:       registry,
		Publisher:   pub,
		Logger:      log,
		CreatorName: creator,
	})
	return &fixture{svc: svc, model: model, sessions: sessions, publisher: pub}
}

func TestSendMessage_CreatorAnswerIsFixed(t *testing.T) {
	f := newFixture(t, "Thought: smalltalk.\nFinal Answer: An engineering team built me!")
	id := uuid.New()

	res, err := f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: id, Message: "Who created you?"})
	require.NoError(t, err)
	assert.Equal(t, creator, res.Answer)
	assert.Equal(t, router.ActionSmalltalk, res.Route.Action)

	history := f.sessions.History(id.String())
	require.Len(t, history, 2)
	assert.Equal(t, creator, history[1].Content)
}

func TestSendMessage_CalcRoutesWithHintAndPublishes(t *testing.T) {
	f := newFixture(t,
		"Thought: compute.\nAction: financial_calculator\nAction Input: cagr 1000 1300 3",
		"Thought: done.\nFinal Answer: The CAGR is 9.14%.",
	)
	id := uuid.New()

	res, err := f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: id, Message: "What is the CAGR from 1000 to 1300 over 3 years?"})
	require.NoError(t, err)
	assert.Equal(t, router.ActionCalc, res.Route.Action)
	assert.Equal(t, router.SourceFastPath, res.Route.Source)
	assert.Equal(t, "The CAGR is 9.14%.", res.Answer)
	require.Len(t, res.Steps, 1)
	assert.Contains(t, res.Steps[0].Observation, "9.139")

	system := f.model.calls[0][0].Content
	assert.Contains(t, system, "USE this tool first: financial_calculator")

	require.Len(t, f.publisher.events, 1)
	payload := f.publisher.events[0].Payload()
	assert.Equal(t, id.String(), payload["session_id"])
	assert.Equal(t, []string{"financial_calculator"}, payload["tools"])
}

func TestSendMessage_ForcedTool(t *testing.T) {
	f := newFixture(t, "Thought: ok.\nFinal Answer: done")

	res, err := f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: uuid.New(), Message: "!tool:Financial_Calculator roi 100 150"})
	require.NoError(t, err)
	assert.Equal(t, router.SourceForced, res.Route.Source)
	assert.Equal(t, "roi 100 150", res.Route.Query)
	assert.Contains(t, f.model.calls[0][0].Content, "USE this tool first: financial_calculator")

	res, err = f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: uuid.New(), Message: "draft it", ForceTool: "draft_email"})
	require.NoError(t, err)
	assert.Equal(t, "draft_email", res.Route.Rule)
}

func TestSendMessage_UnknownForcedTool(t *testing.T) {
	f := newFixture(t, "Thought: ok.\nFinal Answer: done")

	_, err := f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: uuid.New(), Message: "!tool:launch_rockets now"})
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Empty(t, f.model.calls)
}

func TestSendMessage_PublishFailureDoesNotFailTurn(t *testing.T) {
	f := newFixture(t, "Thought: hi.\nFinal Answer: Hello!")
	f.publisher.err = errors.New("nats down")

	res, err := f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: uuid.New(), Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", res.Answer)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t, "Thought: hi.\nFinal Answer: Hello!")

	_, err := f.svc.GetHistory(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	created, err := f.svc.CreateSession(context.Background())
	require.NoError(t, err)
	history, err := f.svc.GetHistory(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.svc.SendMessage(context.Background(), &dto.SendMessageRequest{SessionId: created.Id, Message: "hello"})
	require.NoError(t, err)

	history, err = f.svc.GetHistory(context.Background(), created.Id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, store.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "Hello!", history[1].Content)
}

func TestGetTools(t *testing.T) {
	f := newFixture(t, "Thought: hi.\nFinal Answer: Hello!")

	out := f.svc.GetTools(context.Background())
	require.Len(t, out, 2)
	assert.Equal(t, tools.CalculatorName, out[0].Name)
	assert.Equal(t, tools.DraftEmailName, out[1].Name)
}
