package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/agent"
	"ai-finance-assistant-be/pkg/ai/router"
	"ai-finance-assistant-be/pkg/events"
	"ai-finance-assistant-be/pkg/store"
	"ai-finance-assistant-be/pkg/tools"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownTool     = errors.New("unknown tool")
)

// IAssistantService is the chat surface shared by the HTTP API and the terminal shell.
type IAssistantService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	SendMessage(ctx context.Context, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.ChatHistoryResponse, error)
	GetTools(ctx context.Context) []*dto.ToolResponse
}

type Classifier interface {
	Classify(ctx context.Context, text string) router.Route
}

type TurnRunner interface {
	RunInput(ctx context.Context, sessionID string, in agent.Input) (*agent.Result, error)
}

type SessionReader interface {
	Get(sessionID string) *store.Session
	Exists(sessionID string) bool
}

type ToolCatalog interface {
	Lookup(name string) (tools.Tool, bool)
	Descriptors() []tools.Descriptor
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type AssistantDeps struct {
	Router      Classifier
	Agent       TurnRunner
	Sessions    SessionReader
	Tools       ToolCatalog
	Publisher   EventPublisher // optional
	Logger      logger.ILogger
	AuditLogger logger.ILogger // optional
	CreatorName string
}

type assistantService struct {
	router      Classifier
	agent       TurnRunner
	sessions    SessionReader
	tools       ToolCatalog
	publisher   EventPublisher
	logger      logger.ILogger
	auditLogger logger.ILogger
	creatorName string
}

func NewAssistantService(deps AssistantDeps) IAssistantService {
	audit := deps.AuditLogger
	if audit == nil {
		audit = logger.NewNopLogger()
	}
	return &assistantService{
		router:      deps.Router,
		agent:       deps.Agent,
		sessions:    deps.Sessions,
		tools:       deps.Tools,
		publisher:   deps.Publisher,
		logger:      deps.Logger,
		auditLogger: audit,
		creatorName: deps.CreatorName,
	}
}

func (s *assistantService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	id := uuid.New()
	s.sessions.Get(id.String())
	s.logger.Info("ASSISTANT", "Session created", map[string]interface{}{"session_id": id.String()})
	return &dto.CreateSessionResponse{Id: id}, nil
}

func (s *assistantService) SendMessage(ctx context.Context, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	sessionID := request.SessionId.String()

	route, err := s.route(ctx, request)
	if err != nil {
		return nil, err
	}

	in := agent.Input{Text: route.Query, Hint: router.Hint(route)}
	if route.IsCreatorQuery() {
		in.FixedAnswer = s.creatorName
	}

	start := time.Now()
	res, err := s.agent.RunInput(ctx, sessionID, in)
	if err != nil {
		return nil, fmt.Errorf("turn aborted: %w", err)
	}

	s.recordTurn(sessionID, route, res, time.Since(start))

	return &dto.SendMessageResponse{
		SessionId:  request.SessionId,
		Route:      route,
		Answer:     res.FinalAnswer,
		StopReason: string(res.StopReason),
		Steps:      res.Steps,
	}, nil
}

// route resolves a forced tool first; classification only runs otherwise.
func (s *assistantService) route(ctx context.Context, request *dto.SendMessageRequest) (router.Route, error) {
	parsed := router.Parse(request.Message)
	if !parsed.IsForced() && strings.TrimSpace(request.ForceTool) != "" {
		parsed = &router.ParsedPrompt{
			OriginalPrompt: request.Message,
			CleanPrompt:    request.Message,
			ForcedTool:     tools.NormalizeName(request.ForceTool),
		}
	}

	if parsed.IsForced() {
		if _, ok := s.tools.Lookup(parsed.ForcedTool); !ok {
			return router.Route{}, fmt.Errorf("%w: %s", ErrUnknownTool, parsed.ForcedTool)
		}
		return parsed.ForcedRoute(), nil
	}

	return s.router.Classify(ctx, request.Message), nil
}

func (s *assistantService) recordTurn(sessionID string, route router.Route, res *agent.Result, elapsed time.Duration) {
	var used []string
	for _, step := range res.Steps {
		if step.Action != "" {
			used = append(used, step.Action)
		}
	}

	ev := events.TurnCompleted{
		SessionID:  sessionID,
		Action:     string(route.Action),
		RouteFrom:  string(route.Source),
		Tools:      used,
		Steps:      len(res.Steps),
		StopReason: string(res.StopReason),
		OccurredAt: time.Now().UTC(),
	}

	details := ev.Payload()
	details["elapsed_ms"] = elapsed.Milliseconds()
	s.auditLogger.Info("TURN", "Turn completed", details)

	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("ASSISTANT", "Failed to publish turn event", map[string]interface{}{"error": err.Error()})
	}
}

func (s *assistantService) GetHistory(ctx context.Context, sessionId uuid.UUID) ([]*dto.ChatHistoryResponse, error) {
	if !s.sessions.Exists(sessionId.String()) {
		return nil, ErrSessionNotFound
	}

	history := s.sessions.Get(sessionId.String()).History
	out := make([]*dto.ChatHistoryResponse, 0, len(history))
	for _, m := range history {
		out = append(out, &dto.ChatHistoryResponse{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func (s *assistantService) GetTools(ctx context.Context) []*dto.ToolResponse {
	descriptors := s.tools.Descriptors()
	out := make([]*dto.ToolResponse, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, &dto.ToolResponse{Name: d.Name, Description: d.Description})
	}
	return out
}
