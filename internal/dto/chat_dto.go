package dto

import (
	"time"

	"ai-finance-assistant-be/pkg/agent"
	"ai-finance-assistant-be/pkg/ai/router"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SendMessageRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Message   string    `json:"message" validate:"required,max=8000"`
	// ForceTool is an alternative to the "!tool:<name>" message prefix.
	ForceTool string `json:"force_tool,omitempty"`
}

type SendMessageResponse struct {
	SessionId  uuid.UUID    `json:"session_id"`
	Route      router.Route `json:"route"`
	Answer     string       `json:"answer"`
	StopReason string       `json:"stop_reason"`
	Steps      []agent.Step `json:"steps"`
}

type ChatHistoryResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ToolResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
