package store

import "time"

// Passage is a chunk of an ingested document as returned by retrieval.
type Passage struct {
	ID       string         `json:"id" msgpack:"id"`
	Text     string         `json:"text" msgpack:"text"`
	Source   string         `json:"source" msgpack:"source"`
	Score    float32        `json:"score" msgpack:"-"`
	Metadata map[string]any `json:"metadata,omitempty" msgpack:"metadata,omitempty"`
}

// Chat roles stored in a session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the conversation state of one chat identified by ID.
type Session struct {
	ID        string    `json:"id"`
	History   []Message `json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy whose history can be read without holding the session lock.
func (s *Session) Clone() *Session {
	out := *s
	out.History = append([]Message(nil), s.History...)
	return &out
}
