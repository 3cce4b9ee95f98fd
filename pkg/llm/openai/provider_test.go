package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-finance-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 0,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": finish,
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	}
}

func newServer(t *testing.T, capture *map[string]any, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestOpenAIProvider_ChatMapsRolesAndStop(t *testing.T) {
	var req map[string]any
	srv := newServer(t, &req, completion("Thought: x\nFinal Answer: y", "stop"))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1/", "gpt-4o-mini", 5*time.Second)
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "rules"},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
	}, llm.WithStop("\nObservation:"))

	require.NoError(t, err)
	assert.Equal(t, "Thought: x\nFinal Answer: y", out)
	assert.Equal(t, "gpt-4o-mini", req["model"])

	msgs := req["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	assert.Equal(t, []any{"\nObservation:"}, req["stop"])
}

func TestOpenAIProvider_GenerateStructuredUsesStrictSchema(t *testing.T) {
	var req map[string]any
	srv := newServer(t, &req, completion(`{"action":"web","query":"q"}`, "stop"))
	defer srv.Close()

	type route struct {
		Action string `json:"action"`
		Query  string `json:"query"`
	}
	def, err := llm.SchemaFor[route]()
	require.NoError(t, err)

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1/", "", 5*time.Second)
	out, err := p.GenerateStructured(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "news"}},
		llm.Schema{Name: "route", Description: "routing decision", Definition: def})

	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"web","query":"q"}`, out)

	rf := req["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", rf["type"])
	js := rf["json_schema"].(map[string]any)
	assert.Equal(t, "route", js["name"])
	assert.Equal(t, true, js["strict"])
	schema := js["schema"].(map[string]any)
	assert.ElementsMatch(t, []any{"action", "query"}, schema["required"])
}

func TestOpenAIProvider_StructuredRejectsTruncatedOutput(t *testing.T) {
	var req map[string]any
	srv := newServer(t, &req, completion(`{"action":`, "length"))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1/", "", 5*time.Second)
	_, err := p.GenerateStructured(context.Background(),
		[]llm.Message{{Role: llm.RoleUser, Content: "q"}}, llm.Schema{Name: "route"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finish reason")
}
