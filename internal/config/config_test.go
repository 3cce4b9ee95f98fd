package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MODEL_NAME", "gpt-4o-mini")
	t.Setenv("AGENT_MAX_STEPS", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg := Load()
	assert.Equal(t, "gpt-4o-mini", cfg.Ai.LLMModel)
	assert.Equal(t, 8, cfg.Agent.MaxSteps)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 60*time.Second, cfg.Timeouts.LLM)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AGENT_MAX_STEPS", "3")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("SMTP_TLS", "false")
	t.Setenv("MARKET_TIMEOUT", "2s")
	t.Setenv("RAG_TOP_K", "6")
	t.Setenv("VECTORSTORE_READ_ONLY", "false")

	cfg := Load()
	assert.Equal(t, 3, cfg.Agent.MaxSteps)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.TLS)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.MarketData)
	assert.Equal(t, 6, cfg.Index.TopK)
	assert.False(t, cfg.Index.ReadOnly)
}

func TestLoad_SMTPFromDefaultsToUser(t *testing.T) {
	t.Setenv("SMTP_USER", "bot@example.com")
	t.Setenv("SMTP_FROM", "")
	t.Setenv("VECTORSTORE_READ_ONLY", "")

	cfg := Load()
	assert.Equal(t, "bot@example.com", cfg.SMTP.From)
	assert.True(t, cfg.Index.ReadOnly)

	t.Setenv("SMTP_FROM", "desk@example.com")
	assert.Equal(t, "desk@example.com", Load().SMTP.From)
}

func validConfig() *Config {
	return &Config{
		Ai:     AIConfig{LLMProvider: "openai", LLMAPIKey: "sk"},
		Search: SearchConfig{TavilyAPIKey: "tv"},
		Agent:  AgentConfig{MaxSteps: 8},
		Index:  IndexConfig{Backend: "badger", TopK: 4},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Ai.LLMAPIKey = ""
	cfg.Search.TavilyAPIKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
	assert.Contains(t, err.Error(), "TAVILY_API_KEY")

	cfg = validConfig()
	cfg.Ai.LLMProvider = "ollama"
	cfg.Ai.LLMAPIKey = ""
	assert.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Index.Backend = "pgvector"
	assert.ErrorContains(t, cfg.Validate(), "DB_CONNECTION_STRING")

	cfg = validConfig()
	cfg.Agent.MaxSteps = 0
	assert.ErrorContains(t, cfg.Validate(), "AGENT_MAX_STEPS")
}

func TestSMTPConfig_Validate(t *testing.T) {
	err := SMTPConfig{Host: "smtp.example.com", Port: 587}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_USER")
	assert.Contains(t, err.Error(), "SMTP_PASS")
	assert.Contains(t, err.Error(), "SMTP_FROM")
	assert.NotContains(t, err.Error(), "SMTP_HOST")

	ok := SMTPConfig{Host: "h", Port: 465, Username: "u", Password: "p", From: "f@example.com"}
	assert.NoError(t, ok.Validate())
}
