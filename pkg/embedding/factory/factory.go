package factory

import (
	"fmt"
	"time"

	"ai-finance-assistant-be/pkg/embedding"
	"ai-finance-assistant-be/pkg/embedding/jina"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewEmbeddingProvider(cfg Config) (embedding.EmbeddingProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai embeddings require an API key")
		}
		return embedding.NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "ollama":
		return embedding.NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "gemini":
		return embedding.NewGeminiProvider(cfg.APIKey, cfg.Timeout), nil
	case "jina":
		return jina.NewJinaProvider(cfg.APIKey, cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
