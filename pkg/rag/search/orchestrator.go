package search

import (
	"context"
	"fmt"
	"strings"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/embedding"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/store"
)

// Orchestrator embeds a question and fetches the nearest passages.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	index             index.Index
	logger            logger.ILogger
}

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, idx index.Index, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		index:             idx,
		logger:            log,
	}
}

// Config encapsulates search parameters
type Config struct {
	TopK int

	// MinScore drops passages below this cosine similarity. Zero keeps all.
	MinScore float32
}

func DefaultConfig() Config {
	return Config{TopK: 4}
}

// Execute returns at most TopK passages, most similar first. It fails with
// index.ErrIndexUnavailable when nothing has been ingested and with
// index.ErrEmbeddingMismatch when the query embedder differs from the one
// that built the index.
func (o *Orchestrator) Execute(ctx context.Context, query string, config Config) ([]store.Passage, error) {
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}

	manifest, err := o.index.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	if err := index.CheckCompatible(manifest, o.embeddingProvider.Model(), 0); err != nil {
		return nil, err
	}

	embeddingRes, err := o.embeddingProvider.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if err := index.CheckCompatible(manifest, o.embeddingProvider.Model(), len(embeddingRes.Embedding.Values)); err != nil {
		return nil, err
	}

	results, err := o.index.Search(ctx, embeddingRes.Embedding.Values, config.TopK)
	if err != nil {
		o.logger.Error("RETRIEVER", "Vector search failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	passages := filterAndDeduplicate(results, config.MinScore)
	o.logger.Debug("RETRIEVER", "Passages retrieved", map[string]interface{}{
		"raw":  len(results),
		"kept": len(passages),
	})
	return passages, nil
}

// filterAndDeduplicate keeps retrieval order, dropping low scores and
// passages whose text repeats an earlier one.
func filterAndDeduplicate(results []store.Passage, minScore float32) []store.Passage {
	seen := make(map[string]bool, len(results))
	out := make([]store.Passage, 0, len(results))
	for _, p := range results {
		if p.Score < minScore {
			continue
		}
		key := strings.TrimSpace(p.Text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
