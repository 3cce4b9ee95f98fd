package response

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/rag/search"
	"ai-finance-assistant-be/pkg/store"
	"ai-finance-assistant-be/pkg/tools"
)

const (
	// NotFound is returned verbatim when the passages do not hold the answer.
	NotFound = "I could not find the information in the provided documents."

	// IndexUnavailable is returned when no document index has been built.
	IndexUnavailable = "Error: the financial document index is unavailable (not built yet). Run the ingestion first, then retry."

	// PassageSeparator joins passages in the grounded prompt.
	PassageSeparator = "\n\n---\n\n"

	ToolName = "search_financial_documents"

	toolDescription = "Answers questions from the internal financial documents (annual and quarterly reports, 10-K, 10-Q, " +
		"revenue, earnings, management, board members, ESG/sustainability reports). " +
		"Do NOT use it for real-time data such as the current stock price or the latest news. Input: the question."
)

// Retriever is the passage source of the generator.
type Retriever interface {
	Execute(ctx context.Context, query string, config search.Config) ([]store.Passage, error)
}

// Generator answers questions strictly from retrieved passages.
type Generator struct {
	llmProvider llm.LLMProvider
	retriever   Retriever
	config      search.Config
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, retriever Retriever, config search.Config, log logger.ILogger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		retriever:   retriever,
		config:      config,
		logger:      log,
	}
}

// Answer never returns an error: failures become text the agent can observe.
func (g *Generator) Answer(ctx context.Context, question string) string {
	result := g.answer(ctx, question)
	return result.Text
}

func (g *Generator) answer(ctx context.Context, question string) tools.Result {
	question = strings.TrimSpace(question)
	if question == "" {
		return tools.Fail("Error: empty question for " + ToolName + ".")
	}

	passages, err := g.retriever.Execute(ctx, question, g.config)
	switch {
	case errors.Is(err, index.ErrIndexUnavailable):
		g.logger.Warn("DOCQA", "Document index unavailable", map[string]interface{}{"error": err.Error()})
		return tools.Fail(IndexUnavailable)
	case errors.Is(err, index.ErrEmbeddingMismatch):
		g.logger.Error("DOCQA", "Embedding model mismatch", map[string]interface{}{"error": err.Error()})
		return tools.Fail("Error: the document index was built with a different embedding model; rebuild it before querying.")
	case err != nil:
		g.logger.Error("DOCQA", "Retrieval failed", map[string]interface{}{"error": err.Error()})
		return tools.Fail("Error while searching the financial documents.")
	}

	if len(passages) == 0 {
		g.logger.Info("DOCQA", "No passages retrieved", map[string]interface{}{"question": question})
		return tools.OK(NotFound)
	}

	prompt := BuildGroundedPrompt(question, passages)
	answer, err := g.llmProvider.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, llm.WithTemperature(0))
	if err != nil {
		g.logger.Error("DOCQA", "LLM generation failed", map[string]interface{}{"error": err.Error()})
		return tools.Fail("Error while generating the answer from the financial documents.")
	}

	g.logger.Info("DOCQA", "Answer generated", map[string]interface{}{"passages": len(passages)})
	return tools.OK(NormalizeAnswer(answer))
}

// NormalizeAnswer maps an empty answer, or one that is only the not-found
// sentence up to case, quotes and final punctuation, to exactly NotFound.
// Answers that add grounded content around the sentence are kept.
func NormalizeAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" || bareSentence(answer) == bareSentence(NotFound) {
		return NotFound
	}
	return answer
}

func bareSentence(s string) string {
	return strings.ToLower(strings.Trim(s, " \t\r\n\"'`.!;:"))
}

// JoinPassages concatenates passage texts in retrieval order.
func JoinPassages(passages []store.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, PassageSeparator)
}

func BuildGroundedPrompt(question string, passages []store.Passage) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert financial analyst. Answer **in the same language as the Question** ")
	prompt.WriteString("using ONLY the document excerpts below. Do NOT use outside knowledge.\n")
	prompt.WriteString(fmt.Sprintf("If the answer is not in the excerpts, reply exactly: '%s' ", NotFound))
	prompt.WriteString("(or its equivalent in the language of the question).\n\n")
	prompt.WriteString(fmt.Sprintf("Question: %s\n\n", question))
	prompt.WriteString("Document excerpts:\n")
	prompt.WriteString(JoinPassages(passages))
	prompt.WriteString("\n\nSourced and concise answer:")

	return prompt.String()
}

// Tool exposes the generator to the agent.
func (g *Generator) Tool() tools.Tool {
	return tools.NewFunc(ToolName, toolDescription, g.answer)
}
