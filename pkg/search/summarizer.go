package search

import (
	"context"
	"fmt"
	"strings"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/tools"
)

const (
	ToolName = "search_web_tavily"

	// SummaryTemperature leaves room for phrasing in the summary.
	SummaryTemperature = 0.7

	toolDescription = "Searches the internet for real-time information: news, recent events, market opinions, " +
		"the current stock price. Use it for anything that cannot be found in the internal financial reports. " +
		"Input: the search question."
)

// Summarizer answers a question with a short summary of live search results.
type Summarizer struct {
	searcher    Searcher
	llmProvider llm.LLMProvider
	maxResults  int
	logger      logger.ILogger
}

func NewSummarizer(searcher Searcher, llmProvider llm.LLMProvider, maxResults int, log logger.ILogger) *Summarizer {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &Summarizer{
		searcher:    searcher,
		llmProvider: llmProvider,
		maxResults:  maxResults,
		logger:      log,
	}
}

func (s *Summarizer) Answer(ctx context.Context, question string) string {
	return s.answer(ctx, question).Text
}

func (s *Summarizer) answer(ctx context.Context, question string) tools.Result {
	question = strings.TrimSpace(question)
	if question == "" {
		return tools.Fail("Error: empty query for " + ToolName + ".")
	}

	results, err := s.searcher.Search(ctx, question, s.maxResults)
	if err != nil {
		s.logger.Error("WEBSEARCH", "Search failed", map[string]interface{}{"error": err.Error()})
		return tools.Fail("Error while searching the web.")
	}
	s.logger.Info("WEBSEARCH", "Search completed", map[string]interface{}{"results": len(results)})

	summary, err := s.llmProvider.Generate(ctx, BuildSummaryPrompt(question, results), llm.WithTemperature(SummaryTemperature))
	if err != nil {
		s.logger.Error("WEBSEARCH", "Summary generation failed", map[string]interface{}{"error": err.Error()})
		return tools.Fail("Error while summarizing the web results.")
	}
	return tools.OK(strings.TrimSpace(summary))
}

func BuildSummaryPrompt(question string, results []Result) string {
	var prompt strings.Builder
	prompt.WriteString("You are an expert financial analyst. Write a short summary (3-4 sentences) ")
	prompt.WriteString("based on the following search results. Answer **in the same language as the Question**.\n\n")
	prompt.WriteString(fmt.Sprintf("Question: %s\n\n", question))
	prompt.WriteString("Search results:\n")
	prompt.WriteString(FormatResults(results))
	prompt.WriteString("\n\nConcise summary:")
	return prompt.String()
}

func (s *Summarizer) Tool() tools.Tool {
	return tools.NewFunc(ToolName, toolDescription, s.answer)
}
