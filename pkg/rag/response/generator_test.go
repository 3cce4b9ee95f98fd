package response

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/llm"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/rag/search"
	"ai-finance-assistant-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRetriever struct {
	passages []store.Passage
	err      error
	config   search.Config
}

func (f *fakeRetriever) Execute(_ context.Context, _ string, config search.Config) ([]store.Passage, error) {
	f.config = config
	return f.passages, f.err
}

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
	temps   []float64
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	o := llm.ApplyOptions(llm.Options{Temperature: -1}, opts...)
	f.temps = append(f.temps, o.Temperature)
	f.prompts = append(f.prompts, history[len(history)-1].Content)
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func newGenerator(r *fakeRetriever, l *fakeLLM) *Generator {
	return NewGenerator(l, r, search.Config{TopK: 4}, logger.NewNopLogger())
}

func TestAnswer_GroundedPromptKeepsOrderAndSeparator(t *testing.T) {
	r := &fakeRetriever{passages: []store.Passage{
		{ID: "a", Text: "Revenue was $60.9B."},
		{ID: "b", Text: "Gross margin was 72.7%."},
	}}
	l := &fakeLLM{reply: "Revenue was $60.9 billion."}

	got := newGenerator(r, l).Answer(context.Background(), "What was NVIDIA's revenue?")
	assert.Equal(t, "Revenue was $60.9 billion.", got)
	assert.Equal(t, 4, r.config.TopK)

	require.Len(t, l.prompts, 1)
	prompt := l.prompts[0]
	assert.Contains(t, prompt, "Revenue was $60.9B.\n\n---\n\nGross margin was 72.7%.")
	assert.Contains(t, prompt, NotFound)
	assert.Contains(t, prompt, "same language as the Question")
	assert.Contains(t, prompt, "Question: What was NVIDIA's revenue?")
	assert.Equal(t, []float64{0}, l.temps)
}

func TestAnswer_NoPassagesShortCircuits(t *testing.T) {
	l := &fakeLLM{reply: "made up"}
	got := newGenerator(&fakeRetriever{}, l).Answer(context.Background(), "Who audits the company?")
	assert.Equal(t, NotFound, got)
	assert.Empty(t, l.prompts)
}

func TestAnswer_NotFoundIsNormalised(t *testing.T) {
	r := &fakeRetriever{passages: []store.Passage{{Text: "Water usage fell 5%."}}}
	l := &fakeLLM{reply: "  'I could not find the information in the provided documents'\n"}

	got := newGenerator(r, l).Answer(context.Background(), "Who is the CFO?")
	assert.Equal(t, NotFound, got)
}

func TestAnswer_PartialAnswerKeepsGroundedPart(t *testing.T) {
	r := &fakeRetriever{passages: []store.Passage{{Text: "Water usage fell 5% in 2023."}}}
	reply := "Water usage fell 5% in 2023. I could not find the information in the provided documents for 2024."
	l := &fakeLLM{reply: reply}

	got := newGenerator(r, l).Answer(context.Background(), "How did water usage change in 2023 and 2024?")
	assert.Equal(t, reply, got)
}

func TestAnswer_IndexUnavailableIsDistinguishable(t *testing.T) {
	r := &fakeRetriever{err: fmt.Errorf("open: %w", index.ErrIndexUnavailable)}
	got := newGenerator(r, &fakeLLM{}).Answer(context.Background(), "revenue?")

	assert.Equal(t, IndexUnavailable, got)
	assert.NotEqual(t, NotFound, got)
	assert.True(t, strings.HasPrefix(got, "Error:"))
}

func TestTool_FailuresAreMarked(t *testing.T) {
	ctx := context.Background()

	res := newGenerator(&fakeRetriever{err: index.ErrIndexUnavailable}, &fakeLLM{}).Tool().Invoke(ctx, "q")
	assert.True(t, res.Failed)

	res = newGenerator(&fakeRetriever{err: index.ErrEmbeddingMismatch}, &fakeLLM{}).Tool().Invoke(ctx, "q")
	assert.True(t, res.Failed)
	assert.Contains(t, res.Text, "embedding model")

	r := &fakeRetriever{passages: []store.Passage{{Text: "x"}}}
	res = newGenerator(r, &fakeLLM{err: errors.New("timeout")}).Tool().Invoke(ctx, "q")
	assert.True(t, res.Failed)

	res = newGenerator(r, &fakeLLM{reply: "ok"}).Tool().Invoke(ctx, "q")
	assert.False(t, res.Failed)
	assert.Equal(t, "ok", res.Text)

	res = newGenerator(r, &fakeLLM{}).Tool().Invoke(ctx, "   ")
	assert.True(t, res.Failed)

	assert.Equal(t, ToolName, newGenerator(r, &fakeLLM{}).Tool().Name())
}

func TestNormalizeAnswer(t *testing.T) {
	assert.Equal(t, NotFound, NormalizeAnswer(""))
	assert.Equal(t, NotFound, NormalizeAnswer("i could not find the information in the provided documents"))
	assert.Equal(t, "Revenue grew 126%.", NormalizeAnswer("  Revenue grew 126%.\n"))
	assert.Equal(t, NotFound, NormalizeAnswer(`"I could not find the information in the provided documents!"`))

	partial := "Revenue was $26B in Q1. I could not find the information in the provided documents for Q2."
	assert.Equal(t, partial, NormalizeAnswer(partial))
}
