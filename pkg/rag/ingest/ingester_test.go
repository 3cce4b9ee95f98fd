package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/embedding"
	"ai-finance-assistant-be/pkg/rag/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder maps text onto two axes: revenue and debt.
type keywordEmbedder struct {
	model string
	tasks []string
}

func (k *keywordEmbedder) Generate(_ context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	k.tasks = append(k.tasks, taskType)
	lower := strings.ToLower(text)
	v := []float32{0.01, 0.01}
	if strings.Contains(lower, "revenue") {
		v[0] = 1
	}
	if strings.Contains(lower, "debt") {
		v[1] = 1
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: v}}, nil
}

func (k *keywordEmbedder) Model() string { return k.model }

func openMem(t *testing.T) *index.BadgerIndex {
	t.Helper()
	idx, err := index.OpenBadger(index.BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIngestText_ReplacesPreviousPassages(t *testing.T) {
	idx := openMem(t)
	emb := &keywordEmbedder{model: "kw"}
	ing := NewIngester(emb, idx, Config{ChunkSize: 40, Overlap: 0}, logger.NewNopLogger())
	ctx := context.Background()

	n, err := ing.IngestText(ctx, "q1.md", strings.Repeat("Revenue grew strongly this quarter. ", 4))
	require.NoError(t, err)
	assert.Greater(t, n, 1)
	assert.Equal(t, embedding.TaskRetrievalDocument, emb.tasks[0])

	m, err := idx.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, n, m.Passages)
	assert.Equal(t, "kw", m.EmbeddingModel)
	assert.Equal(t, 2, m.Dimension)

	n2, err := ing.IngestText(ctx, "q1.md", "Debt was reduced.")
	require.NoError(t, err)
	assert.Equal(t, 1, n2)

	m, err = idx.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Passages)

	got, err := idx.Search(ctx, []float32{0, 1}, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, PassageID("q1.md", 0), got[0].ID)
	assert.Equal(t, "q1.md", got[0].Source)
}

func TestIngestText_RejectsOtherModel(t *testing.T) {
	idx := openMem(t)
	ctx := context.Background()

	_, err := NewIngester(&keywordEmbedder{model: "a"}, idx, DefaultConfig(), logger.NewNopLogger()).IngestText(ctx, "x.md", "revenue")
	require.NoError(t, err)

	_, err = NewIngester(&keywordEmbedder{model: "b"}, idx, DefaultConfig(), logger.NewNopLogger()).IngestText(ctx, "y.md", "debt")
	assert.ErrorIs(t, err, index.ErrEmbeddingMismatch)
}

func TestIngestText_Validation(t *testing.T) {
	ing := NewIngester(&keywordEmbedder{model: "kw"}, openMem(t), DefaultConfig(), logger.NewNopLogger())

	_, err := ing.IngestText(context.Background(), " ", "text")
	assert.Error(t, err)

	n, err := ing.IngestText(context.Background(), "empty.md", "   ")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reports"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reports", "q1.md"), []byte("Revenue: 10M"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("Debt: 2M"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89, 0x50}, 0o644))

	idx := openMem(t)
	ing := NewIngester(&keywordEmbedder{model: "kw"}, idx, DefaultConfig(), logger.NewNopLogger())

	stats, err := ing.IngestDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Files: 2, Passages: 2}, stats)

	got, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "reports/q1.md", got[0].Source)
}

func TestIngestDir_StopsOnReadOnlyIndex(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.md"), []byte("Revenue: 10M"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "b.md"), []byte("Debt: 2M"), 0o644))

	store := t.TempDir()
	w, err := index.OpenBadger(index.BadgerOptions{Dir: store})
	require.NoError(t, err)
	_, err = NewIngester(&keywordEmbedder{model: "kw"}, w, DefaultConfig(), logger.NewNopLogger()).
		IngestText(context.Background(), "seed.md", "Revenue")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	ro, err := index.OpenBadger(index.BadgerOptions{Dir: store, ReadOnly: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ro.Close() })

	ing := NewIngester(&keywordEmbedder{model: "kw"}, ro, DefaultConfig(), logger.NewNopLogger())
	stats, err := ing.IngestDir(context.Background(), docs)
	assert.ErrorIs(t, err, index.ErrReadOnly)
	assert.Equal(t, 0, stats.Files)
	assert.Equal(t, 0, stats.Skipped)
}

func TestPassageIDIsStable(t *testing.T) {
	assert.Equal(t, PassageID("a.md", 3), PassageID("a.md", 3))
	assert.NotEqual(t, PassageID("a.md", 3), PassageID("a.md", 4))
}
