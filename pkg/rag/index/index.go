package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"ai-finance-assistant-be/pkg/store"
)

var (
	// ErrIndexUnavailable means no index has been built yet or it cannot be opened.
	ErrIndexUnavailable = errors.New("document index unavailable")

	// ErrEmbeddingMismatch means the index was built with a different embedding model.
	ErrEmbeddingMismatch = errors.New("embedding model does not match index")
)

// Manifest records how an index was built.
type Manifest struct {
	EmbeddingModel string    `json:"embedding_model" msgpack:"embedding_model"`
	Dimension      int       `json:"dimension" msgpack:"dimension"`
	Passages       int       `json:"passages" msgpack:"passages"`
	UpdatedAt      time.Time `json:"updated_at" msgpack:"updated_at"`
}

// Record is a passage with its embedding vector.
type Record struct {
	Passage store.Passage `msgpack:"passage"`
	Vector  []float32     `msgpack:"vector"`
}

// Index answers nearest-neighbour queries over ingested passages.
type Index interface {
	// Manifest returns ErrIndexUnavailable when nothing has been indexed.
	Manifest(ctx context.Context) (*Manifest, error)

	// Search returns at most k passages ordered by decreasing similarity.
	Search(ctx context.Context, vector []float32, k int) ([]store.Passage, error)
}

// Writer is implemented by backends that accept new passages.
type Writer interface {
	Index

	// Upsert stores records embedded with model. The first write fixes the
	// model and dimension for the lifetime of the index.
	Upsert(ctx context.Context, model string, records []Record) error

	// DeleteSource removes every passage whose Source equals source.
	DeleteSource(ctx context.Context, source string) (int, error)
}

// CheckCompatible rejects writes or queries made with another model or dimension.
func CheckCompatible(m *Manifest, model string, dim int) error {
	if m.EmbeddingModel != "" && m.EmbeddingModel != model {
		return fmt.Errorf("%w: index built with %q, got %q", ErrEmbeddingMismatch, m.EmbeddingModel, model)
	}
	if m.Dimension != 0 && dim != 0 && m.Dimension != dim {
		return fmt.Errorf("%w: index dimension %d, got %d", ErrEmbeddingMismatch, m.Dimension, dim)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or their lengths differ.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// topK keeps the k best scored passages, ties broken by ID for stable output.
func topK(passages []store.Passage, k int) []store.Passage {
	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].ID < passages[j].ID
	})
	if len(passages) > k {
		passages = passages[:k]
	}
	return passages
}
