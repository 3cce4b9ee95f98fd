package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/pkg/embedding"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/store"
	"ai-finance-assistant-be/pkg/utils"

	"github.com/google/uuid"
)

const batchSize = 64

// Extensions lists the file types IngestDir reads.
var Extensions = []string{".txt", ".md"}

type Config struct {
	ChunkSize int
	Overlap   int
}

func DefaultConfig() Config {
	return Config{ChunkSize: 1000, Overlap: 150}
}

// Stats summarizes one ingestion run.
type Stats struct {
	Files    int `json:"files"`
	Passages int `json:"passages"`
	Skipped  int `json:"skipped"`
}

// Ingester splits documents, embeds each chunk and writes it to the index.
type Ingester struct {
	embedder embedding.EmbeddingProvider
	writer   index.Writer
	config   Config
	logger   logger.ILogger
}

func NewIngester(embedder embedding.EmbeddingProvider, writer index.Writer, config Config, log logger.ILogger) *Ingester {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultConfig().ChunkSize
	}
	return &Ingester{embedder: embedder, writer: writer, config: config, logger: log}
}

// PassageID is stable for a given source and chunk position, so re-ingesting
// a document overwrites its previous passages.
func PassageID(source string, chunk int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s#%d", source, chunk))).String()
}

// IngestText replaces every passage of source with the chunks of text.
func (i *Ingester) IngestText(ctx context.Context, source, text string) (int, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, errors.New("source is required")
	}

	chunks := utils.SplitText(text, i.config.ChunkSize, i.config.Overlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	records := make([]index.Record, 0, len(chunks))
	for n, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		res, err := i.embedder.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			return 0, fmt.Errorf("embed %s chunk %d: %w", source, n, err)
		}
		records = append(records, index.Record{
			Passage: store.Passage{
				ID:       PassageID(source, n),
				Text:     chunk,
				Source:   source,
				Metadata: map[string]any{"chunk": n},
			},
			Vector: res.Embedding.Values,
		})
	}

	if m, err := i.writer.Manifest(ctx); err == nil {
		if err := index.CheckCompatible(m, i.embedder.Model(), len(records[0].Vector)); err != nil {
			return 0, err
		}
	} else if !errors.Is(err, index.ErrIndexUnavailable) {
		return 0, err
	}

	removed, err := i.writer.DeleteSource(ctx, source)
	if err != nil {
		return 0, fmt.Errorf("clear previous passages of %s: %w", source, err)
	}

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if err := i.writer.Upsert(ctx, i.embedder.Model(), records[start:end]); err != nil {
			return 0, fmt.Errorf("write %s: %w", source, err)
		}
	}

	i.logger.Info("INGEST", "Document indexed", map[string]interface{}{
		"source":   source,
		"passages": len(records),
		"replaced": removed,
	})
	return len(records), nil
}

// IngestDir indexes every supported file below dir. Sources are paths
// relative to dir. A file that fails is logged and counted as skipped; an
// embedding model mismatch or an index that cannot be written aborts the run.
func (i *Ingester) IngestDir(ctx context.Context, dir string) (*Stats, error) {
	stats := &Stats{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(path) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		n, err := i.IngestText(ctx, filepath.ToSlash(rel), string(content))
		if err != nil {
			if abortsRun(err) || ctx.Err() != nil {
				return err
			}
			i.logger.Error("INGEST", "Failed to index document", map[string]interface{}{"source": rel, "error": err.Error()})
			stats.Skipped++
			return nil
		}
		stats.Files++
		stats.Passages += n
		return nil
	})
	if err != nil {
		return stats, err
	}
	return stats, nil
}

func abortsRun(err error) bool {
	return errors.Is(err, index.ErrEmbeddingMismatch) ||
		errors.Is(err, index.ErrIndexLocked) ||
		errors.Is(err, index.ErrReadOnly)
}

func supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
