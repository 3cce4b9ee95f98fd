package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-finance-assistant-be/internal/model"
	"ai-finance-assistant-be/internal/repository/specification"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PassageRepositoryImpl is the Postgres/pgvector document index.
type PassageRepositoryImpl struct {
	db *gorm.DB
}

var _ index.Writer = (*PassageRepositoryImpl)(nil)

func NewPassageRepository(db *gorm.DB) *PassageRepositoryImpl {
	return &PassageRepositoryImpl{db: db}
}

func (r *PassageRepositoryImpl) Manifest(ctx context.Context) (*index.Manifest, error) {
	var row struct {
		EmbeddingModel *string
		Dimension      *int
		Passages       int
		UpdatedAt      *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&model.DocumentPassage{}).
		Select("MIN(embedding_model) AS embedding_model, MAX(vector_dims(embedding_value)) AS dimension, COUNT(*) AS passages, MAX(updated_at) AS updated_at").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.Passages == 0 {
		return nil, index.ErrIndexUnavailable
	}

	m := &index.Manifest{Passages: row.Passages}
	if row.EmbeddingModel != nil {
		m.EmbeddingModel = *row.EmbeddingModel
	}
	if row.Dimension != nil {
		m.Dimension = *row.Dimension
	}
	if row.UpdatedAt != nil {
		m.UpdatedAt = *row.UpdatedAt
	}
	return m, nil
}

func (r *PassageRepositoryImpl) Search(ctx context.Context, vector []float32, k int) ([]store.Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	// Cosine distance in pgvector is 1 - cosine similarity.
	type result struct {
		model.DocumentPassage
		Similarity float64
	}
	var results []result

	query := r.db.WithContext(ctx).Table("document_passages")
	err := specification.Apply(query, specification.NearestTo{Vector: vector, Limit: k}).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	passages := make([]store.Passage, 0, len(results))
	for _, res := range results {
		p := store.Passage{
			ID:     res.PassageKey,
			Text:   res.Document,
			Source: res.Source,
			Score:  float32(res.Similarity),
		}
		if len(res.Metadata) > 0 {
			_ = json.Unmarshal(res.Metadata, &p.Metadata)
		}
		passages = append(passages, p)
	}
	return passages, nil
}

func (r *PassageRepositoryImpl) Upsert(ctx context.Context, embeddingModel string, records []index.Record) error {
	if len(records) == 0 {
		return nil
	}
	dim := len(records[0].Vector)

	current, err := r.Manifest(ctx)
	if err == nil {
		if err := index.CheckCompatible(current, embeddingModel, dim); err != nil {
			return err
		}
	} else if !errors.Is(err, index.ErrIndexUnavailable) {
		return err
	}

	models := make([]*model.DocumentPassage, len(records))
	for i, rec := range records {
		if len(rec.Vector) != dim {
			return fmt.Errorf("%w: mixed vector dimensions %d and %d", index.ErrEmbeddingMismatch, dim, len(rec.Vector))
		}
		meta, err := json.Marshal(rec.Passage.Metadata)
		if err != nil {
			return err
		}
		models[i] = &model.DocumentPassage{
			PassageKey:     rec.Passage.ID,
			Source:         rec.Passage.Source,
			Document:       rec.Passage.Text,
			Metadata:       meta,
			EmbeddingModel: embeddingModel,
			EmbeddingValue: pgvector.NewVector(rec.Vector),
		}
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "passage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"source", "document", "metadata", "embedding_model", "embedding_value", "updated_at"}),
		}).
		Create(models).Error
}

func (r *PassageRepositoryImpl) DeleteSource(ctx context.Context, source string) (int, error) {
	query := specification.Apply(r.db.WithContext(ctx), specification.BySource{Source: source})
	res := query.Delete(&model.DocumentPassage{})
	return int(res.RowsAffected), res.Error
}
