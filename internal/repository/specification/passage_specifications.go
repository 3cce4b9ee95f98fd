package specification

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BySource filters passages of one ingested document.
type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

// NearestTo orders passages by cosine distance to Vector and keeps Limit
// rows. It also selects the similarity (1 - distance).
type NearestTo struct {
	Vector []float32
	Limit  int
}

func (s NearestTo) Apply(db *gorm.DB) *gorm.DB {
	v := pgvector.NewVector(s.Vector)
	return db.
		Select("document_passages.*, 1 - (embedding_value <=> ?) AS similarity", v).
		Order(clause.OrderBy{Expression: clause.Expr{SQL: "embedding_value <=> ?", Vars: []interface{}{v}}}).
		Limit(s.Limit)
}

// Apply folds specs over db in order.
func Apply(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, s := range specs {
		db = s.Apply(db)
	}
	return db
}
