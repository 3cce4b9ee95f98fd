package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentPassage struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PassageKey     string          `gorm:"type:varchar(128);not null;uniqueIndex"`
	Source         string          `gorm:"type:text;not null;index"`
	Document       string          `gorm:"type:text"`
	Metadata       datatypes.JSON  `gorm:"type:jsonb"`
	EmbeddingModel string          `gorm:"type:varchar(128);not null"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector"` // dimension depends on the embedding model
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (DocumentPassage) TableName() string {
	return "document_passages"
}
