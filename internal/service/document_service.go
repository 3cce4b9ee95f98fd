package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/pkg/logger"
)

type IDocumentService interface {
	// Enqueue schedules a document for indexing and returns immediately.
	Enqueue(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
}

// ErrIngestionDisabled is returned when the process opened the index read-only.
var ErrIngestionDisabled = errors.New("document ingestion is disabled: the index is open read-only (set VECTORSTORE_READ_ONLY=false or use cmd/ingest)")

type documentService struct {
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewDocumentService(publisherService IPublisherService, log logger.ILogger) IDocumentService {
	return &documentService{publisherService: publisherService, logger: log}
}

func (s *documentService) Enqueue(ctx context.Context, request *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	source := strings.TrimSpace(request.Source)
	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{Source: source, Text: request.Text})
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, fmt.Errorf("queue document %s: %w", source, err)
	}

	s.logger.Info("INGEST", "Document queued", map[string]interface{}{"source": source, "length": len(request.Text)})
	return &dto.IngestDocumentResponse{Source: source, Queued: true}, nil
}

type readOnlyDocumentService struct{}

// NewReadOnlyDocumentService rejects every document with ErrIngestionDisabled.
func NewReadOnlyDocumentService() IDocumentService {
	return readOnlyDocumentService{}
}

func (readOnlyDocumentService) Enqueue(context.Context, *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	return nil, ErrIngestionDisabled
}
