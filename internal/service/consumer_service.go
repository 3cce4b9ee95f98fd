package service

import (
	"context"
	"encoding/json"
	"errors"

	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// DocumentIngester is the pipeline a queued document goes through.
type DocumentIngester interface {
	IngestText(ctx context.Context, source, text string) (int, error)
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	ingester   DocumentIngester
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	ingester DocumentIngester,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		ingester:   ingester,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("INGEST", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // malformed messages are never retried
		return
	}

	n, err := cs.ingester.IngestText(msg.Context(), payload.Source, payload.Text)
	if err != nil {
		cs.logger.Error("INGEST", "Failed to index document", map[string]interface{}{
			"source": payload.Source,
			"error":  err.Error(),
		})
		// gochannel redelivers a nacked message at once, so only a cancelled
		// context is worth another attempt
		if errors.Is(err, context.Canceled) {
			msg.Nack()
			return
		}
		msg.Ack()
		return
	}

	cs.logger.Info("INGEST", "Document processed", map[string]interface{}{"source": payload.Source, "passages": n})
	msg.Ack()
}
