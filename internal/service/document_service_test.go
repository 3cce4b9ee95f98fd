package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-finance-assistant-be/internal/dto"
	"ai-finance-assistant-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIngester struct {
	mu      sync.Mutex
	sources []string
	err     error
	done    chan struct{}
}

func (r *recordingIngester) IngestText(_ context.Context, source, text string) (int, error) {
	r.mu.Lock()
	r.sources = append(r.sources, source)
	r.mu.Unlock()
	defer func() { r.done <- struct{}{} }()
	if r.err != nil {
		return 0, r.err
	}
	return len(text), nil
}

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	return pubSub
}

func TestDocumentQueue_EndToEnd(t *testing.T) {
	pubSub := newPubSub(t)
	ing := &recordingIngester{done: make(chan struct{}, 1)}
	log := logger.NewNopLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, NewConsumerService(pubSub, "INGEST_DOCUMENT", ing, log).Consume(ctx))

	docs := NewDocumentService(NewPublisherService("INGEST_DOCUMENT", pubSub), log)
	res, err := docs.Enqueue(ctx, &dto.IngestDocumentRequest{Source: " annual-2024.md ", Text: "Revenue grew 12%."})
	require.NoError(t, err)
	assert.Equal(t, &dto.IngestDocumentResponse{Source: "annual-2024.md", Queued: true}, res)

	select {
	case <-ing.done:
	case <-time.After(2 * time.Second):
		t.Fatal("document was not consumed")
	}
	assert.Equal(t, []string{"annual-2024.md"}, ing.sources)
}

func TestConsumer_FailedDocumentIsNotRedelivered(t *testing.T) {
	pubSub := newPubSub(t)
	ing := &recordingIngester{err: errors.New("embedding api down"), done: make(chan struct{}, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, NewConsumerService(pubSub, "T", ing, logger.NewNopLogger()).Consume(ctx))

	payload := `{"source":"a.md","text":"x"}`
	require.NoError(t, NewPublisherService("T", pubSub).Publish(ctx, []byte(payload)))

	<-ing.done
	time.Sleep(50 * time.Millisecond)
	ing.mu.Lock()
	defer ing.mu.Unlock()
	assert.Len(t, ing.sources, 1)
}
