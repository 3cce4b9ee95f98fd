package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/controller"
	"ai-finance-assistant-be/internal/pkg/logger"
	"ai-finance-assistant-be/internal/pkg/mailer"
	"ai-finance-assistant-be/internal/repository/memory"
	"ai-finance-assistant-be/internal/service"
	"ai-finance-assistant-be/pkg/agent"
	"ai-finance-assistant-be/pkg/ai/router"
	"ai-finance-assistant-be/pkg/embedding"
	embeddingFactory "ai-finance-assistant-be/pkg/embedding/factory"
	"ai-finance-assistant-be/pkg/llm"
	llmFactory "ai-finance-assistant-be/pkg/llm/factory"
	"ai-finance-assistant-be/pkg/marketdata"
	"ai-finance-assistant-be/pkg/rag/index"
	"ai-finance-assistant-be/pkg/rag/ingest"
	"ai-finance-assistant-be/pkg/rag/response"
	ragSearch "ai-finance-assistant-be/pkg/rag/search"
	"ai-finance-assistant-be/pkg/search"
	"ai-finance-assistant-be/pkg/tools"

	pktNats "ai-finance-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Services shared by the HTTP server and the terminal shell
	AssistantService service.IAssistantService
	Sessions         *memory.SessionRepository
	Tools            *tools.Registry

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger *logger.ZapLogger
	Index  index.Index

	closers []func() error
}

// Providers are the model backends the container wires. Tests inject fakes;
// NewContainer builds them from configuration.
type Providers struct {
	LLM       llm.LLMProvider
	Embedding embedding.EmbeddingProvider
	Searcher  search.Searcher
	Market    marketdata.Provider
	Mailer    tools.Mailer
	Index     *IndexHandle
	Publisher service.EventPublisher // optional
}

// NewContainer validates configuration and builds every dependency. Missing
// fatal settings are reported before any client is created.
func NewContainer(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	llmProvider, err := llmFactory.NewLLMProvider(llmFactory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
		Timeout:  cfg.Timeouts.LLM,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	embeddingProvider, err := NewEmbeddingProvider(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Using Embedding Provider: %s", embeddingProvider.Model())

	idx, err := OpenIndex(cfg, sysLogger, cfg.Index.ReadOnly)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	var cache marketdata.Cache = marketdata.NewMemoryCache(cfg.Market.CacheTTL)
	if cfg.App.RedisURL != "" {
		rdb, err := marketdata.NewRedisClient(context.Background(), cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Using in-process cache", err)
		} else {
			cache = marketdata.NewRedisCache(rdb)
			closers = append(closers, rdb.Close)
		}
	}
	market := marketdata.NewCachedProvider(
		marketdata.NewYahooClient(cfg.Market.BaseURL, cfg.Timeouts.MarketData, cfg.Market.RequestsPerSec),
		cache,
		cfg.Market.CacheTTL,
	)

	var publisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
			closers = append(closers, func() error { natsPub.Close(); return nil })
		}
	}

	c, err := Assemble(cfg, sysLogger, Providers{
		LLM:       llmProvider,
		Embedding: embeddingProvider,
		Searcher:  search.NewTavilyClient(cfg.Search.TavilyAPIKey, "", cfg.Timeouts.WebSearch),
		Market:    market,
		Mailer:    mailer.NewEmailService(cfg.SMTP, cfg.Timeouts.SMTP, sysLogger),
		Index:     idx,
		Publisher: publisher,
	})
	if err != nil {
		for _, closeFn := range closers {
			_ = closeFn()
		}
		_ = idx.Close()
		return nil, err
	}
	c.closers = append(closers, c.closers...)

	return c, nil
}

// NewEmbeddingProvider builds the configured embedding backend.
func NewEmbeddingProvider(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	p, err := embeddingFactory.NewEmbeddingProvider(embeddingFactory.Config{
		Provider: cfg.Ai.EmbeddingProvider,
		Model:    cfg.Ai.EmbeddingModel,
		BaseURL:  cfg.Ai.EmbeddingBaseURL,
		APIKey:   cfg.Ai.EmbeddingAPIKey,
		Timeout:  cfg.Timeouts.Embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize embedding provider: %w", err)
	}
	return p, nil
}

// Assemble wires services and controllers around already built providers.
func Assemble(cfg *config.Config, sysLogger *logger.ZapLogger, p Providers) (*Container, error) {
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	// Tools
	retriever := ragSearch.NewOrchestrator(p.Embedding, p.Index.Index, sysLogger)
	docQA := response.NewGenerator(p.LLM, retriever, ragSearch.Config{TopK: cfg.Index.TopK}, sysLogger)
	webSearch := search.NewSummarizer(p.Searcher, p.LLM, cfg.Search.MaxResults, sysLogger)

	registry := tools.NewRegistry()
	for _, t := range []tools.Tool{
		docQA.Tool(),
		webSearch.Tool(),
		tools.NewStockData(p.Market),
		tools.NewCalculator(),
		tools.NewDraftEmail(cfg.Agent.EmailSignature),
		tools.NewSendEmail(p.Mailer),
	} {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("register tool: %w", err)
		}
	}

	// Agent
	sessionRepo := memory.NewSessionRepository()
	reactAgent, err := agent.NewAgent(p.LLM, registry, agent.Config{
		MaxSteps:    cfg.Agent.MaxSteps,
		CreatorName: cfg.Agent.CreatorName,
	}, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("initialize agent: %w", err)
	}

	assistantService := service.NewAssistantService(service.AssistantDeps{
		Router:      router.NewRouter(p.LLM, sysLogger),
		Agent:       agent.WithMemory(reactAgent, sessionRepo),
		Sessions:    sessionRepo,
		Tools:       registry,
		Publisher:   p.Publisher,
		Logger:      sysLogger,
		AuditLogger: auditLogger,
		CreatorName: cfg.Agent.CreatorName,
	})

	// Ingestion queue
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 16},
		watermill.NewStdLogger(false, false),
	)
	ingester := ingest.NewIngester(p.Embedding, p.Index.Index, ingest.Config{
		ChunkSize: cfg.Index.ChunkSize,
		Overlap:   cfg.Index.Overlap,
	}, sysLogger)
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.IngestTopic, ingester, sysLogger)
	documentService := service.NewDocumentService(publisherService, sysLogger)
	if p.Index.ReadOnly {
		documentService = service.NewReadOnlyDocumentService()
	}

	return &Container{
		ChatController:     controller.NewChatController(assistantService),
		DocumentController: controller.NewDocumentController(documentService),

		AssistantService: assistantService,
		Sessions:         sessionRepo,
		Tools:            registry,

		ConsumerService: consumerService,

		Logger: sysLogger,
		Index:  p.Index.Index,

		closers: []func() error{
			p.Index.Close,
			pubSub.Close,
			func() error { _ = auditLogger.Sync(); _ = sysLogger.Sync(); return nil },
		},
	}, nil
}

// Health reports the state of the retrieval index and the session store.
func (c *Container) Health(ctx context.Context) map[string]interface{} {
	out := map[string]interface{}{
		"sessions": c.Sessions.Count(),
		"tools":    c.Tools.Names(),
	}
	m, err := c.Index.Manifest(ctx)
	switch {
	case err == nil:
		out["index"] = m
	case errors.Is(err, index.ErrIndexUnavailable):
		out["index"] = "unavailable"
	default:
		out["index"] = err.Error()
	}
	return out
}

// Close releases every resource in reverse creation order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
