package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Agent    AgentConfig
	Search   SearchConfig
	Index    IndexConfig
	Market   MarketConfig
	Timeouts TimeoutConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	IngestTopic        string
}

type DatabaseConfig struct {
	Connection   string
	MaxOpenConns int
	MaxIdleConns int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool
}

type AIConfig struct {
	LLMProvider       string // "openai", "ollama", "huggingface"
	LLMModel          string
	LLMBaseURL        string
	LLMAPIKey         string
	EmbeddingProvider string // "openai", "ollama", "gemini", "jina"
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
}

type AgentConfig struct {
	MaxSteps       int
	CreatorName    string
	EmailSignature string
}

type SearchConfig struct {
	TavilyAPIKey string
	MaxResults   int
}

type IndexConfig struct {
	Backend     string // "badger" or "pgvector"
	PersistPath string
	DocsDir     string
	TopK        int
	ChunkSize   int
	Overlap     int
	ReadOnly    bool // query processes open the badger index read-only
}

type MarketConfig struct {
	BaseURL        string
	RequestsPerSec float64
	CacheTTL       time.Duration
}

type TimeoutConfig struct {
	LLM        time.Duration
	Embedding  time.Duration
	WebSearch  time.Duration
	MarketData time.Duration
	SMTP       time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	llmKey := getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", ""))
	smtpUser := getEnv("SMTP_USER", "")
	smtpFrom := getEnv("SMTP_FROM", "")
	if smtpFrom == "" {
		smtpFrom = smtpUser
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/turns.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			IngestTopic:        getEnv("INGEST_TOPIC_NAME", "INGEST_DOCUMENT"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: smtpUser,
			Password: getEnv("SMTP_PASS", ""),
			From:     smtpFrom,
			TLS:      getEnvAsBool("SMTP_TLS", true),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
			LLMModel:          getEnv("MODEL_NAME", "gpt-4o-mini"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:         llmKey,
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", llmKey),
		},
		Agent: AgentConfig{
			MaxSteps:       getEnvAsInt("AGENT_MAX_STEPS", 8),
			CreatorName:    getEnv("CREATOR_NAME", "Diallo Mamadou Cherif"),
			EmailSignature: getEnv("EMAIL_SIGNATURE", ""),
		},
		Search: SearchConfig{
			TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),
			MaxResults:   getEnvAsInt("SEARCH_MAX_RESULTS", 3),
		},
		Index: IndexConfig{
			Backend:     getEnv("VECTORSTORE_BACKEND", "badger"),
			PersistPath: getEnv("PERSIST_PATH", "vectorstore"),
			DocsDir:     getEnv("DOCS_DIR", "data/docs"),
			TopK:        getEnvAsInt("RAG_TOP_K", 4),
			ChunkSize:   getEnvAsInt("CHUNK_SIZE", 1000),
			Overlap:     getEnvAsInt("CHUNK_OVERLAP", 150),
			ReadOnly:    getEnvAsBool("VECTORSTORE_READ_ONLY", true),
		},
		Market: MarketConfig{
			BaseURL:        getEnv("MARKET_BASE_URL", "https://query2.finance.yahoo.com"),
			RequestsPerSec: getEnvAsFloat("MARKET_REQUESTS_PER_SEC", 2),
			CacheTTL:       getEnvAsDuration("MARKET_CACHE_TTL", 5*time.Minute),
		},
		Timeouts: TimeoutConfig{
			LLM:        getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
			Embedding:  getEnvAsDuration("EMBEDDING_TIMEOUT", 20*time.Second),
			WebSearch:  getEnvAsDuration("WEB_SEARCH_TIMEOUT", 15*time.Second),
			MarketData: getEnvAsDuration("MARKET_TIMEOUT", 10*time.Second),
			SMTP:       getEnvAsDuration("SMTP_TIMEOUT", 30*time.Second),
		},
	}
}

// Validate reports every missing setting the assistant cannot start without.
// Mail settings are not checked here: they only fail sends.
func (c *Config) Validate() error {
	var missing []string
	if c.Ai.LLMProvider != "ollama" && c.Ai.LLMAPIKey == "" {
		missing = append(missing, "LLM_API_KEY")
	}
	if c.Search.TavilyAPIKey == "" {
		missing = append(missing, "TAVILY_API_KEY")
	}
	if c.Index.Backend == "pgvector" && c.Database.Connection == "" {
		missing = append(missing, "DB_CONNECTION_STRING")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("AGENT_MAX_STEPS must be positive, got %d", c.Agent.MaxSteps)
	}
	if c.Index.TopK <= 0 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.Index.TopK)
	}
	return nil
}

// Validate names every SMTP setting that is not configured.
func (s SMTPConfig) Validate() error {
	var missing []string
	if s.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if s.Port <= 0 {
		missing = append(missing, "SMTP_PORT")
	}
	if s.Username == "" {
		missing = append(missing, "SMTP_USER")
	}
	if s.Password == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if s.From == "" {
		missing = append(missing, "SMTP_FROM")
	}
	if len(missing) > 0 {
		return fmt.Errorf("SMTP configuration incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
