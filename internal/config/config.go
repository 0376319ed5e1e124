package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Embedding providers.
const (
	ProviderHashing = "hashing"
	ProviderOpenAI  = "openai"
)

type Config struct {
	Port string

	// Auth for the HTTP API
	APIKey string

	// Embedding provider
	EmbeddingProvider   string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDim        int
	EmbeddingMaxTokens  int
	EmbeddingMaxRetries int
	EmbeddingStatsTTL   time.Duration

	// Analysis
	DefaultPersona     string
	DefaultJob         string
	LexiconPath        string
	MaxConcurrentEmbed int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64
	MaxBatchFiles  int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCPERSONA_API_KEY"),

		EmbeddingProvider:   strings.ToLower(envOr("EMBEDDING_PROVIDER", "")),
		EmbeddingAPIKey:     envOr("EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY")),
		EmbeddingBaseURL:    os.Getenv("EMBEDDING_BASE_URL"),
		EmbeddingModel:      envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:        envInt("EMBEDDING_DIM", 384),
		EmbeddingMaxTokens:  envInt("EMBEDDING_MAX_TOKENS", 8000),
		EmbeddingMaxRetries: envInt("EMBEDDING_MAX_RETRIES", 3),
		EmbeddingStatsTTL:   envDuration("EMBEDDING_STATS_WINDOW", 1*time.Hour),

		DefaultPersona:     envOr("PERSONA", "General Researcher"),
		DefaultJob:         envOr("JOB", "Extract relevant information from documents"),
		LexiconPath:        os.Getenv("LEXICON_PATH"),
		MaxConcurrentEmbed: envInt("MAX_CONCURRENT_EMBED", 4),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 50),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB per batch
		MaxBatchFiles:  envInt("MAX_BATCH_FILES", 50),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	// Without an explicit provider, a key selects the remote model.
	if cfg.EmbeddingProvider == "" {
		cfg.EmbeddingProvider = ProviderHashing
		if cfg.EmbeddingAPIKey != "" {
			cfg.EmbeddingProvider = ProviderOpenAI
		}
	}

	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = 384
	}
	if cfg.EmbeddingMaxTokens <= 0 {
		cfg.EmbeddingMaxTokens = 8000
	}
	if cfg.EmbeddingMaxRetries <= 0 {
		cfg.EmbeddingMaxRetries = 3
	}
	if cfg.EmbeddingStatsTTL <= 0 {
		cfg.EmbeddingStatsTTL = 1 * time.Hour
	}
	if cfg.MaxConcurrentEmbed <= 0 {
		cfg.MaxConcurrentEmbed = 4
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = 50
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings needed by the analysis pipeline.
func (c Config) Validate() error {
	switch c.EmbeddingProvider {
	case ProviderHashing:
	case ProviderOpenAI:
		if c.EmbeddingAPIKey == "" {
			return fmt.Errorf("EMBEDDING_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}
	return nil
}

// ValidateServer additionally checks settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCPERSONA_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
