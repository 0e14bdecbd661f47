// Package config loads service settings from the environment. Every
// knob has a default so a bare `vanban parse` works out of the box;
// Validate enforces the few settings the server cannot run without.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIToken string

	// Filesystem layout
	InputDir  string
	OutputDir string

	// Document registry (SQLite)
	RegistryPath string

	// Qdrant connection
	QdrantURL    string
	QdrantAPIKey string
	Collection   string

	// Embeddings
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	EmbedModel     string
	EmbedDimension int
	EmbedRPS       float64
	EmbedBurst     int

	// Indexing
	IndexEnabled   bool
	IndexBatchSize int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Chunking
	ChunkRuneLimit int

	// Optional data files
	EffectiveDatesPath string
	GrammarOverrides   string

	// Job state
	JobTTL time.Duration

	// Retrieval
	SearchTopK     int
	SearchCacheTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIToken: os.Getenv("VANBAN_API_TOKEN"),

		InputDir:  envOr("INPUT_DIR", "data"),
		OutputDir: envOr("OUTPUT_DIR", "out"),

		RegistryPath: envOr("REGISTRY_PATH", "vanban.db"),

		QdrantURL:    envOr("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey: os.Getenv("QDRANT_API_KEY"),
		Collection:   envOr("QDRANT_COLLECTION", "vanban_chunks"),

		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		EmbedModel:     envOr("EMBED_MODEL", "text-embedding-3-small"),
		EmbedDimension: envInt("EMBED_DIMENSION", 1536),
		EmbedRPS:       envFloat("EMBED_RPS", 0),
		EmbedBurst:     envInt("EMBED_BURST", 1),

		IndexEnabled:   envBool("INDEX_ENABLED", false),
		IndexBatchSize: envInt("INDEX_BATCH_SIZE", 64),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkRuneLimit: envInt("CHUNK_RUNE_LIMIT", 600),

		EffectiveDatesPath: os.Getenv("EFFECTIVE_DATES_PATH"),
		GrammarOverrides:   os.Getenv("GRAMMAR_OVERRIDES"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		SearchTopK:     envInt("SEARCH_TOP_K", 5),
		SearchCacheTTL: envDuration("SEARCH_CACHE_TTL", 5*time.Minute),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.ChunkRuneLimit <= 0 {
		cfg.ChunkRuneLimit = 600
	}
	if cfg.EmbedDimension <= 0 {
		cfg.EmbedDimension = 1536
	}
	if cfg.IndexBatchSize <= 0 {
		cfg.IndexBatchSize = 64
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.SearchTopK <= 0 {
		cfg.SearchTopK = 5
	}

	return cfg
}

// Validate checks the settings the HTTP server requires. Batch parsing
// without indexing needs none of them.
func (c Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("VANBAN_API_TOKEN is required")
	}
	if c.RegistryPath == "" {
		return fmt.Errorf("REGISTRY_PATH is required")
	}
	if c.IndexEnabled && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when INDEX_ENABLED is set")
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
