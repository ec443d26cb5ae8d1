package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMModel      string
	LLMTimeout    time.Duration
	LLMRPM        int

	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingBatchSize  int
	EmbeddingBatchDelay time.Duration
	EmbeddingTimeout    time.Duration

	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	VectorTimeout    time.Duration

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string
	GraphTimeout  time.Duration

	MongoURI      string
	MongoDatabase string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	WorkerConcurrency int
	TaskMaxRetry      int
	TaskTimeout       time.Duration

	AuditDBPath          string
	StuckProcessingAfter time.Duration

	MaxFileSizeMB int
	ChunkSize     int
	ChunkOverlap  int

	Thresholds Thresholds
}

// Thresholds holds the heuristic constants used by entity resolution,
// topic modeling and document similarity.
type Thresholds struct {
	SameAs              float64
	Similar             float64
	CooccurrenceBonus   float64
	DocumentSimilarity  float64
	TopicRelevance      float64
	EntityMinChunkChars int
	EntityMaxPerChunk   int
	EntityBatchSize     int
	EntityBatchDelay    time.Duration
}

// DefaultThresholds returns the heuristic defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SameAs:              0.8,
		Similar:             0.6,
		CooccurrenceBonus:   0.3,
		DocumentSimilarity:  0.3,
		TopicRelevance:      0.3,
		EntityMinChunkChars: 50,
		EntityMaxPerChunk:   10,
		EntityBatchSize:     3,
		EntityBatchDelay:    time.Second,
	}
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or a parent directory, it is loaded first.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	p := &parser{}
	defaults := DefaultThresholds()

	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		LogLevel:  p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:    p.duration("LLM_TIMEOUT", 60*time.Second),
		LLMRPM:        p.int("LLM_RPM", 500),

		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: p.int("EMBEDDING_DIMENSIONS", 1536),
		EmbeddingBatchSize:  p.int("EMBEDDING_BATCH_SIZE", 100),
		EmbeddingBatchDelay: p.duration("EMBEDDING_BATCH_DELAY", 100*time.Millisecond),
		EmbeddingTimeout:    p.duration("EMBEDDING_TIMEOUT", 60*time.Second),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documind_chunks"),
		VectorTimeout:    p.duration("VECTOR_TIMEOUT", 15*time.Second),

		Neo4jURI:      getEnv("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUser:     getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),
		GraphTimeout:  p.duration("GRAPH_TIMEOUT", 30*time.Second),

		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "documind"),

		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3UsePathStyle:    p.bool("S3_USE_PATH_STYLE", false),

		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           p.int("REDIS_DB", 0),
		WorkerConcurrency: p.int("WORKER_CONCURRENCY", 5),
		TaskMaxRetry:      p.int("TASK_MAX_RETRY", 3),
		TaskTimeout:       p.duration("TASK_TIMEOUT", 30*time.Minute),

		AuditDBPath:          getEnv("AUDIT_DB_PATH", "./data/audit.db"),
		StuckProcessingAfter: p.duration("STUCK_PROCESSING_AFTER", time.Hour),

		MaxFileSizeMB: p.int("MAX_FILE_SIZE_MB", 10),
		ChunkSize:     p.int("MAX_CHUNK_SIZE", 500),
		ChunkOverlap:  p.int("CHUNK_OVERLAP", 50),

		Thresholds: Thresholds{
			SameAs:              p.float("ENTITY_SAME_AS_THRESHOLD", defaults.SameAs),
			Similar:             p.float("ENTITY_SIMILAR_THRESHOLD", defaults.Similar),
			CooccurrenceBonus:   p.float("COOCCURRENCE_MAX_BONUS", defaults.CooccurrenceBonus),
			DocumentSimilarity:  p.float("DOC_SIMILARITY_THRESHOLD", defaults.DocumentSimilarity),
			TopicRelevance:      p.float("TOPIC_RELEVANCE_THRESHOLD", defaults.TopicRelevance),
			EntityMinChunkChars: p.int("ENTITY_MIN_CHUNK_CHARS", defaults.EntityMinChunkChars),
			EntityMaxPerChunk:   p.int("ENTITY_MAX_PER_CHUNK", defaults.EntityMaxPerChunk),
			EntityBatchSize:     p.int("ENTITY_BATCH_SIZE", defaults.EntityBatchSize),
			EntityBatchDelay:    p.duration("ENTITY_BATCH_DELAY", defaults.EntityBatchDelay),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Create the data directory for the audit database
	if err := os.MkdirAll(filepath.Dir(cfg.AuditDBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be greater than 0")
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("EMBEDDING_BATCH_SIZE must be greater than 0")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("MAX_CHUNK_SIZE must be greater than 0")
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, MAX_CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be greater than 0")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	t := c.Thresholds
	if t.Similar >= t.SameAs {
		return fmt.Errorf("ENTITY_SIMILAR_THRESHOLD (%.2f) must be below ENTITY_SAME_AS_THRESHOLD (%.2f)", t.Similar, t.SameAs)
	}
	if t.EntityBatchSize <= 0 {
		return fmt.Errorf("ENTITY_BATCH_SIZE must be greater than 0")
	}
	return nil
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser collects the first typed-parse failure so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s has invalid value %q: %w", key, value, err)
	}
}

func (p *parser) int(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) float(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) bool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return v
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		p.fail(key, raw, err)
		return def
	}
	return lvl
}
