package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL  string `envconfig:"OPENAI_BASE_URL"`
	ChatModel      string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDims  int    `envconfig:"EMBEDDING_DIMS" default:"1536"`

	// Retrieval tuning.
	RetrievalK       int     `envconfig:"RETRIEVAL_K" default:"5"`
	SimilarityFloor  float64 `envconfig:"SIMILARITY_FLOOR" default:"0.30"`
	NearDupThreshold float64 `envconfig:"NEAR_DUP_THRESHOLD" default:"0.98"`
	ExcerptMaxChars  int     `envconfig:"EXCERPT_MAX_CHARS" default:"200"`

	EmbedTimeout     time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`
	SynthesisTimeout time.Duration `envconfig:"SYNTHESIS_TIMEOUT" default:"60s"`
	SynthesisRetries int           `envconfig:"SYNTHESIS_RETRIES" default:"1"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"10s"`

	// Optional S3-compatible store for corpus snapshots used by ingest.
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"examtutor-corpus"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("EXAMTUTOR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.RetrievalK < 1 {
		return nil, fmt.Errorf("EXAMTUTOR_RETRIEVAL_K must be at least 1, got %d", cfg.RetrievalK)
	}
	if cfg.SimilarityFloor < -1 || cfg.SimilarityFloor > 1 {
		return nil, fmt.Errorf("EXAMTUTOR_SIMILARITY_FLOOR must be within [-1, 1], got %g", cfg.SimilarityFloor)
	}
	if cfg.SynthesisRetries < 0 {
		return nil, fmt.Errorf("EXAMTUTOR_SYNTHESIS_RETRIES must not be negative, got %d", cfg.SynthesisRetries)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
