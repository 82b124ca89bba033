package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"pdf-rag/internal/models"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "config.yaml"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

type Config struct {
	Storage  StorageConfig `yaml:"storage" envconfig:"STORAGE"`
	EmbedLLM LLMConfig     `yaml:"embed_llm" envconfig:"EMBED"`
	ChatLLM  LLMConfig     `yaml:"chat_llm" envconfig:"CHAT"`
	RAG      RAGConfig     `yaml:"rag" envconfig:"RAG"`
	Server   ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Log      LogConfig     `yaml:"log" envconfig:"LOG"`
	Sentry   SentryConfig  `yaml:"sentry" envconfig:"SENTRY"`
	S3       S3Config      `yaml:"s3" envconfig:"S3"`
}

type StorageConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
	// EncryptionKey encrypts the persisted document store when set. Must be 32 bytes.
	EncryptionKey string `yaml:"encryption_key" envconfig:"ENCRYPTION_KEY"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider" envconfig:"PROVIDER"`
	BaseURL     string  `yaml:"base_url" envconfig:"BASE_URL"`
	Model       string  `yaml:"model" envconfig:"MODEL"`
	Key         string  `yaml:"api_key" envconfig:"API_KEY"`
	Temperature float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

type RAGConfig struct {
	ChunkSize       int `yaml:"chunk_size" envconfig:"CHUNK_SIZE"`
	ChunkOverlap    int `yaml:"chunk_overlap" envconfig:"CHUNK_OVERLAP"`
	TopK            int `yaml:"top_k" envconfig:"TOP_K"`
	MaxContextChars int `yaml:"max_context_chars" envconfig:"MAX_CONTEXT_CHARS"`
}

type ServerConfig struct {
	Port              string        `yaml:"port" envconfig:"PORT"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" envconfig:"HEARTBEAT_INTERVAL"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MaxFiles          int           `yaml:"max_files" envconfig:"MAX_FILES"`
	MaxFileBytes      int64         `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES"`
	AllowedOrigins    []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

type SentryConfig struct {
	DSN              string  `yaml:"dsn" envconfig:"DSN"`
	Environment      string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracesSampleRate float64 `yaml:"traces_sample_rate" envconfig:"TRACES_SAMPLE_RATE"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint" envconfig:"ENDPOINT"`
	Region          string `yaml:"region" envconfig:"REGION"`
	Bucket          string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix          string `yaml:"prefix" envconfig:"PREFIX"`
	AccessKeyID     string `yaml:"access_key_id" envconfig:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" envconfig:"SECRET_ACCESS_KEY"`
}

// Enabled reports whether uploaded PDFs should be archived to S3.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func Default() *Config {
	return &Config{
		Storage: StorageConfig{Dir: models.DefaultStorageDir},
		EmbedLLM: LLMConfig{
			Provider: ProviderOllama,
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		ChatLLM: LLMConfig{
			Provider:    ProviderOllama,
			BaseURL:     "http://localhost:11434",
			Model:       "mistral:7b-instruct",
			Temperature: 0.2,
		},
		RAG: RAGConfig{
			ChunkSize:       models.DefaultChunkSize,
			ChunkOverlap:    models.DefaultChunkOverlap,
			TopK:            models.DefaultTopK,
			MaxContextChars: models.DefaultMaxContextChars,
		},
		Server: ServerConfig{
			Port:              "4000",
			HeartbeatInterval: 15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			MaxFiles:          models.DefaultMaxFiles,
			MaxFileBytes:      models.DefaultMaxFileBytes,
		},
		Log: LogConfig{Level: "info", Format: "console"},
		S3:  S3Config{Region: "us-east-1", Prefix: "uploads"},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file at
// path, a .env file and the process environment, in that order.
// A missing file is only an error when path is not the default location.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultConfigPath:
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	_ = godotenv.Load()
	applyLegacyEnv(cfg)

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// applyLegacyEnv honours the variable names used by earlier deployments.
// The structured names processed afterwards take precedence.
func applyLegacyEnv(cfg *Config) {
	if v := os.Getenv("VS_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.EmbedLLM.BaseURL = v
		cfg.ChatLLM.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_LLM"); v != "" {
		cfg.ChatLLM.Model = v
	}
	if v := os.Getenv("OLLAMA_EMBED"); v != "" {
		cfg.EmbedLLM.Model = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
}
