// Package config loads pipeline configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider selects the model service backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
)

// RetryConfig bounds the retry policy for transient model failures.
type RetryConfig struct {
	MaxAttempts   int `yaml:"maxAttempts"`
	BackoffBaseMs int `yaml:"backoffBaseMs"`
}

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdbUrl"`
	SurrealDBNamespace string `yaml:"surrealdbNamespace"`
	SurrealDBDatabase  string `yaml:"surrealdbDatabase"`
	SurrealDBUser      string `yaml:"surrealdbUser"`
	SurrealDBPass      string `yaml:"surrealdbPass"`
	SurrealDBAuthLevel string `yaml:"surrealdbAuthLevel"`

	// Model service
	LLMProvider     Provider `yaml:"llmProvider"`
	LLMModel        string   `yaml:"llmModel"`
	AnthropicAPIKey string   `yaml:"-"`
	OpenAIAPIKey    string   `yaml:"-"`
	OllamaHost      string   `yaml:"ollamaHost"`
	AWSRegion       string   `yaml:"awsRegion"`
	LLMTimeoutMs    int      `yaml:"llmTimeoutMs"`

	// Evaluation pipeline
	Forums            []string    `yaml:"forums"`
	BatchSize         int         `yaml:"batchSize"`
	MaxBatches        int         `yaml:"maxBatches"`
	InterBatchDelayMs int         `yaml:"interBatchDelayMs"`
	Retry             RetryConfig `yaml:"retry"`
	TokenBudget       int         `yaml:"tokenBudget"`

	// Logging
	LogFile  string     `yaml:"logFile"`
	LogLevel slog.Level `yaml:"-"`
}

// LLMTimeout returns the per-call model timeout. It is deliberately
// shorter than any full run.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutMs) * time.Millisecond
}

// InterBatchDelay returns the pacing delay between batches.
func (c Config) InterBatchDelay() time.Duration {
	return time.Duration(c.InterBatchDelayMs) * time.Millisecond
}

// BackoffBase returns the first retry delay.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Retry.BackoffBaseMs) * time.Millisecond
}

func defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "forumjudge",
		SurrealDBDatabase:  "content",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		LLMProvider:  ProviderOllama,
		LLMModel:     "llama3.1",
		OllamaHost:   "http://localhost:11434",
		AWSRegion:    "us-east-1",
		LLMTimeoutMs: 120_000,

		BatchSize:         100,
		MaxBatches:        0,
		InterBatchDelayMs: 2000,
		Retry: RetryConfig{
			MaxAttempts:   3,
			BackoffBaseMs: 1000,
		},
		TokenBudget: 2000,

		LogFile:  "/tmp/forumjudge.log",
		LogLevel: slog.LevelInfo,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// FORUMJUDGE_CONFIG (or ./forumjudge.yaml when present), then
// environment variables on top.
func Load() (Config, error) {
	cfg := defaults()

	path := os.Getenv("FORUMJUDGE_CONFIG")
	if path == "" {
		if _, err := os.Stat("forumjudge.yaml"); err == nil {
			path = "forumjudge.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.SurrealDBURL, "SURREALDB_URL")
	setEnv(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	setEnv(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	setEnv(&cfg.SurrealDBUser, "SURREALDB_USER")
	setEnv(&cfg.SurrealDBPass, "SURREALDB_PASS")
	setEnv(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")

	if v := os.Getenv("FORUMJUDGE_LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = Provider(strings.ToLower(v))
	}
	setEnv(&cfg.LLMModel, "FORUMJUDGE_LLM_MODEL")
	setEnv(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setEnv(&cfg.OllamaHost, "OLLAMA_HOST")
	setEnv(&cfg.AWSRegion, "AWS_REGION")
	setEnvInt(&cfg.LLMTimeoutMs, "FORUMJUDGE_LLM_TIMEOUT_MS")

	if v := os.Getenv("FORUMJUDGE_FORUMS"); v != "" {
		cfg.Forums = splitList(v)
	}
	setEnvInt(&cfg.BatchSize, "FORUMJUDGE_BATCH_SIZE")
	setEnvInt(&cfg.MaxBatches, "FORUMJUDGE_MAX_BATCHES")
	setEnvInt(&cfg.InterBatchDelayMs, "FORUMJUDGE_INTER_BATCH_DELAY_MS")
	setEnvInt(&cfg.Retry.MaxAttempts, "FORUMJUDGE_RETRY_MAX_ATTEMPTS")
	setEnvInt(&cfg.Retry.BackoffBaseMs, "FORUMJUDGE_RETRY_BACKOFF_BASE_MS")
	setEnvInt(&cfg.TokenBudget, "FORUMJUDGE_TOKEN_BUDGET")

	setEnv(&cfg.LogFile, "FORUMJUDGE_LOG_FILE")
	if v := os.Getenv("FORUMJUDGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
}

func setEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setEnvInt(target *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring non-numeric config value", "key", key, "value", v)
		return
	}
	*target = n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
