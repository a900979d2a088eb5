// Package config loads application configuration from environment variables.
// All variables use the ITS_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Tutor    TutorConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string // host patterns accepted on WebSocket upgrades
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps
// sessions and lectures in memory.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// domain cache and falls back to per-process session locks.
type CacheConfig struct {
	URL          string
	Prefix       string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI     ProviderConfig
	Anthropic  ProviderConfig
	DeepSeek   ProviderConfig
	Google     ProviderConfig
	OpenRouter ProviderConfig
	Ollama     OllamaConfig
	Retry      RetryConfig
	Timeout    time.Duration // per HTTP request to a provider
}

// ProviderConfig holds a hosted provider's key and optional model override.
type ProviderConfig struct {
	APIKey string
	Model  string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
	Model   string
}

// RetryConfig holds backoff settings for transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// TutorConfig holds tutoring defaults.
type TutorConfig struct {
	TopicCount       int
	Audience         string
	Reassess         bool
	OracleSelector   bool // let the oracle pick the next topic
	FilePollInterval time.Duration
	FilePollTimeout  time.Duration
	DomainCacheTTL   time.Duration
	LockTTL          time.Duration
	TurnTimeout      time.Duration // must stay below LockTTL
	CurriculumPath   string        // directory of authored curriculum YAML; empty disables
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with ITS_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("ITS_SERVER_PORT", 8080),
			Host:           envStr("ITS_SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: envList("ITS_SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:      envStr("ITS_DATABASE_URL", ""),
			MaxConns: envInt("ITS_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("ITS_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL:          envStr("ITS_CACHE_URL", ""),
			Prefix:       envStr("ITS_CACHE_PREFIX", "its:"),
			DialTimeout:  envDuration("ITS_CACHE_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("ITS_CACHE_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("ITS_CACHE_WRITE_TIMEOUT", 3*time.Second),
		},
		AI: AIConfig{
			OpenAI:     provider("OPENAI"),
			Anthropic:  provider("ANTHROPIC"),
			DeepSeek:   provider("DEEPSEEK"),
			Google:     provider("GOOGLE"),
			OpenRouter: provider("OPENROUTER"),
			Ollama: OllamaConfig{
				Enabled: envBool("ITS_AI_OLLAMA_ENABLED", false),
				URL:     envStr("ITS_AI_OLLAMA_URL", "http://localhost:11434"),
				Model:   envStr("ITS_AI_MODEL_OLLAMA", ""),
			},
			Retry: RetryConfig{
				MaxAttempts: envInt("ITS_AI_RETRY_MAX_ATTEMPTS", 4),
				BaseDelay:   envDuration("ITS_AI_RETRY_BASE_DELAY", 2*time.Second),
				MaxDelay:    envDuration("ITS_AI_RETRY_MAX_DELAY", 30*time.Second),
			},
			Timeout: envDuration("ITS_AI_TIMEOUT", 60*time.Second),
		},
		Tutor: TutorConfig{
			TopicCount:       envInt("ITS_TUTOR_TOPIC_COUNT", 5),
			Audience:         envStr("ITS_TUTOR_AUDIENCE", "1° ano do ensino médio"),
			Reassess:         envBool("ITS_TUTOR_REASSESS", false),
			OracleSelector:   envBool("ITS_TUTOR_ORACLE_SELECTOR", false),
			FilePollInterval: envDuration("ITS_TUTOR_FILE_POLL_INTERVAL", 2*time.Second),
			FilePollTimeout:  envDuration("ITS_TUTOR_FILE_POLL_TIMEOUT", 2*time.Minute),
			DomainCacheTTL:   envDuration("ITS_TUTOR_DOMAIN_CACHE_TTL", 24*time.Hour),
			LockTTL:          envDuration("ITS_TUTOR_LOCK_TTL", 2*time.Minute),
			TurnTimeout:      envDuration("ITS_TUTOR_TURN_TIMEOUT", 90*time.Second),
			CurriculumPath:   envStr("ITS_TUTOR_CURRICULUM_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("ITS_LOG_LEVEL", "info"),
			Format: envStr("ITS_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Tutor.TopicCount < 1 || c.Tutor.TopicCount > 30 {
		return fmt.Errorf("ITS_TUTOR_TOPIC_COUNT must be between 1 and 30, got %d", c.Tutor.TopicCount)
	}

	if c.Tutor.TurnTimeout <= 0 || c.Tutor.TurnTimeout >= c.Tutor.LockTTL {
		return fmt.Errorf("ITS_TUTOR_TURN_TIMEOUT (%s) must be positive and below ITS_TUTOR_LOCK_TTL (%s)", c.Tutor.TurnTimeout, c.Tutor.LockTTL)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("ITS_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func provider(name string) ProviderConfig {
	return ProviderConfig{
		APIKey: envStr("ITS_AI_"+name+"_API_KEY", ""),
		Model:  envStr("ITS_AI_MODEL_"+name, ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
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

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
