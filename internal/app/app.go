// Package app assembles the oracle and logger from configuration for the
// server and the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
	"github.com/sigma-teacher/tutor/internal/platform/config"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

// NewRouter registers every configured provider, each wrapped in retry and
// circuit breaking. Google is first since it is the only provider that reads
// attached documents.
func NewRouter(ctx context.Context, cfg config.AIConfig) (*ai.Router, *ai.GoogleFileStore, error) {
	policy := ai.DefaultResilientConfig()
	policy.MaxAttempts = cfg.Retry.MaxAttempts
	policy.BaseDelay = cfg.Retry.BaseDelay
	policy.MaxDelay = cfg.Retry.MaxDelay

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	router := ai.NewRouter()
	register := func(name string, p ai.Provider) {
		router.Register(name, ai.NewResilientProvider(name, p, policy))
	}

	var files *ai.GoogleFileStore
	if cfg.Google.APIKey != "" {
		p, err := ai.NewGoogleProvider(ctx, cfg.Google.APIKey,
			ai.WithGoogleModel(cfg.Google.Model), ai.WithGoogleHTTPClient(httpClient))
		if err != nil {
			return nil, nil, err
		}
		register("google", p)
		files = p.Files()
	}
	if cfg.OpenAI.APIKey != "" {
		register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey, ai.WithDefaultModel(cfg.OpenAI.Model), ai.WithHTTPClient(httpClient)))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey,
			ai.WithAnthropicModel(cfg.Anthropic.Model), ai.WithAnthropicHTTPClient(httpClient))
		if err != nil {
			return nil, nil, err
		}
		register("anthropic", p)
	}
	if cfg.DeepSeek.APIKey != "" {
		register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey, ai.WithDefaultModel(cfg.DeepSeek.Model), ai.WithHTTPClient(httpClient)))
	}
	if cfg.OpenRouter.APIKey != "" {
		register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey, ai.WithDefaultModel(cfg.OpenRouter.Model), ai.WithHTTPClient(httpClient)))
	}
	if cfg.Ollama.Enabled {
		register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL, ai.WithDefaultModel(cfg.Ollama.Model), ai.WithHTTPClient(httpClient)))
	}

	if !router.HasProvider() {
		return nil, nil, fmt.Errorf("no AI provider configured")
	}
	return router, files, nil
}

// NewOracle builds the tutoring oracle over every configured provider.
func NewOracle(ctx context.Context, cfg *config.Config) (*oracle.Oracle, *ai.Router, error) {
	router, files, err := NewRouter(ctx, cfg.AI)
	if err != nil {
		return nil, nil, err
	}
	opts := []oracle.Option{
		oracle.WithSystemPrompt(tutor.SystemPrompt),
		oracle.WithPolling(cfg.Tutor.FilePollInterval, cfg.Tutor.FilePollTimeout),
	}
	if files != nil {
		opts = append(opts, oracle.WithFileStore(files))
	}
	return oracle.New(router, opts...), router, nil
}

// EngineConfig returns the engine settings shared by the server and the CLI.
// Storage, locking and caching are left to the caller.
func EngineConfig(cfg config.TutorConfig, orc tutor.DocumentOracle) agent.EngineConfig {
	ec := agent.EngineConfig{
		Oracle:      orc,
		Reassess:    cfg.Reassess,
		TopicCount:  cfg.TopicCount,
		Audience:    cfg.Audience,
		TurnTimeout: cfg.TurnTimeout,
	}
	if cfg.OracleSelector {
		ec.Selector = tutor.NewOracleSelector(orc)
	}
	return ec
}

// NewLogger builds a JSON or text slog logger.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
