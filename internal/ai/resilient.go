package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientConfig controls retry and circuit breaking around a provider.
type ResilientConfig struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BreakerFailures int // consecutive failures that open the breaker; 0 disables it
}

// DefaultResilientConfig returns the retry policy used for oracle calls.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:     4,
		BaseDelay:       2 * time.Second,
		MaxDelay:        30 * time.Second,
		BreakerFailures: 5,
	}
}

// ResilientProvider retries rate-limited and transient failures with
// exponential backoff before handing the error back to the Router.
type ResilientProvider struct {
	name     string
	provider Provider
	retrier  retry.Retry[CompletionResponse]
	breaker  circuitbreaker.CircuitBreaker[CompletionResponse]
}

// NewResilientProvider wraps provider with the given policy.
func NewResilientProvider(name string, provider Provider, cfg ResilientConfig) *ResilientProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	rp := &ResilientProvider{name: name, provider: provider}

	rp.retrier = retry.New[CompletionResponse](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.BaseDelay,
		MaxDelay:      cfg.MaxDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable: func(err error) bool {
			if !IsRetryable(err) {
				return false
			}
			slog.Warn("AI call failed, backing off", "provider", name, "error", err)
			return true
		},
	})

	if cfg.BreakerFailures > 0 {
		threshold := cfg.BreakerFailures
		rp.breaker = circuitbreaker.New[CompletionResponse](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= threshold
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				slog.Warn("AI circuit breaker state change",
					"provider", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		})
	}
	return rp
}

func (p *ResilientProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	operation := func(ctx context.Context) (CompletionResponse, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (CompletionResponse, error) {
			return p.provider.Complete(ctx, req)
		})
	}
	if p.breaker != nil {
		return p.breaker.Execute(ctx, operation)
	}
	return operation(ctx)
}

func (p *ResilientProvider) HealthCheck(ctx context.Context) error {
	return p.provider.HealthCheck(ctx)
}
