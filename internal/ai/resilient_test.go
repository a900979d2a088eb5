package ai_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sigma-teacher/tutor/internal/ai"
)

// flakyProvider fails with err for the first n calls.
type flakyProvider struct {
	mu    sync.Mutex
	n     int
	err   error
	calls int
}

func (f *flakyProvider) Complete(_ context.Context, _ ai.CompletionRequest) (ai.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.n {
		return ai.CompletionResponse{}, f.err
	}
	return ai.CompletionResponse{Content: "ok", Model: "flaky"}, nil
}

func (f *flakyProvider) HealthCheck(context.Context) error { return nil }

func fastRetry() ai.ResilientConfig {
	return ai.ResilientConfig{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestResilientProvider_RetriesRateLimit(t *testing.T) {
	flaky := &flakyProvider{n: 2, err: &ai.RateLimitError{Provider: "google", Err: errors.New("quota")}}
	p := ai.NewResilientProvider("google", flaky, fastRetry())

	resp, err := p.Complete(context.Background(), ai.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Content)
	}
	if flaky.calls != 3 {
		t.Errorf("calls = %d, want 3", flaky.calls)
	}
}

func TestResilientProvider_DoesNotRetryClientErrors(t *testing.T) {
	flaky := &flakyProvider{n: 10, err: &ai.APIError{Provider: "openai", StatusCode: 400, Body: "bad"}}
	p := ai.NewResilientProvider("openai", flaky, fastRetry())

	if _, err := p.Complete(context.Background(), ai.CompletionRequest{}); err == nil {
		t.Fatal("Complete() should fail on a 400")
	}
	if flaky.calls != 1 {
		t.Errorf("calls = %d, want 1", flaky.calls)
	}
}

func TestResilientProvider_GivesUp(t *testing.T) {
	flaky := &flakyProvider{n: 100, err: &ai.APIError{Provider: "openai", StatusCode: 503}}
	cfg := fastRetry()
	cfg.MaxAttempts = 3
	p := ai.NewResilientProvider("openai", flaky, cfg)

	if _, err := p.Complete(context.Background(), ai.CompletionRequest{}); err == nil {
		t.Fatal("Complete() should fail once attempts are exhausted")
	}
	if flaky.calls < 2 || flaky.calls > 3 {
		t.Errorf("calls = %d, want between 2 and 3", flaky.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", &ai.RateLimitError{Provider: "x", Err: errors.New("429")}, true},
		{"503", &ai.APIError{StatusCode: 503}, true},
		{"401", &ai.APIError{StatusCode: 401}, false},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ai.IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
