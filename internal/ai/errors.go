package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrAllProvidersFailed is returned by the Router when no provider produced a
// completion.
var ErrAllProvidersFailed = errors.New("all AI providers failed")

// APIError is a non-2xx answer from a provider API.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// RateLimitError indicates the provider rejected the call for quota or rate
// reasons (HTTP 429 or RESOURCE_EXHAUSTED).
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s rate limited: %v", e.Provider, e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// statusError maps an HTTP status and body to a typed provider error.
func statusError(provider string, resp *http.Response, body []byte) error {
	apiErr := &APIError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	if resp.StatusCode != http.StatusTooManyRequests {
		return apiErr
	}
	var retryAfter time.Duration
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			retryAfter = time.Duration(secs) * time.Second
		}
	}
	return &RateLimitError{Provider: provider, RetryAfter: retryAfter, Err: apiErr}
}

// IsRetryable reports whether err is worth another attempt: quota and rate
// limits, and transient 5xx answers. Context errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
