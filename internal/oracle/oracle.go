// Package oracle is the single call contract between the tutoring core and
// the language model: prompt in, text out, plus the shared JSON extraction
// and validation every consumer relies on.
package oracle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sigma-teacher/tutor/internal/ai"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 2 * time.Minute
)

// Completer is the part of ai.Router the oracle needs.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Oracle wraps a Completer with the oracle contract.
type Oracle struct {
	completer    Completer
	files        ai.FileStore
	system       string
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Option configures an Oracle.
type Option func(*Oracle)

// WithFileStore enables document uploads.
func WithFileStore(files ai.FileStore) Option {
	return func(o *Oracle) {
		o.files = files
	}
}

// WithPolling sets how often and for how long uploads are polled until ready.
func WithPolling(interval, timeout time.Duration) Option {
	return func(o *Oracle) {
		if interval > 0 {
			o.pollInterval = interval
		}
		if timeout > 0 {
			o.pollTimeout = timeout
		}
	}
}

// WithSystemPrompt sets a system message sent ahead of every prompt.
func WithSystemPrompt(system string) Option {
	return func(o *Oracle) {
		o.system = system
	}
}

// New creates an Oracle over completer.
func New(completer Completer, opts ...Option) *Oracle {
	o := &Oracle{
		completer:    completer,
		pollInterval: defaultPollInterval,
		pollTimeout:  defaultPollTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate sends prompt (and optional uploaded documents) and returns the raw
// reply. Provider failures come back as *TransportError; an empty reply is a
// *FormatError.
func (o *Oracle) Generate(ctx context.Context, task ai.TaskType, prompt string, attachments []ai.FileHandle) (string, error) {
	var messages []ai.Message
	if o.system != "" {
		messages = append(messages, ai.Message{Role: "system", Content: o.system})
	}
	messages = append(messages, ai.Message{Role: "user", Content: prompt})

	resp, err := o.completer.Complete(ctx, ai.CompletionRequest{
		Messages:    messages,
		Attachments: attachments,
		Task:        task,
		MaxTokens:   maxTokens(task),
	})
	if err != nil {
		return "", &TransportError{Task: task.String(), Err: err}
	}
	if strings.TrimSpace(resp.Content) == "" {
		slog.Warn("oracle returned empty reply", "task", task.String(), "model", resp.Model)
		return "", &FormatError{Reason: ReasonEmpty}
	}
	return resp.Content, nil
}

func maxTokens(task ai.TaskType) int {
	switch task {
	case ai.TaskDomain:
		return 8192
	case ai.TaskGrading, ai.TaskAnalysis:
		return 1024
	default:
		return 2048
	}
}
