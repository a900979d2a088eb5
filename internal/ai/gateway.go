// Package ai provides a provider-agnostic AI gateway with task-based routing.
package ai

import "context"

// TaskType defines the kind of AI task for routing and logging purposes.
type TaskType int

const (
	TaskDomain TaskType = iota
	TaskGrading
	TaskFeedback
	TaskAnalysis
)

func (t TaskType) String() string {
	switch t {
	case TaskDomain:
		return "domain"
	case TaskGrading:
		return "grading"
	case TaskFeedback:
		return "feedback"
	case TaskAnalysis:
		return "analysis"
	default:
		return "unknown"
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FileHandle references a document that has already been uploaded to a
// provider's file store.
type FileHandle struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mime_type"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message    `json:"messages"`
	Attachments []FileHandle `json:"attachments,omitempty"`
	Model       string       `json:"model,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature,omitempty"`
	Task        TaskType     `json:"task,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
