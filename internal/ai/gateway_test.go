package ai_test

import (
	"context"
	"testing"

	"github.com/sigma-teacher/tutor/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: "Hello"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if mock.LastRequest == nil || mock.LastRequest.Messages[0].Content != "Hello" {
		t.Errorf("LastRequest not captured: %+v", mock.LastRequest)
	}
}

func TestScriptedProvider_ConsumesInOrder(t *testing.T) {
	mock := ai.NewScriptedProvider("first", "second")
	mock.Response = "fallback"

	want := []string{"first", "second", "fallback", "fallback"}
	for i, w := range want {
		resp, err := mock.Complete(context.Background(), ai.CompletionRequest{})
		if err != nil {
			t.Fatalf("call %d: Complete() error = %v", i, err)
		}
		if resp.Content != w {
			t.Errorf("call %d: Content = %q, want %q", i, resp.Content, w)
		}
	}
	if mock.Calls() != len(want) {
		t.Errorf("Calls() = %d, want %d", mock.Calls(), len(want))
	}
}

func TestMockProvider_HealthCheck(t *testing.T) {
	mock := ai.NewMockProvider("response")
	if err := mock.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task     ai.TaskType
		expected string
	}{
		{ai.TaskDomain, "domain"},
		{ai.TaskGrading, "grading"},
		{ai.TaskFeedback, "feedback"},
		{ai.TaskAnalysis, "analysis"},
		{ai.TaskType(99), "unknown"},
	}
	for _, tt := range tests {
		if tt.task.String() != tt.expected {
			t.Errorf("TaskType.String() = %q, want %q", tt.task.String(), tt.expected)
		}
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}
