package agent_test

import (
	"context"
	"testing"

	"github.com/sigma-teacher/tutor/internal/agent"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := agent.NewMemoryEventLogger()

	err := logger.LogEvent(context.Background(), agent.Event{
		SessionID: "s1",
		EventType: agent.EventAnswerEvaluated,
		Data: map[string]any{
			"comprehension": 75,
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != agent.EventAnswerEvaluated {
		t.Errorf("EventType = %q, want %q", events[0].EventType, agent.EventAnswerEvaluated)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := agent.NewMemoryEventLogger()
	if err := logger.LogEvent(context.Background(), agent.Event{SessionID: "s1"}); err == nil {
		t.Fatal("expected error for missing event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := agent.NewPostgresEventLogger(nil)

	err := logger.LogEvent(context.Background(), agent.Event{
		SessionID: "s1",
		EventType: agent.EventSessionStarted,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}
