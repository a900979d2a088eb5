package tutor

import (
	"context"
	"log/slog"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
)

// Generator is the oracle call contract.
type Generator interface {
	Generate(ctx context.Context, task ai.TaskType, prompt string, attachments []ai.FileHandle) (string, error)
}

// Selector chooses the next topic to teach. ok is false when the curriculum
// is finished.
type Selector interface {
	Select(ctx context.Context, sm StudentModel, d DomainModel) (topic string, ok bool)
}

// SelectNext returns the first topic of the recommended sequence that is not
// understood yet.
func SelectNext(sm StudentModel, d DomainModel) (string, bool) {
	for _, name := range d.Sequence {
		if _, ok := d.Lookup(name); !ok {
			continue
		}
		if !sm.IsUnderstood(name) {
			return name, true
		}
	}
	return "", false
}

// LinearSelector is the deterministic Selector.
type LinearSelector struct{}

func (LinearSelector) Select(_ context.Context, sm StudentModel, d DomainModel) (string, bool) {
	return SelectNext(sm, d)
}

// OracleSelector asks the oracle for the next topic and falls back to
// SelectNext whenever the answer is unusable.
type OracleSelector struct {
	gen Generator
}

// NewOracleSelector creates an OracleSelector.
func NewOracleSelector(gen Generator) *OracleSelector {
	return &OracleSelector{gen: gen}
}

type selectionReply struct {
	NextTopic string `json:"next_topic"`
	Reasoning string `json:"reasoning"`
}

func (s *OracleSelector) Select(ctx context.Context, sm StudentModel, d DomainModel) (string, bool) {
	fallback, ok := SelectNext(sm, d)
	if !ok {
		return "", false
	}

	prompt, err := selectionPrompt(sm, d)
	if err != nil {
		slog.Warn("selection prompt failed", "error", err)
		return fallback, true
	}
	raw, err := s.gen.Generate(ctx, ai.TaskAnalysis, prompt, nil)
	if err != nil {
		slog.Warn("oracle selection failed, using sequence", "error", err)
		return fallback, true
	}

	var reply selectionReply
	if err := oracle.Decode(raw, selectionSchema, &reply); err != nil {
		slog.Warn("oracle selection unusable, using sequence", "error", err, "raw_len", len(raw))
		return fallback, true
	}
	t, found := d.Lookup(reply.NextTopic)
	if !found || sm.IsUnderstood(t.Name) {
		slog.Warn("oracle selected invalid topic, using sequence", "topic", reply.NextTopic)
		return fallback, true
	}
	slog.Debug("oracle selected topic", "topic", t.Name, "reasoning", reply.Reasoning)
	return t.Name, true
}
