package tutor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
)

// Reassessment is the oracle's reading of the learner's reaction to feedback.
type Reassessment struct {
	InferredTopic   string  `json:"inferred_topic"`
	Reaction        string  `json:"reaction"`
	NeedsAdjustment bool    `json:"needs_adjustment"`
	SuggestedLevel  *string `json:"suggested_level"`
	Rationale       string  `json:"rationale"`

	Applied bool  `json:"applied"`
	From    Level `json:"from,omitempty"`
	To      Level `json:"to,omitempty"`
}

// ReassessInput is one answer, feedback, reaction cycle.
type ReassessInput struct {
	Topic    string
	Answer   string
	Feedback string
	Reaction string
	Student  StudentModel
}

// Reassessor revisits a mastery update after the learner reacts to feedback.
// It only ever lowers a level.
type Reassessor struct {
	gen Generator
}

// NewReassessor creates a Reassessor.
func NewReassessor(gen Generator) *Reassessor {
	return &Reassessor{gen: gen}
}

// Reassess may downgrade the active topic one level. On any error the
// returned model is in.Student, untouched.
func (r *Reassessor) Reassess(ctx context.Context, in ReassessInput) (Reassessment, StudentModel, error) {
	prompt, err := reassessPrompt(in)
	if err != nil {
		return Reassessment{}, in.Student, err
	}
	raw, err := r.gen.Generate(ctx, ai.TaskAnalysis, prompt, nil)
	if err != nil {
		return Reassessment{}, in.Student, fmt.Errorf("reassess: %w", err)
	}

	var ra Reassessment
	if err := oracle.Decode(raw, reassessSchema, &ra); err != nil {
		slog.Warn("reassessment reply unusable", "topic", in.Topic, "error", err, "raw_len", len(raw))
		return Reassessment{}, in.Student, fmt.Errorf("reassess: %w", err)
	}

	ra.Applied, ra.From, ra.To = false, "", ""
	updated := ApplyReassessment(in.Student, in.Topic, &ra)
	if ra.Applied {
		slog.Info("mastery adjusted",
			"topic", in.Topic,
			"from", ra.From,
			"to", ra.To,
			"rationale", ra.Rationale,
		)
	}
	return ra, updated, nil
}

// ApplyReassessment lowers the active topic one level when ra asks for an
// adjustment of that topic. It never raises a level.
func ApplyReassessment(sm StudentModel, active string, ra *Reassessment) StudentModel {
	if !ra.NeedsAdjustment {
		return sm
	}
	if ra.InferredTopic != "" && !SameTopic(ra.InferredTopic, active) {
		return sm
	}
	key, p, ok := sm.Progress(active)
	if !ok || p.Level() == LevelBeginner {
		return sm
	}

	lowered := p.Downgraded()
	out := sm.Clone()
	out.Topics[key] = lowered
	out.Recompute()

	ra.Applied = true
	ra.From = p.Level()
	ra.To = lowered.Level()
	return out
}
