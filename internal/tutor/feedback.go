package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
)

// NextAction is the feedback's recommendation.
type NextAction string

const (
	ActionAdvance NextAction = "advance"
	ActionRevise  NextAction = "revise"
)

// FallbackFeedback is shown when the oracle's feedback cannot be used.
const FallbackFeedback = "Obrigado pela sua resposta! Vamos continuar: revise a explicação e tente o exercício novamente."

// Feedback is the learner-facing reply to an answer.
type Feedback struct {
	Message    string     `json:"message"`
	NextAction NextAction `json:"next_action"`
	// Fallback is true when the message was not produced by the oracle.
	Fallback bool `json:"fallback,omitempty"`
}

// FeedbackInput is what the generator needs.
type FeedbackInput struct {
	Topic      Topic
	Exercise   string
	Answer     string
	Evaluation Evaluation
}

// FeedbackGenerator writes tone-conditioned feedback through the oracle.
type FeedbackGenerator struct {
	gen Generator
}

// NewFeedbackGenerator creates a FeedbackGenerator.
func NewFeedbackGenerator(gen Generator) *FeedbackGenerator {
	return &FeedbackGenerator{gen: gen}
}

// Generate returns feedback for the answer. Unusable replies fall back to a
// fixed revise message; only transport failures return an error.
func (g *FeedbackGenerator) Generate(ctx context.Context, in FeedbackInput) (Feedback, error) {
	if in.Exercise == "" {
		in.Exercise = in.Topic.ExerciseText()
	}

	raw, err := g.gen.Generate(ctx, ai.TaskFeedback, feedbackPrompt(in), nil)
	if err != nil && !errors.Is(err, oracle.ErrFormat) {
		return Feedback{}, fmt.Errorf("generate feedback: %w", err)
	}

	var fb Feedback
	if err == nil {
		err = oracle.Decode(raw, feedbackSchema, &fb)
	}
	if err != nil {
		slog.Warn("feedback reply unusable, using fallback", "topic", in.Topic.Name, "error", err, "raw_len", len(raw))
		return fallbackFeedback(in), nil
	}
	return fb, nil
}

// fallbackFeedback prefers the quiz's authored feedback when there is one.
func fallbackFeedback(in FeedbackInput) Feedback {
	msg := FallbackFeedback
	if q := in.Topic.Quiz; q != nil {
		if in.Evaluation.Correct() && q.Feedback.Correct != "" {
			msg = q.Feedback.Correct
		} else if !in.Evaluation.Correct() && q.Feedback.Incorrect != "" {
			msg = q.Feedback.Incorrect
		}
	}
	return Feedback{Message: msg, NextAction: ActionRevise, Fallback: true}
}
