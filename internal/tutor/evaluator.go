package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
)

// Verdict is the oracle's judgement of an answer.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictPartial   Verdict = "partially_correct"
	VerdictIncorrect Verdict = "incorrect"
)

// Evaluation is the outcome of grading one answer.
type Evaluation struct {
	EvaluatedTopic string  `json:"evaluated_topic"`
	Verdict        Verdict `json:"verdict"`
	Comprehension  float64 `json:"comprehension"`
	Rationale      string  `json:"rationale"`
	AffectiveState string  `json:"affective_state,omitempty"`
	// Applied is true when the evaluation was folded into the student model.
	Applied bool `json:"applied"`
}

// Correct reports whether the answer was judged fully correct.
func (e Evaluation) Correct() bool { return e.Verdict == VerdictCorrect }

// EvaluationInput is what the evaluator needs to grade one answer.
type EvaluationInput struct {
	Topic    Topic
	Exercise string // defaults to the topic's exercise text
	Answer   string
	Student  StudentModel
}

// Evaluator grades answers through the oracle and updates the student model.
type Evaluator struct {
	gen Generator
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(gen Generator) *Evaluator {
	return &Evaluator{gen: gen}
}

// Evaluate grades in.Answer. On any error the returned model is in.Student
// itself, untouched. A reply about a different topic is returned without
// being applied.
func (e *Evaluator) Evaluate(ctx context.Context, in EvaluationInput) (Evaluation, StudentModel, error) {
	exercise := in.Exercise
	if exercise == "" {
		exercise = in.Topic.ExerciseText()
	}
	prompt, err := evaluationPrompt(in.Topic, exercise, in.Answer, in.Student)
	if err != nil {
		return Evaluation{}, in.Student, err
	}

	raw, err := e.gen.Generate(ctx, ai.TaskGrading, prompt, nil)
	if err != nil {
		return Evaluation{}, in.Student, fmt.Errorf("evaluate answer: %w", err)
	}

	var ev Evaluation
	if err := oracle.Decode(raw, evaluationSchema, &ev); err != nil {
		slog.Warn("evaluation reply unusable", "topic", in.Topic.Name, "error", err, "raw_len", len(raw))
		return Evaluation{}, in.Student, fmt.Errorf("evaluate answer: %w", err)
	}

	updated, applied := ApplyEvaluation(in.Student, in.Topic.Name, ev)
	ev.Applied = applied
	if !applied {
		slog.Warn("evaluation not applied",
			"topic", in.Topic.Name,
			"evaluated_topic", ev.EvaluatedTopic,
		)
		return ev, in.Student, nil
	}

	slog.Info("answer evaluated",
		"topic", in.Topic.Name,
		"verdict", ev.Verdict,
		"comprehension", ev.Comprehension,
	)
	return ev, updated, nil
}

// ApplyEvaluation folds ev into a copy of sm for the active topic. It
// returns sm unchanged and false when the evaluation names another topic or
// the topic is not tracked.
func ApplyEvaluation(sm StudentModel, active string, ev Evaluation) (StudentModel, bool) {
	if !SameTopic(ev.EvaluatedTopic, active) {
		return sm, false
	}
	key, p, ok := sm.Progress(active)
	if !ok {
		return sm, false
	}

	p.Attempts++
	if ev.Correct() {
		p.CorrectCount++
	}
	p.Comprehension = clampScore(ev.Comprehension)
	if p.Comprehension >= MasteryThreshold {
		p.Status = StatusUnderstood
	} else {
		p.Status = StatusInProgress
	}

	out := sm.Clone()
	out.Topics[key] = p
	out.Recompute()
	return out, true
}

// clampScore truncates so a score just under the threshold never reaches it.
func clampScore(v float64) int {
	return int(math.Max(0, math.Min(100, math.Floor(v))))
}
