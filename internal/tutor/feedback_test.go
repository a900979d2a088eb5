package tutor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

func TestFeedback_Generate(t *testing.T) {
	o, mock := scripted(`{"message": "Muito bem!", "next_action": "advance"}`)
	topic, _ := fractionsDomain().Lookup("soma_fracoes")

	fb, err := tutor.NewFeedbackGenerator(o).Generate(context.Background(), tutor.FeedbackInput{
		Topic:      topic,
		Answer:     "3/4",
		Evaluation: tutor.Evaluation{Verdict: tutor.VerdictCorrect},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fb.Message != "Muito bem!" || fb.NextAction != tutor.ActionAdvance || fb.Fallback {
		t.Errorf("feedback = %+v", fb)
	}
	prompt := mock.LastRequest.Messages[0].Content
	if !strings.Contains(prompt, "Congratulate") {
		t.Error("correct answer should use the congratulating tone")
	}
}

func TestFeedback_IncorrectTone(t *testing.T) {
	o, mock := scripted(`{"message": "Quase!", "next_action": "revise"}`)
	topic, _ := fractionsDomain().Lookup("soma_fracoes")

	if _, err := tutor.NewFeedbackGenerator(o).Generate(context.Background(), tutor.FeedbackInput{
		Topic:      topic,
		Answer:     "2/6",
		Evaluation: tutor.Evaluation{Verdict: tutor.VerdictIncorrect},
	}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	prompt := mock.LastRequest.Messages[0].Content
	if !strings.Contains(prompt, "WITHOUT revealing the answer") {
		t.Error("incorrect answer should ask for a hint without the answer")
	}
}

func TestFeedback_FallbackOnUnusableReply(t *testing.T) {
	replies := []string{
		"Great job, keep going!",
		`{"message": "ok", "next_action": "celebrate"}`,
		"",
	}
	topic, _ := fractionsDomain().Lookup("soma_fracoes")
	for _, reply := range replies {
		o, _ := scripted(reply)
		fb, err := tutor.NewFeedbackGenerator(o).Generate(context.Background(), tutor.FeedbackInput{
			Topic:      topic,
			Answer:     "3/4",
			Evaluation: tutor.Evaluation{Verdict: tutor.VerdictCorrect},
		})
		if err != nil {
			t.Fatalf("reply %q: Generate() error = %v", reply, err)
		}
		if !fb.Fallback || fb.NextAction != tutor.ActionRevise || fb.Message != tutor.FallbackFeedback {
			t.Errorf("reply %q: feedback = %+v", reply, fb)
		}
	}
}

func TestFeedback_FallbackUsesQuizFeedback(t *testing.T) {
	o, _ := scripted("no json")
	topic := tutor.Topic{
		Name: "mmc",
		Quiz: &tutor.Quiz{
			Question:      "MMC de 2 e 3?",
			Options:       map[string]string{"a": "5", "b": "6"},
			CorrectOption: "b",
			Feedback:      tutor.QuizFeedback{Correct: "Isso!", Incorrect: "Lembre dos múltiplos."},
		},
	}
	fb, err := tutor.NewFeedbackGenerator(o).Generate(context.Background(), tutor.FeedbackInput{
		Topic:      topic,
		Answer:     "a",
		Evaluation: tutor.Evaluation{Verdict: tutor.VerdictIncorrect},
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if fb.Message != "Lembre dos múltiplos." || fb.NextAction != tutor.ActionRevise {
		t.Errorf("feedback = %+v", fb)
	}
}

func TestFeedback_TransportErrorPropagates(t *testing.T) {
	router := ai.NewRouter()
	router.Register("down", &ai.MockProvider{Err: errors.New("timeout")})

	_, err := tutor.NewFeedbackGenerator(oracle.New(router)).Generate(context.Background(), tutor.FeedbackInput{
		Topic: tutor.Topic{Name: "x"},
	})
	if !oracle.IsTransport(err) {
		t.Fatalf("Generate() error = %v, want transport error", err)
	}
}
