package tutor_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

func evalReply(topic, verdict string, comprehension int) string {
	return fmt.Sprintf(`Vamos lá! {"evaluated_topic": %q, "verdict": %q, "comprehension": %d, "rationale": "r", "affective_state": "neutro"}`,
		topic, verdict, comprehension)
}

func evaluate(t *testing.T, reply string) (tutor.Evaluation, tutor.StudentModel, tutor.StudentModel, error) {
	t.Helper()
	d := fractionsDomain()
	topic, _ := d.Lookup("soma_fracoes")
	before := tutor.NewStudentModel(d)
	o, _ := scripted(reply)

	ev, after, err := tutor.NewEvaluator(o).Evaluate(context.Background(), tutor.EvaluationInput{
		Topic:   topic,
		Answer:  "3/4",
		Student: before,
	})
	return ev, before, after, err
}

func TestEvaluate_Understood(t *testing.T) {
	ev, before, after, err := evaluate(t, evalReply("soma_fracoes", "correct", 75))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !ev.Applied {
		t.Error("evaluation should be applied")
	}
	p := after.Topics["soma_fracoes"]
	if p.Status != tutor.StatusUnderstood || p.Comprehension != 75 || p.Attempts != 1 || p.CorrectCount != 1 {
		t.Errorf("progress = %+v", p)
	}
	if before.Topics["soma_fracoes"].Attempts != 0 {
		t.Error("input model was mutated")
	}
	if after.OverallProgress != 50 {
		t.Errorf("OverallProgress = %v, want 50", after.OverallProgress)
	}
}

func TestEvaluate_BelowThreshold(t *testing.T) {
	_, _, after, err := evaluate(t, evalReply("soma_fracoes", "partially_correct", 40))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	p := after.Topics["soma_fracoes"]
	if p.Status != tutor.StatusInProgress || p.Comprehension != 40 || p.Attempts != 1 || p.CorrectCount != 0 {
		t.Errorf("progress = %+v", p)
	}
}

func TestEvaluate_MalformedReplyLeavesModel(t *testing.T) {
	ev, before, after, err := evaluate(t, "Sure! Here's the answer: ```json {garbage")
	if !errors.Is(err, oracle.ErrFormat) {
		t.Fatalf("Evaluate() error = %v, want format error", err)
	}
	if ev != (tutor.Evaluation{}) {
		t.Errorf("evaluation = %+v, want zero sentinel", ev)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("model changed on failure: %+v", after)
	}
	if after.Topics["soma_fracoes"].Attempts != 0 {
		t.Error("attempts changed on failure")
	}
}

func TestEvaluate_TopicMismatchSkipsUpdate(t *testing.T) {
	ev, before, after, err := evaluate(t, evalReply("denominador_comum", "correct", 95))
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if ev.Applied {
		t.Error("mismatched evaluation should not be applied")
	}
	if ev.Verdict != tutor.VerdictCorrect {
		t.Errorf("verdict still returned for feedback, got %q", ev.Verdict)
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("model changed on mismatch: %+v", after)
	}
}

func TestEvaluate_TransportError(t *testing.T) {
	router := ai.NewRouter()
	router.Register("down", &ai.MockProvider{Err: errors.New("503")})
	d := fractionsDomain()
	topic, _ := d.Lookup("soma_fracoes")
	sm := tutor.NewStudentModel(d)

	_, after, err := tutor.NewEvaluator(oracle.New(router)).Evaluate(context.Background(), tutor.EvaluationInput{
		Topic: topic, Answer: "x", Student: sm,
	})
	if !oracle.IsTransport(err) {
		t.Fatalf("Evaluate() error = %v, want transport error", err)
	}
	if !reflect.DeepEqual(sm, after) {
		t.Error("model changed on transport error")
	}
}

func TestEvaluate_PromptCarriesContext(t *testing.T) {
	d := fractionsDomain()
	topic, _ := d.Lookup("soma_fracoes")
	o, mock := scripted(evalReply("soma_fracoes", "incorrect", 10))

	_, _, err := tutor.NewEvaluator(o).Evaluate(context.Background(), tutor.EvaluationInput{
		Topic: topic, Answer: "2/6", Student: tutor.NewStudentModel(d),
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	prompt := mock.LastRequest.Messages[len(mock.LastRequest.Messages)-1].Content
	for _, want := range []string{"soma_fracoes", "Quanto é 1/2 + 1/4?", "2/6", "denominador_comum"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if mock.LastRequest.Task != ai.TaskGrading {
		t.Errorf("Task = %v, want grading", mock.LastRequest.Task)
	}
}

func TestApplyEvaluation_AttemptsIncrementByOne(t *testing.T) {
	d := fractionsDomain()
	sm := tutor.NewStudentModel(d)
	evals := []tutor.Evaluation{
		{EvaluatedTopic: "soma_fracoes", Verdict: tutor.VerdictIncorrect, Comprehension: 10},
		{EvaluatedTopic: "outro", Verdict: tutor.VerdictCorrect, Comprehension: 100},
		{EvaluatedTopic: "Soma_Fracoes", Verdict: tutor.VerdictPartial, Comprehension: 55},
		{EvaluatedTopic: "soma_fracoes", Verdict: tutor.VerdictCorrect, Comprehension: 90},
		{EvaluatedTopic: "soma_fracoes", Verdict: tutor.VerdictIncorrect, Comprehension: 30},
	}

	prev := 0
	for i, ev := range evals {
		next, applied := tutor.ApplyEvaluation(sm, "soma_fracoes", ev)
		got := next.Topics["soma_fracoes"].Attempts
		want := prev
		if applied {
			want++
		}
		if got != want {
			t.Fatalf("step %d: attempts = %d, want %d", i, got, want)
		}
		sm, prev = next, got
	}
	if p := sm.Topics["soma_fracoes"]; p.Attempts != 4 || p.CorrectCount != 1 || p.Status != tutor.StatusInProgress {
		t.Errorf("final progress = %+v", p)
	}
}

func TestApplyEvaluation_ClampsScore(t *testing.T) {
	tests := []struct {
		name   string
		score  float64
		want   int
		status tutor.Status
	}{
		{"just under threshold", 69.5, 69, tutor.StatusInProgress},
		{"fraction under threshold", 69.99, 69, tutor.StatusInProgress},
		{"threshold", 70, 70, tutor.StatusUnderstood},
		{"above range", 140, 100, tutor.StatusUnderstood},
		{"below range", -5, 0, tutor.StatusInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := tutor.NewStudentModel(fractionsDomain())
			out, ok := tutor.ApplyEvaluation(sm, "soma_fracoes", tutor.Evaluation{EvaluatedTopic: "soma_fracoes", Comprehension: tt.score})
			if !ok {
				t.Fatal("not applied")
			}
			if p := out.Topics["soma_fracoes"]; p.Comprehension != tt.want || p.Status != tt.status {
				t.Errorf("progress = %+v, want comprehension %d and %s", p, tt.want, tt.status)
			}
		})
	}
}
