package agent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

func sampleSession(id string, created time.Time) *agent.Session {
	d := fractions()
	return &agent.Session{
		ID:          id,
		Domain:      *d,
		Student:     tutor.NewStudentModel(*d),
		ActiveTopic: "denominador_comum",
		Status:      agent.StatusAwaitingExercise,
		History:     []agent.Turn{{Role: agent.RoleTutor, Content: "Olá!", At: created}},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	store := agent.NewMemoryStore()
	ctx := context.Background()
	sess := sampleSession("s1", time.Now().UTC())

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.ActiveTopic != "denominador_comum" || len(got.History) != 1 || len(got.Domain.Topics) != 2 {
		t.Errorf("Load() = %+v", got)
	}
}

func TestMemoryStore_LoadIsACopy(t *testing.T) {
	store := agent.NewMemoryStore()
	ctx := context.Background()
	_ = store.Save(ctx, sampleSession("s1", time.Now()))

	got, _ := store.Load(ctx, "s1")
	got.Student.Topics["denominador_comum"] = tutor.TopicProgress{Status: tutor.StatusUnderstood}
	got.History = append(got.History, agent.Turn{Role: agent.RoleLearner, Content: "x"})

	again, _ := store.Load(ctx, "s1")
	if again.Student.Topics["denominador_comum"].Status != tutor.StatusNotStarted {
		t.Error("mutating a loaded session leaked into the store")
	}
	if len(again.History) != 1 {
		t.Error("history leaked into the store")
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := agent.NewMemoryStore()
	_, err := store.Load(context.Background(), "nope")
	if !errors.Is(err, agent.ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStore_SaveRequiresID(t *testing.T) {
	store := agent.NewMemoryStore()
	if err := store.Save(context.Background(), &agent.Session{}); err == nil {
		t.Error("Save() should reject a session without id")
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	store := agent.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_ = store.Save(ctx, sampleSession("old", base))
	_ = store.Save(ctx, sampleSession("new", base.Add(time.Hour)))
	_ = store.Save(ctx, sampleSession("mid", base.Add(time.Minute)))

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	want := []string{"new", "mid", "old"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("List() order = %v, want %v", ids, want)
		}
	}
}

func TestLocalLocker_Serializes(t *testing.T) {
	locker := agent.NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session:a")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	other, err := locker.Lock(ctx, "session:b")
	if err != nil {
		t.Fatalf("Lock() on another key error = %v", err)
	}
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(waitCtx, "session:a"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Lock() error = %v, want deadline exceeded", err)
	}

	unlock()
	unlock() // idempotent
	again, err := locker.Lock(ctx, "session:a")
	if err != nil {
		t.Fatalf("Lock() after unlock error = %v", err)
	}
	again()
}
