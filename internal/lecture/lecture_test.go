package lecture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sigma-teacher/tutor/internal/lecture"
)

func TestSource(t *testing.T) {
	tests := []struct {
		name     string
		lectures []lecture.Lecture
		text     string
		want     string
	}{
		{"text only", nil, "  frações  ", "frações"},
		{"lectures only", []lecture.Lecture{{Transcript: "aula 1"}, {Transcript: " aula 2 "}}, "", "\nTranscr: aula 1\nTranscr: aula 2"},
		{"both", []lecture.Lecture{{Transcript: "aula 1"}}, "extra", "\nTranscr: aula 1\nextra"},
		{"nothing", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lecture.Source(tt.lectures, tt.text); got != tt.want {
				t.Errorf("Source() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	store := lecture.NewMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, lecture.Lecture{Title: " Frações ", Transcript: "Hoje vamos somar frações.", CreatedAt: time.Unix(100, 0)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID == "" || first.Title != "Frações" {
		t.Errorf("Create() = %+v", first)
	}
	second, _ := store.Create(ctx, lecture.Lecture{Transcript: "MMC.", CreatedAt: time.Unix(200, 0)})

	got, err := store.Get(ctx, first.ID)
	if err != nil || got.Transcript != "Hoje vamos somar frações." {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	list, _ := store.List(ctx)
	if len(list) != 2 || list[0].ID != second.ID {
		t.Errorf("List() = %+v, want newest first", list)
	}

	resolved, err := lecture.Resolve(ctx, store, []string{second.ID, first.ID})
	if err != nil || len(resolved) != 2 || resolved[0].ID != second.ID {
		t.Errorf("Resolve() = %+v, %v", resolved, err)
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	store := lecture.NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, lecture.Lecture{Title: "vazia"}); err == nil {
		t.Error("Create() should reject an empty transcript")
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, lecture.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if _, err := lecture.Resolve(ctx, store, []string{"missing"}); !errors.Is(err, lecture.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := lecture.NewPostgresStore(nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
}
