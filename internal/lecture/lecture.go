// Package lecture stores lecture transcripts, the text material tutoring
// sessions are built from.
package lecture

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lecture id is unknown.
var ErrNotFound = errors.New("lecture not found")

// Lecture is a transcribed class.
type Lecture struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Transcript string    `json:"transcript"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists lectures.
type Store interface {
	Create(ctx context.Context, l Lecture) (Lecture, error)
	Get(ctx context.Context, id string) (Lecture, error)
	List(ctx context.Context) ([]Lecture, error)
}

// Source joins lecture transcripts ahead of free text into the material a
// domain is built from.
func Source(lectures []Lecture, text string) string {
	var b strings.Builder
	for _, l := range lectures {
		b.WriteString("\nTranscr: ")
		b.WriteString(strings.TrimSpace(l.Transcript))
	}
	if t := strings.TrimSpace(text); t != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(t)
	}
	return b.String()
}

// Resolve loads every id in order.
func Resolve(ctx context.Context, s Store, ids []string) ([]Lecture, error) {
	out := make([]Lecture, 0, len(ids))
	for _, id := range ids {
		l, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func prepare(l Lecture) (Lecture, error) {
	if strings.TrimSpace(l.Transcript) == "" {
		return Lecture{}, fmt.Errorf("transcript is required")
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.Title = strings.TrimSpace(l.Title)
	return l, nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	lectures map[string]Lecture
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lectures: make(map[string]Lecture)}
}

func (s *MemoryStore) Create(_ context.Context, l Lecture) (Lecture, error) {
	l, err := prepare(l)
	if err != nil {
		return Lecture{}, err
	}
	s.mu.Lock()
	s.lectures[l.ID] = l
	s.mu.Unlock()
	return l, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Lecture, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lectures[id]
	if !ok {
		return Lecture{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return l, nil
}

// List returns lectures newest first.
func (s *MemoryStore) List(_ context.Context) ([]Lecture, error) {
	s.mu.RLock()
	out := make([]Lecture, 0, len(s.lectures))
	for _, l := range s.lectures {
		out = append(out, l)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Lecture) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
