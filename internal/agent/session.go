package agent

import (
	"time"

	"github.com/sigma-teacher/tutor/internal/tutor"
)

// Status is a session's position in the tutoring lifecycle.
type Status string

const (
	StatusAwaitingExercise   Status = "awaiting_exercise_response"
	StatusAwaitingReaction   Status = "awaiting_feedback_reaction"
	StatusAwaitingTransition Status = "awaiting_transition"
	StatusCompleted          Status = "completed"
)

// Role tags who wrote a turn.
type Role string

const (
	RoleTutor   Role = "tutor"
	RoleLearner Role = "learner"
)

// Turn is one message in a session's history.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session is the unit of persistence. Everything a turn needs is in here.
type Session struct {
	ID          string             `json:"id"`
	Domain      tutor.DomainModel  `json:"domain"`
	Student     tutor.StudentModel `json:"student"`
	History     []Turn             `json:"history"`
	ActiveTopic string             `json:"active_topic"`
	Status      Status             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// SessionSummary is the listing view of a session.
type SessionSummary struct {
	ID          string    `json:"id"`
	ActiveTopic string    `json:"active_topic"`
	Status      Status    `json:"status"`
	Progress    float64   `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary returns the listing view of s.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:          s.ID,
		ActiveTopic: s.ActiveTopic,
		Status:      s.Status,
		Progress:    s.Student.OverallProgress,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Topic returns the active topic. A topic the domain does not know, such as
// the General fallback, gets a generic presentation.
func (s *Session) Topic() tutor.Topic {
	if t, ok := s.Domain.Lookup(s.ActiveTopic); ok {
		return t
	}
	return tutor.Topic{
		Name:        s.ActiveTopic,
		Explanation: "Vamos revisar juntos o material da aula.",
		Exercise:    "Conte com suas palavras o que você aprendeu sobre o assunto.",
	}
}

func (s *Session) addTurn(role Role, content string, at time.Time) {
	s.History = append(s.History, Turn{Role: role, Content: content, At: at})
}

// lastExchange returns the learner answer and the tutor feedback that came
// right before the latest learner message.
func (s *Session) lastExchange() (answer, feedback string) {
	n := len(s.History)
	if n >= 2 && s.History[n-2].Role == RoleTutor {
		feedback = s.History[n-2].Content
	}
	if n >= 3 && s.History[n-3].Role == RoleLearner {
		answer = s.History[n-3].Content
	}
	return answer, feedback
}
