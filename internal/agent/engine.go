package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/oracle"
	"github.com/sigma-teacher/tutor/internal/tutor"
)

// ErrDomainUnavailable is returned by Start when no usable domain could be
// built from the source material.
var ErrDomainUnavailable = errors.New("domain unavailable")

const (
	greeting        = "Olá! Vamos começar.\n"
	advanceIntro    = "Ótimo! Vamos avançar.\n\n"
	retryMessage    = "Vamos continuar neste tópico. Tente novamente o exercício anterior."
	reactionPrompt  = "(Diga se entendeu ou se ainda tem dúvidas)"
	continuePrompt  = "Quando estiver pronto, envie qualquer mensagem para seguirmos para o próximo tópico."
	finishedMessage = "Este curso já foi concluído. Parabéns pelo seu esforço! Inicie uma nova sessão para estudar outro material."
	masteredAll     = "Parabéns! Você dominou todos os tópicos deste material."
	endOfMaterial   = "Chegamos ao fim do material."
)

// DomainCache keeps built domains keyed by their source.
type DomainCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// EngineConfig holds dependencies for the tutoring engine.
type EngineConfig struct {
	Oracle     tutor.DocumentOracle
	Store      SessionStore
	Locker     Locker
	Events     EventLogger
	Domains    DomainCache    // optional
	Selector   tutor.Selector // default: tutor.LinearSelector
	Reassess   bool           // ask for a reaction to feedback before advancing
	TopicCount int            // default tutor.DefaultTopicCount
	Audience   string         // default tutor.DefaultAudience
	// TurnTimeout bounds the work done while a session is locked. Keep it
	// below the Locker's expiry. Zero means no bound.
	TurnTimeout time.Duration
	Now         func() time.Time
}

// Engine drives the tutoring lifecycle. It keeps no state between calls:
// every turn loads the session, applies one transition and saves it.
type Engine struct {
	builder    *tutor.Builder
	evaluator  *tutor.Evaluator
	feedback   *tutor.FeedbackGenerator
	reassessor *tutor.Reassessor
	selector   tutor.Selector
	store      SessionStore
	locker     Locker
	events     EventLogger
	domains    DomainCache
	reassess   bool
	topicCount int
	audience   string
	timeout    time.Duration
	now        func() time.Time
}

// NewEngine creates a new tutoring engine.
func NewEngine(cfg EngineConfig) *Engine {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	locker := cfg.Locker
	if locker == nil {
		locker = NewLocalLocker()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	selector := cfg.Selector
	if selector == nil {
		selector = tutor.LinearSelector{}
	}
	topicCount := cfg.TopicCount
	if topicCount == 0 {
		topicCount = tutor.DefaultTopicCount
	}
	audience := cfg.Audience
	if audience == "" {
		audience = tutor.DefaultAudience
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		builder:    tutor.NewBuilder(cfg.Oracle),
		evaluator:  tutor.NewEvaluator(cfg.Oracle),
		feedback:   tutor.NewFeedbackGenerator(cfg.Oracle),
		reassessor: tutor.NewReassessor(cfg.Oracle),
		selector:   selector,
		store:      store,
		locker:     locker,
		events:     events,
		domains:    cfg.Domains,
		reassess:   cfg.Reassess,
		topicCount: topicCount,
		audience:   audience,
		timeout:    cfg.TurnTimeout,
		now:        now,
	}
}

// StartInput is the material a session is built from. Domain, when set, is
// used as is and nothing is sent to the oracle.
type StartInput struct {
	Text       string
	Documents  []ai.Document
	TopicCount int
	Audience   string
	Domain     *tutor.DomainModel
}

// TurnResult is what the learner gets back from a turn.
type TurnResult struct {
	SessionID    string             `json:"session_id"`
	TutorMessage string             `json:"tutor_message"`
	ActiveTopic  string             `json:"active_topic"`
	Status       Status             `json:"status"`
	Progress     float64            `json:"progress"`
	Student      tutor.StudentModel `json:"student_model"`
}

func newResult(s *Session, message string) TurnResult {
	return TurnResult{
		SessionID:    s.ID,
		TutorMessage: message,
		ActiveTopic:  s.ActiveTopic,
		Status:       s.Status,
		Progress:     s.Student.OverallProgress,
		Student:      s.Student,
	}
}

// step collects what one transition wants recorded once the session is saved.
type step struct {
	s      *Session
	events []Event
}

func (st *step) emit(eventType string, data map[string]any) {
	st.events = append(st.events, Event{EventType: eventType, Data: data})
}

// Start builds the domain, picks the first topic and creates the session.
func (e *Engine) Start(ctx context.Context, in StartInput) (TurnResult, error) {
	d, source, err := e.domain(ctx, in)
	if err != nil {
		return TurnResult{}, err
	}

	sm := tutor.NewStudentModel(d)
	topic, ok := e.selector.Select(ctx, sm, d)
	if !ok {
		topic = tutor.GeneralTopic
		if names := d.Names(); len(names) > 0 {
			topic = names[0]
		}
	}

	now := e.now()
	s := &Session{
		ID:          uuid.NewString(),
		Domain:      d,
		Student:     sm,
		ActiveTopic: topic,
		Status:      StatusAwaitingExercise,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	message := greeting + s.Topic().Presentation()
	s.addTurn(RoleTutor, message, now)

	if err := e.store.Save(ctx, s); err != nil {
		return TurnResult{}, fmt.Errorf("save session: %w", err)
	}

	st := &step{s: s}
	st.emit(EventSessionStarted, map[string]any{"topics": len(d.Topics), "domain_source": source})
	st.emit(EventTopicStarted, map[string]any{"topic": topic})
	e.flush(ctx, st)

	slog.Info("session started",
		"session_id", s.ID,
		"topics", len(d.Topics),
		"domain_source", source,
		"topic", topic,
	)
	return newResult(s, message), nil
}

// Turn feeds one learner message to the session and returns the tutor's
// reply. Oracle transport failures are returned and nothing is saved.
func (e *Engine) Turn(ctx context.Context, id, message string) (TurnResult, error) {
	unlock, err := e.locker.Lock(ctx, "session:"+id)
	if err != nil {
		return TurnResult{}, fmt.Errorf("lock session %s: %w", id, err)
	}
	defer unlock()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	s, err := e.store.Load(ctx, id)
	if err != nil {
		return TurnResult{}, err
	}

	now := e.now()
	from := s.Status
	s.addTurn(RoleLearner, message, now)
	st := &step{s: s}

	var reply string
	switch s.Status {
	case StatusCompleted:
		reply = finishedMessage
	case StatusAwaitingExercise:
		if e.curriculumDone(s) {
			reply = e.advance(ctx, st)
			break
		}
		reply, err = e.answer(ctx, st, message)
	case StatusAwaitingReaction:
		reply, err = e.react(ctx, st, message)
	case StatusAwaitingTransition:
		reply = e.advance(ctx, st)
	default:
		return TurnResult{}, fmt.Errorf("session %s has unknown status %q", id, s.Status)
	}
	if err != nil {
		slog.Error("turn failed", "session_id", id, "status", from, "error", err)
		return TurnResult{}, err
	}

	s.addTurn(RoleTutor, reply, e.now())
	s.UpdatedAt = now
	if err := e.store.Save(ctx, s); err != nil {
		return TurnResult{}, fmt.Errorf("save session: %w", err)
	}
	e.flush(ctx, st)

	slog.Info("turn processed",
		"session_id", id,
		"from", from,
		"to", s.Status,
		"topic", s.ActiveTopic,
		"progress", s.Student.OverallProgress,
	)
	return newResult(s, reply), nil
}

// Session returns a stored session.
func (e *Engine) Session(ctx context.Context, id string) (*Session, error) {
	return e.store.Load(ctx, id)
}

// Sessions lists stored sessions, newest first.
func (e *Engine) Sessions(ctx context.Context) ([]SessionSummary, error) {
	return e.store.List(ctx)
}

func (e *Engine) domain(ctx context.Context, in StartInput) (tutor.DomainModel, string, error) {
	if in.Domain != nil {
		return tutor.NewDomainModel(in.Domain.Topics, in.Domain.Sequence), "provided", nil
	}

	build := tutor.BuildInput{
		Text:       in.Text,
		Documents:  in.Documents,
		TopicCount: in.TopicCount,
		Audience:   in.Audience,
	}
	if build.TopicCount <= 0 {
		build.TopicCount = e.topicCount
	}
	if build.Audience == "" {
		build.Audience = e.audience
	}
	build = build.Normalized()
	key := "domain:" + tutor.SourceKey(build)

	if e.domains != nil {
		var cached tutor.DomainModel
		found, err := e.domains.Get(ctx, key, &cached)
		switch {
		case err != nil:
			slog.Warn("domain cache read failed", "error", err)
		case found:
			return cached, "cache", nil
		}
	}

	d, err := e.builder.Build(ctx, build)
	if err != nil {
		if errors.Is(err, oracle.ErrFormat) {
			return tutor.DomainModel{}, "", fmt.Errorf("%w: %w", ErrDomainUnavailable, err)
		}
		return tutor.DomainModel{}, "", err
	}

	if e.domains != nil && !d.Empty() {
		if err := e.domains.Set(ctx, key, d); err != nil {
			slog.Warn("domain cache write failed", "error", err)
		}
	}
	return d, "oracle", nil
}

// answer evaluates an exercise response and writes feedback.
func (e *Engine) answer(ctx context.Context, st *step, answer string) (string, error) {
	s := st.s
	topic := s.Topic()

	ev, sm, err := e.evaluator.Evaluate(ctx, tutor.EvaluationInput{
		Topic:   topic,
		Answer:  answer,
		Student: s.Student,
	})
	if err != nil {
		if !errors.Is(err, oracle.ErrFormat) {
			return "", err
		}
		st.emit(EventEvaluationFailed, map[string]any{"topic": topic.Name, "error": err.Error()})
		return retryMessage + "\n\nExercício: " + topic.ExerciseText(), nil
	}
	s.Student = sm
	st.emit(EventAnswerEvaluated, map[string]any{
		"topic":         topic.Name,
		"verdict":       string(ev.Verdict),
		"comprehension": ev.Comprehension,
		"applied":       ev.Applied,
	})

	fb, err := e.feedback.Generate(ctx, tutor.FeedbackInput{
		Topic:      topic,
		Answer:     answer,
		Evaluation: ev,
	})
	if err != nil {
		return "", err
	}
	if fb.Fallback {
		st.emit(EventFeedbackFailed, map[string]any{"topic": topic.Name})
	}

	if !e.shouldAdvance(s, fb) {
		return fb.Message + "\n\nExercício: " + topic.ExerciseText(), nil
	}
	if e.reassess {
		s.Status = StatusAwaitingReaction
		return fb.Message + "\n\n" + reactionPrompt, nil
	}
	s.Status = StatusAwaitingTransition
	return fb.Message + "\n\n" + continuePrompt, nil
}

// shouldAdvance requires both the feedback's advice and a mastered topic.
// A topic the student model does not track, such as General, follows the
// feedback alone. Once every topic is understood the session always moves
// on, whatever the feedback says.
func (e *Engine) shouldAdvance(s *Session, fb tutor.Feedback) bool {
	if e.curriculumDone(s) {
		return true
	}
	if fb.NextAction != tutor.ActionAdvance {
		return false
	}
	if _, _, tracked := s.Student.Progress(s.ActiveTopic); !tracked {
		return true
	}
	return s.Student.IsUnderstood(s.ActiveTopic)
}

// curriculumDone reports whether every tracked topic is understood. A
// session without tracked topics is never done by this rule.
func (e *Engine) curriculumDone(s *Session) bool {
	if len(s.Student.Topics) == 0 {
		return false
	}
	_, ok := tutor.SelectNext(s.Student, s.Domain)
	return !ok
}

// react reassesses the last mastery update from the learner's reaction to
// feedback. A downgrade keeps the learner on the topic; otherwise the
// session moves on in the same turn.
func (e *Engine) react(ctx context.Context, st *step, reaction string) (string, error) {
	s := st.s
	answer, feedback := s.lastExchange()

	ra, sm, err := e.reassessor.Reassess(ctx, tutor.ReassessInput{
		Topic:    s.ActiveTopic,
		Answer:   answer,
		Feedback: feedback,
		Reaction: reaction,
		Student:  s.Student,
	})
	switch {
	case err != nil && !errors.Is(err, oracle.ErrFormat):
		return "", err
	case err == nil && ra.Applied:
		s.Student = sm
		s.Status = StatusAwaitingExercise
		st.emit(EventMasteryAdjusted, map[string]any{
			"topic":     s.ActiveTopic,
			"from":      string(ra.From),
			"to":        string(ra.To),
			"reaction":  ra.Reaction,
			"rationale": ra.Rationale,
		})
		return retryMessage + "\n\nExercício: " + s.Topic().ExerciseText(), nil
	}
	return e.advance(ctx, st), nil
}

// advance moves to the next topic, or completes the session when there is
// none or the selector would repeat the current one.
func (e *Engine) advance(ctx context.Context, st *step) string {
	s := st.s
	s.Student.Recompute()

	next, ok := e.selector.Select(ctx, s.Student, s.Domain)
	if !ok || tutor.SameTopic(next, s.ActiveTopic) {
		s.Status = StatusCompleted
		correct, attempts := s.Student.Totals()
		st.emit(EventSessionCompleted, map[string]any{
			"topics":     len(s.Student.Topics),
			"understood": s.Student.Understood(),
			"correct":    correct,
			"attempts":   attempts,
		})
		return completionMessage(s.Student)
	}

	s.ActiveTopic = next
	s.Status = StatusAwaitingExercise
	st.emit(EventTopicStarted, map[string]any{"topic": next})
	return advanceIntro + s.Topic().Presentation()
}

func completionMessage(sm tutor.StudentModel) string {
	total := len(sm.Topics)
	understood := sm.Understood()
	correct, attempts := sm.Totals()

	head := endOfMaterial
	if total > 0 && understood == total {
		head = masteredAll
	}
	return fmt.Sprintf("%s\n\nResumo:\n- Tópicos: %d\n- Compreendidos: %d\n- Acertos: %d de %d tentativas\n- Progresso geral: %.1f%%",
		head, total, understood, correct, attempts, sm.OverallProgress)
}

func (e *Engine) flush(ctx context.Context, st *step) {
	for _, ev := range st.events {
		ev.SessionID = st.s.ID
		if err := e.events.LogEvent(ctx, ev); err != nil {
			slog.Warn("failed to log event", "type", ev.EventType, "session_id", st.s.ID, "error", err)
		}
	}
}
