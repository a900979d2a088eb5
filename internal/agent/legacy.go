package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sigma-teacher/tutor/internal/tutor"
)

// sessionRecord is a session as stored: the models and history are opaque
// JSON text, only id, active topic and status are queryable.
type sessionRecord struct {
	ID          string
	Domain      string
	Student     string
	History     string
	ActiveTopic string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func encodeRecord(s *Session) (sessionRecord, error) {
	domain, err := json.Marshal(s.Domain)
	if err != nil {
		return sessionRecord{}, fmt.Errorf("encode domain: %w", err)
	}
	student, err := json.Marshal(s.Student)
	if err != nil {
		return sessionRecord{}, fmt.Errorf("encode student model: %w", err)
	}
	history := s.History
	if history == nil {
		history = []Turn{}
	}
	hist, err := json.Marshal(history)
	if err != nil {
		return sessionRecord{}, fmt.Errorf("encode history: %w", err)
	}
	return sessionRecord{
		ID:          s.ID,
		Domain:      string(domain),
		Student:     string(student),
		History:     string(hist),
		ActiveTopic: s.ActiveTopic,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

// decode rebuilds a Session, converting records written in the older
// layouts: a name-keyed domain, a flat topic to level student model and
// role/parts history.
func (r sessionRecord) decode() (*Session, error) {
	domain, err := decodeDomain([]byte(r.Domain))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	student, err := decodeStudent([]byte(r.Student), domain)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	history, err := decodeHistory([]byte(r.History), r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", r.ID, err)
	}
	return &Session{
		ID:          r.ID,
		Domain:      domain,
		Student:     student,
		History:     history,
		ActiveTopic: r.ActiveTopic,
		Status:      decodeStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

type legacyTopic struct {
	Explanation   string   `json:"explicacao"`
	Exercise      string   `json:"exercicio"`
	Prerequisites []string `json:"pre_requisitos"`
	Difficulty    string   `json:"dificuldade"`
}

func decodeDomain(data []byte) (tutor.DomainModel, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return tutor.DomainModel{}, fmt.Errorf("decode domain: %w", err)
	}
	if raw, ok := fields["topics"]; ok && isJSONArray(raw) {
		var d tutor.DomainModel
		if err := json.Unmarshal(data, &d); err != nil {
			return tutor.DomainModel{}, fmt.Errorf("decode domain: %w", err)
		}
		return d, nil
	}

	// Legacy layout: topic name to topic, in document order.
	names, err := objectKeys(data)
	if err != nil {
		return tutor.DomainModel{}, fmt.Errorf("decode legacy domain: %w", err)
	}
	topics := make([]tutor.Topic, 0, len(names))
	for _, name := range names {
		var lt legacyTopic
		if err := json.Unmarshal(fields[name], &lt); err != nil {
			return tutor.DomainModel{}, fmt.Errorf("decode legacy topic %q: %w", name, err)
		}
		topics = append(topics, tutor.Topic{
			Name:          name,
			Explanation:   lt.Explanation,
			Exercise:      lt.Exercise,
			Difficulty:    lt.Difficulty,
			Prerequisites: lt.Prerequisites,
		})
	}
	return tutor.NewDomainModel(topics, nil), nil
}

func decodeStudent(data []byte, d tutor.DomainModel) (tutor.StudentModel, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return tutor.StudentModel{}, fmt.Errorf("decode student model: %w", err)
	}
	if raw, ok := fields["topics"]; ok && isJSONObject(raw) {
		var sm tutor.StudentModel
		if err := json.Unmarshal(data, &sm); err != nil {
			return tutor.StudentModel{}, fmt.Errorf("decode student model: %w", err)
		}
		if sm.Topics == nil {
			sm.Topics = map[string]tutor.TopicProgress{}
		}
		return sm, nil
	}

	// Legacy layout: topic name to mastery level.
	sm := tutor.NewStudentModel(d)
	for name, raw := range fields {
		var level string
		if err := json.Unmarshal(raw, &level); err != nil {
			return tutor.StudentModel{}, fmt.Errorf("decode legacy level for %q: %w", name, err)
		}
		l, ok := tutor.ParseLevel(level)
		if !ok {
			return tutor.StudentModel{}, fmt.Errorf("unknown mastery level %q for %q", level, name)
		}
		key := name
		if k, _, found := sm.Progress(name); found {
			key = k
		}
		sm.Topics[key] = tutor.ProgressForLevel(l)
	}
	sm.Recompute()
	return sm, nil
}

type storedTurn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
	Parts   []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func decodeHistory(data []byte, fallback time.Time) ([]Turn, error) {
	var stored []storedTurn
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	history := make([]Turn, 0, len(stored))
	for _, st := range stored {
		t := Turn{Content: st.Content, At: st.At}
		switch st.Role {
		case string(RoleTutor), "model", "assistant":
			t.Role = RoleTutor
		case string(RoleLearner), "user":
			t.Role = RoleLearner
		default:
			return nil, fmt.Errorf("unknown history role %q", st.Role)
		}
		if t.Content == "" && len(st.Parts) > 0 {
			texts := make([]string, len(st.Parts))
			for i, p := range st.Parts {
				texts[i] = p.Text
			}
			t.Content = strings.Join(texts, "\n")
		}
		if t.At.IsZero() {
			t.At = fallback
		}
		history = append(history, t)
	}
	return history, nil
}

func decodeStatus(s string) Status {
	switch s {
	case "aguardando_resposta_exercicio", "ativo":
		return StatusAwaitingExercise
	case "aguardando_reacao_feedback":
		return StatusAwaitingReaction
	case "aguardando_transicao":
		return StatusAwaitingTransition
	case "concluido":
		return StatusCompleted
	}
	return Status(s)
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func isJSONArray(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("["))
}

func isJSONObject(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}
