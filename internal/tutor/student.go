package tutor

import (
	"math"
	"strings"
)

// MasteryThreshold is the comprehension score at which a topic counts as
// understood.
const MasteryThreshold = 70

// Status is the progress state of one topic.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusUnderstood Status = "understood"
)

// Level is the three-step mastery ladder derived from TopicProgress.
type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

const intermediateFloor = 40

// ParseLevel accepts English and Portuguese level names.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner", "iniciante":
		return LevelBeginner, true
	case "intermediate", "intermediário", "intermediario":
		return LevelIntermediate, true
	case "advanced", "avançado", "avancado":
		return LevelAdvanced, true
	}
	return "", false
}

// TopicProgress is the learner's state on one topic.
type TopicProgress struct {
	Status        Status `json:"status"`
	Attempts      int    `json:"attempts"`
	CorrectCount  int    `json:"correct_count"`
	Comprehension int    `json:"comprehension"`
}

// Level maps the progress record onto the mastery ladder.
func (p TopicProgress) Level() Level {
	switch {
	case p.Status == StatusUnderstood:
		return LevelAdvanced
	case p.Status == StatusNotStarted || p.Comprehension < intermediateFloor:
		return LevelBeginner
	default:
		return LevelIntermediate
	}
}

// Downgraded returns the record moved one level down the ladder.
func (p TopicProgress) Downgraded() TopicProgress {
	switch p.Level() {
	case LevelAdvanced:
		p.Status = StatusInProgress
		p.Comprehension = min(p.Comprehension, MasteryThreshold-1)
	case LevelIntermediate:
		p.Comprehension = min(p.Comprehension, intermediateFloor-1)
	}
	return p
}

// ProgressForLevel builds the record equivalent to a bare mastery level.
func ProgressForLevel(l Level) TopicProgress {
	switch l {
	case LevelAdvanced:
		return TopicProgress{Status: StatusUnderstood, Comprehension: MasteryThreshold}
	case LevelIntermediate:
		return TopicProgress{Status: StatusInProgress, Comprehension: intermediateFloor}
	default:
		return TopicProgress{Status: StatusNotStarted}
	}
}

// StudentModel is the learner's knowledge state, one entry per topic.
type StudentModel struct {
	Topics          map[string]TopicProgress `json:"topics"`
	OverallProgress float64                  `json:"overall_progress"`
	OverallLevel    Level                    `json:"overall_level"`
}

// NewStudentModel creates a model with every topic of d not started.
func NewStudentModel(d DomainModel) StudentModel {
	sm := StudentModel{Topics: make(map[string]TopicProgress, len(d.Topics))}
	for _, t := range d.Topics {
		sm.Topics[t.Name] = TopicProgress{Status: StatusNotStarted}
	}
	sm.Recompute()
	return sm
}

// Clone returns a deep copy.
func (sm StudentModel) Clone() StudentModel {
	out := sm
	out.Topics = make(map[string]TopicProgress, len(sm.Topics))
	for k, v := range sm.Topics {
		out.Topics[k] = v
	}
	return out
}

// Recompute refreshes the aggregate fields from the per-topic records.
func (sm *StudentModel) Recompute() {
	total := len(sm.Topics)
	if total == 0 {
		sm.OverallProgress = 0
	} else {
		p := float64(sm.Understood()) / float64(total) * 100
		sm.OverallProgress = math.Round(p*10) / 10
	}
	switch {
	case sm.OverallProgress < 40:
		sm.OverallLevel = LevelBeginner
	case sm.OverallProgress < 80:
		sm.OverallLevel = LevelIntermediate
	default:
		sm.OverallLevel = LevelAdvanced
	}
}

// Progress returns the record for name, matching names loosely.
func (sm StudentModel) Progress(name string) (string, TopicProgress, bool) {
	if p, ok := sm.Topics[name]; ok {
		return name, p, true
	}
	for k, p := range sm.Topics {
		if SameTopic(k, name) {
			return k, p, true
		}
	}
	return "", TopicProgress{}, false
}

// IsUnderstood reports whether the named topic is understood.
func (sm StudentModel) IsUnderstood(name string) bool {
	_, p, ok := sm.Progress(name)
	return ok && p.Status == StatusUnderstood
}

// Understood counts understood topics.
func (sm StudentModel) Understood() int {
	n := 0
	for _, p := range sm.Topics {
		if p.Status == StatusUnderstood {
			n++
		}
	}
	return n
}

// Totals returns the summed correct answers and attempts.
func (sm StudentModel) Totals() (correct, attempts int) {
	for _, p := range sm.Topics {
		correct += p.CorrectCount
		attempts += p.Attempts
	}
	return correct, attempts
}

// Levels returns the flat topic to level view of the model.
func (sm StudentModel) Levels() map[string]Level {
	out := make(map[string]Level, len(sm.Topics))
	for k, p := range sm.Topics {
		out[k] = p.Level()
	}
	return out
}
