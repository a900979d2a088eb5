// Package tutor holds the pedagogical core: the domain and student models and
// the components that build, sequence, grade and give feedback on them.
package tutor

import (
	"fmt"
	"sort"
	"strings"
)

// GeneralTopic is the placeholder topic used when a domain has no topics.
const GeneralTopic = "General"

// Quiz is a multiple-choice exercise.
type Quiz struct {
	Question      string            `json:"question" yaml:"question"`
	Options       map[string]string `json:"options" yaml:"options"`
	CorrectOption string            `json:"correct_option" yaml:"correct_option"`
	Feedback      QuizFeedback      `json:"feedback" yaml:"feedback"`
}

// QuizFeedback holds the per-outcome messages authored with a quiz.
type QuizFeedback struct {
	Correct   string `json:"correct" yaml:"correct"`
	Incorrect string `json:"incorrect" yaml:"incorrect"`
}

// OptionKeys returns the option keys in display order.
func (q Quiz) OptionKeys() []string {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render formats the quiz as a question followed by "a) ..." lines.
func (q Quiz) Render() string {
	var b strings.Builder
	b.WriteString(q.Question)
	for _, k := range q.OptionKeys() {
		fmt.Fprintf(&b, "\n%s) %s", k, q.Options[k])
	}
	return b.String()
}

// Topic is one unit of curriculum. It never changes after the domain is built.
type Topic struct {
	Name          string   `json:"name" yaml:"name"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
	Exercise      string   `json:"exercise,omitempty" yaml:"exercise,omitempty"`
	Quiz          *Quiz    `json:"quiz,omitempty" yaml:"quiz,omitempty"`
	Difficulty    string   `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Prerequisites []string `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}

// ExerciseText returns the exercise as shown to the learner.
func (t Topic) ExerciseText() string {
	if t.Quiz != nil && t.Quiz.Question != "" {
		if t.Exercise != "" {
			return t.Exercise + "\n" + t.Quiz.Render()
		}
		return t.Quiz.Render()
	}
	return t.Exercise
}

// Presentation is the tutor message that introduces the topic.
func (t Topic) Presentation() string {
	return fmt.Sprintf("Tópico: %s\nExplicação: %s\n\nExercício: %s", t.Name, t.Explanation, t.ExerciseText())
}

// DomainModel is the generated curriculum: topics in insertion order, unique
// by name, plus a recommended teaching sequence.
type DomainModel struct {
	Topics   []Topic  `json:"topics" yaml:"topics"`
	Sequence []string `json:"recommended_sequence" yaml:"recommended_sequence"`
}

// NewDomainModel keys topics by name and repairs the sequence. A topic whose
// name repeats an earlier one replaces it in place.
func NewDomainModel(topics []Topic, sequence []string) DomainModel {
	var d DomainModel
	index := make(map[string]int, len(topics))
	for _, t := range topics {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			continue
		}
		key := topicKey(t.Name)
		if i, ok := index[key]; ok {
			d.Topics[i] = t
			continue
		}
		index[key] = len(d.Topics)
		d.Topics = append(d.Topics, t)
	}
	d.Sequence = RepairSequence(sequence, d)
	return d
}

// Names returns the topic names in insertion order.
func (d DomainModel) Names() []string {
	names := make([]string, len(d.Topics))
	for i, t := range d.Topics {
		names[i] = t.Name
	}
	return names
}

// Lookup finds a topic by name, tolerating case, spacing and Unicode
// normalization differences.
func (d DomainModel) Lookup(name string) (Topic, bool) {
	key := topicKey(name)
	for _, t := range d.Topics {
		if topicKey(t.Name) == key {
			return t, true
		}
	}
	return Topic{}, false
}

// Empty reports whether the domain has no topics.
func (d DomainModel) Empty() bool { return len(d.Topics) == 0 }

// RepairSequence returns seq with each entry canonicalized to the real topic
// name. If any entry is unknown, or seq is empty while topics exist, the
// whole sequence is replaced by the topic names in insertion order.
func RepairSequence(seq []string, d DomainModel) []string {
	if len(seq) == 0 {
		return d.Names()
	}
	repaired := make([]string, 0, len(seq))
	for _, name := range seq {
		t, ok := d.Lookup(name)
		if !ok {
			return d.Names()
		}
		repaired = append(repaired, t.Name)
	}
	return repaired
}
