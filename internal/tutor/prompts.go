package tutor

import (
	"encoding/json"
	"fmt"
	"strings"
)

const languageRule = "Write every learner-facing string in Brazilian Portuguese."

// SystemPrompt is sent ahead of every oracle call.
const SystemPrompt = "You are a friendly and encouraging Intelligent Tutoring System (ITS)."

func domainPrompt(in BuildInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are a subject-matter expert preparing a short course for the audience %q.
Use ONLY the material supplied below and in the attached documents. Do not add topics the material does not cover.

Produce exactly %d topics. For each topic provide:
1. "name": a short unique identifier (snake_case, no spaces).
2. "explanation": a simple, self-contained explanation.
3. "exercise": one open exercise that checks understanding, OR "quiz": a multiple-choice question with
   "question", "options" (keys "a", "b", "c", ...), "correct_option" and "feedback" {"correct", "incorrect"}.
4. "difficulty": one of "easy", "medium", "hard".
5. "prerequisites": the names of other topics in this list that should be learned first.
Explanations and exercises must not refer to other sentences or to the material itself.

Also return "recommended_sequence": every topic name, ordered for teaching.

%s
Return ONLY a JSON object with the keys "topics" and "recommended_sequence". Do not use markdown fences.

Example:
{"topics":[{"name":"denominador_comum","explanation":"O denominador comum é um múltiplo compartilhado pelos denominadores de duas ou mais frações.","exercise":"Qual é o menor denominador comum para 1/3 e 1/5?","difficulty":"easy","prerequisites":[]},{"name":"soma_fracoes","explanation":"Para somar frações, primeiro encontre um denominador comum. Depois, some os numeradores.","exercise":"Quanto é 1/2 + 1/4?","difficulty":"medium","prerequisites":["denominador_comum"]}],"recommended_sequence":["denominador_comum","soma_fracoes"]}
`, in.Audience, in.TopicCount, languageRule)

	if strings.TrimSpace(in.Text) != "" {
		b.WriteString("\nMaterial:\n")
		b.WriteString(in.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func evaluationPrompt(topic Topic, exercise, answer string, sm StudentModel) (string, error) {
	model, err := json.MarshalIndent(sm.Topics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal student model: %w", err)
	}
	var key string
	if topic.Quiz != nil {
		key = fmt.Sprintf("\n- Correct option: %q", topic.Quiz.CorrectOption)
	}
	return fmt.Sprintf(`You are a teacher and assessor in an Intelligent Tutoring System.
Assess the learner's answer to the exercise below.

Context:
- Topic being taught: %q
- Exercise given to the learner: %q%s
- Learner's answer: %q
- Current student model:
%s

Think step by step:
1. Is the answer "correct", "partially_correct" or "incorrect"?
2. Given the quality of the answer, how well does the learner now understand %q, from 0 to 100?
3. Estimate the learner's affective state from the tone of the answer (e.g. "confiante", "confuso", "frustrado", "neutro").
4. Explain your assessment in one or two short sentences.

%s
Return ONLY a JSON object, without markdown fences, with the keys:
- "evaluated_topic": the topic you assessed, exactly %q
- "verdict": "correct", "partially_correct" or "incorrect"
- "comprehension": a number from 0 to 100
- "rationale": your short explanation
- "affective_state": the estimated affective state
`, topic.Name, exercise, key, answer, model, topic.Name, languageRule, topic.Name), nil
}

func feedbackPrompt(in FeedbackInput) string {
	tone := `The answer was judged correct. Congratulate the learner briefly and set "next_action" to "advance".`
	if !in.Evaluation.Correct() {
		tone = `The answer was not fully correct. Be patient: point out the misconception, give a hint WITHOUT revealing the answer, ask the learner to try again, and set "next_action" to "revise".`
	}
	return fmt.Sprintf(`As an Intelligent Tutoring System, write feedback on the learner's answer.

Topic: %q
Exercise: %q
Learner's answer: %q
Assessment: %s (%s)

%s
%s
Return ONLY a JSON object, without markdown fences, with the keys:
- "message": the feedback for the learner
- "next_action": "advance" or "revise"
`, in.Topic.Name, in.Exercise, in.Answer, in.Evaluation.Verdict, in.Evaluation.Rationale, tone, languageRule)
}

func reassessPrompt(in ReassessInput) (string, error) {
	model, err := json.MarshalIndent(in.Student.Levels(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal student levels: %w", err)
	}
	return fmt.Sprintf(`You are an educational psychologist fine-tuning a learner model in an Intelligent Tutoring System.
The learner just finished an assessment cycle and the model was updated. Check whether the learner's
reaction to the feedback confirms that update.

Interaction cycle:
1. Learner (initial answer): %q
2. Tutor (feedback): %q
3. Learner (reaction to feedback): %q

Student model after the update (topic -> level):
%s

Think step by step:
1. Which topic (a key of the student model) was discussed in this cycle?
2. Does the reaction show confidence and understanding ("Entendi!", "Obrigado") or confusion,
   insecurity or a lucky guess ("Ainda estou confuso", "Por quê?", "Acertei no chute")?
3. If it shows confusion, the update was premature and must be lowered.
4. If lowering, suggest the previous level on the ladder beginner -> intermediate -> advanced.

Return ONLY a JSON object, without markdown fences, with the keys:
- "inferred_topic": the topic key
- "reaction": e.g. "confusa", "positiva", "neutra"
- "needs_adjustment": true if the reaction contradicts the mastery level
- "suggested_level": the lower level, or null when no adjustment is needed
- "rationale": a short explanation
`, in.Answer, in.Feedback, in.Reaction, model), nil
}

func selectionPrompt(sm StudentModel, d DomainModel) (string, error) {
	type entry struct {
		Name          string   `json:"name"`
		Difficulty    string   `json:"difficulty,omitempty"`
		Prerequisites []string `json:"prerequisites,omitempty"`
		Status        Status   `json:"status"`
		Comprehension int      `json:"comprehension"`
	}
	entries := make([]entry, 0, len(d.Topics))
	for _, t := range d.Topics {
		_, p, _ := sm.Progress(t.Name)
		entries = append(entries, entry{t.Name, t.Difficulty, t.Prerequisites, p.Status, p.Comprehension})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal topics: %w", err)
	}
	return fmt.Sprintf(`You are an Intelligent Tutoring System deciding which topic to teach next.

Available topics and the learner's progress:
%s

Think step by step:
1. Work out what the learner has already understood.
2. Pick the most logical next topic that is not yet understood, teaching a topic only when its prerequisites are understood.

Return ONLY a JSON object with the keys "next_topic" (one of the topic names above) and "reasoning" (2-3 very short sentences).
`, data), nil
}
