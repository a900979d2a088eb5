package tutor

import "github.com/sigma-teacher/tutor/internal/oracle"

var domainSchema = oracle.MustSchema("domain", `{
  "type": "object",
  "required": ["topics"],
  "properties": {
    "topics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "explanation"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "explanation": {"type": "string"},
          "exercise": {"type": "string"},
          "difficulty": {"type": "string"},
          "prerequisites": {"type": "array", "items": {"type": "string"}},
          "quiz": {
            "type": ["object", "null"],
            "required": ["question", "options", "correct_option"],
            "properties": {
              "question": {"type": "string"},
              "options": {"type": "object", "additionalProperties": {"type": "string"}},
              "correct_option": {"type": "string"},
              "feedback": {
                "type": "object",
                "properties": {
                  "correct": {"type": "string"},
                  "incorrect": {"type": "string"}
                }
              }
            }
          }
        }
      }
    },
    "recommended_sequence": {"type": "array", "items": {"type": "string"}}
  }
}`)

var evaluationSchema = oracle.MustSchema("evaluation", `{
  "type": "object",
  "required": ["evaluated_topic", "verdict", "comprehension"],
  "properties": {
    "evaluated_topic": {"type": "string"},
    "verdict": {"type": "string", "enum": ["correct", "partially_correct", "incorrect"]},
    "comprehension": {"type": "number", "minimum": 0, "maximum": 100},
    "rationale": {"type": "string"},
    "affective_state": {"type": "string"}
  }
}`)

var feedbackSchema = oracle.MustSchema("feedback", `{
  "type": "object",
  "required": ["message", "next_action"],
  "properties": {
    "message": {"type": "string", "minLength": 1},
    "next_action": {"type": "string", "enum": ["advance", "revise"]}
  }
}`)

var reassessSchema = oracle.MustSchema("reassessment", `{
  "type": "object",
  "required": ["needs_adjustment"],
  "properties": {
    "inferred_topic": {"type": "string"},
    "reaction": {"type": "string"},
    "needs_adjustment": {"type": "boolean"},
    "suggested_level": {"type": ["string", "null"]},
    "rationale": {"type": "string"}
  }
}`)

var selectionSchema = oracle.MustSchema("selection", `{
  "type": "object",
  "required": ["next_topic"],
  "properties": {
    "next_topic": {"type": "string"},
    "reasoning": {"type": "string"}
  }
}`)
