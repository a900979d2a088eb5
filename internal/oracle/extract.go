package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema for one kind of oracle reply.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustSchema compiles a schema literal and panics if it is invalid.
func MustSchema(name, src string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// ExtractJSON returns the span from the first '{' to the last '}' in raw,
// after dropping a markdown fence wrapped around the whole reply. Backticks
// inside the object are kept.
func ExtractJSON(raw string) (string, error) {
	cleaned := stripFence(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", &FormatError{Reason: ReasonNoJSON}
	}
	return cleaned[start : end+1], nil
}

// stripFence removes an opening ``` (with its language tag) and a closing
// ``` from the ends of s.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		s = strings.TrimLeftFunc(rest, unicode.IsLetter)
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// Decode extracts the JSON object from raw, validates it against schema and
// unmarshals it into v. Every failure is a *FormatError; v is only written
// when the reply is fully valid.
func Decode(raw string, schema *Schema, v any) error {
	span, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if !json.Valid([]byte(span)) {
		return &FormatError{Reason: ReasonMalformed, Detail: "invalid JSON"}
	}

	if schema != nil {
		result, err := schema.schema.Validate(gojsonschema.NewStringLoader(span))
		if err != nil {
			return &FormatError{Reason: ReasonMalformed, Detail: err.Error()}
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return &FormatError{
				Reason: ReasonSchema,
				Detail: fmt.Sprintf("%s: %s", schema.name, strings.Join(msgs, "; ")),
			}
		}
	}

	if err := json.Unmarshal([]byte(span), v); err != nil {
		return &FormatError{Reason: ReasonMalformed, Detail: err.Error()}
	}
	return nil
}
