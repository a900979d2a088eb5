package oracle

import (
	"errors"
	"fmt"
)

// ErrFormat matches every *FormatError via errors.Is.
var ErrFormat = errors.New("oracle format error")

// Reason classifies why a reply could not be used.
type Reason string

const (
	ReasonEmpty     Reason = "empty"
	ReasonNoJSON    Reason = "no_json"
	ReasonMalformed Reason = "malformed"
	ReasonSchema    Reason = "schema"
)

// FormatError means the oracle answered but the answer is unusable. Callers
// recover locally with a fallback.
type FormatError struct {
	Reason Reason
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("oracle format error (%s)", e.Reason)
	}
	return fmt.Sprintf("oracle format error (%s): %s", e.Reason, e.Detail)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// TransportError means no provider produced a reply after retries. It is
// fatal for the current turn.
type TransportError struct {
	Task string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle transport (%s): %v", e.Task, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is an oracle transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
