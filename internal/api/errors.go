package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/lecture"
	"github.com/sigma-teacher/tutor/internal/oracle"
)

// APIError is the structured error body returned by every endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// NewAPIError creates a new API error.
func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithCause wraps an underlying error.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

func errBadRequest(message string) *APIError {
	return NewAPIError("BAD_REQUEST", message)
}

func errNotFound(resource string) *APIError {
	return NewAPIError("NOT_FOUND", resource+" not found")
}

// ErrorResponse is the JSON structure for error responses.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// classify maps a service error to an HTTP status and API error.
func classify(err error) (int, *APIError) {
	switch {
	case errors.Is(err, agent.ErrSessionNotFound):
		return http.StatusNotFound, errNotFound("session").WithCause(err)
	case errors.Is(err, lecture.ErrNotFound):
		return http.StatusNotFound, errNotFound("lecture").WithCause(err)
	case errors.Is(err, agent.ErrDomainUnavailable):
		return http.StatusUnprocessableEntity,
			NewAPIError("DOMAIN_UNAVAILABLE", "could not build a curriculum from the material").WithCause(err)
	case oracle.IsTransport(err), errors.Is(err, ai.ErrAllProvidersFailed):
		return http.StatusBadGateway,
			NewAPIError("ORACLE_UNAVAILABLE", "the tutoring model is unavailable, try again").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, NewAPIError("TIMEOUT", "request timed out").WithCause(err)
	default:
		return http.StatusInternalServerError, NewAPIError("INTERNAL_ERROR", "internal error").WithCause(err)
	}
}

// writeServiceError classifies err and writes it.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := classify(err)
	WriteError(w, r, status, apiErr)
}

// WriteError writes an error response to the response writer.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, apiErr *APIError) {
	attrs := []any{
		"code", apiErr.Code,
		"status", statusCode,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestID(r.Context()),
	}
	if apiErr.cause != nil {
		attrs = append(attrs, "cause", apiErr.cause.Error())
	}
	if statusCode >= 500 {
		slog.Error("api error", attrs...)
	} else {
		slog.Warn("api error", attrs...)
	}

	WriteJSON(w, statusCode, ErrorResponse{Error: apiErr})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}
