// Package api exposes the tutoring engine over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/curriculum"
	"github.com/sigma-teacher/tutor/internal/lecture"
)

const maxBodyBytes = 32 << 20

// Engine is the part of agent.Engine the API drives.
type Engine interface {
	Start(ctx context.Context, in agent.StartInput) (agent.TurnResult, error)
	Turn(ctx context.Context, id, message string) (agent.TurnResult, error)
	Session(ctx context.Context, id string) (*agent.Session, error)
	Sessions(ctx context.Context) ([]agent.SessionSummary, error)
}

// Config holds the handler's dependencies.
type Config struct {
	Engine    Engine
	Lectures  lecture.Store
	Curricula *curriculum.Loader          // optional
	Ready     func(context.Context) error // optional readiness probe
	// AllowedOrigins lists extra host patterns, such as "*.escola.br",
	// accepted on WebSocket upgrades. Same-host origins are always accepted.
	AllowedOrigins []string
}

// Server routes API requests.
type Server struct {
	mux       *http.ServeMux
	engine    Engine
	lectures  lecture.Store
	curricula *curriculum.Loader
	ready     func(context.Context) error
	origins   []string
}

// New creates the API handler with middleware applied.
func New(cfg Config) http.Handler {
	lectures := cfg.Lectures
	if lectures == nil {
		lectures = lecture.NewMemoryStore()
	}
	s := &Server{
		mux:       http.NewServeMux(),
		engine:    cfg.Engine,
		lectures:  lectures,
		curricula: cfg.Curricula,
		ready:     cfg.Ready,
		origins:   cfg.AllowedOrigins,
	}
	s.routes()
	return withRequestID(withLogging(withRecovery(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /readyz", s.handleReadyz)

	s.mux.HandleFunc("POST /api/lectures", s.createLecture)
	s.mux.HandleFunc("GET /api/lectures", s.listLectures)
	s.mux.HandleFunc("GET /api/lectures/{id}", s.getLecture)

	s.mux.HandleFunc("GET /api/curricula", s.listCurricula)

	s.mux.HandleFunc("POST /api/sessions", s.startSession)
	s.mux.HandleFunc("GET /api/sessions", s.listSessions)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/turns", s.postTurn)
	s.mux.HandleFunc("GET /api/sessions/{id}/report.xlsx", s.sessionReport)
	s.mux.HandleFunc("GET /api/sessions/{id}/ws", s.sessionSocket)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			WriteError(w, r, http.StatusServiceUnavailable, NewAPIError("NOT_READY", "dependencies unavailable").WithCause(err))
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		WriteError(w, r, http.StatusBadRequest, errBadRequest("invalid request body: "+err.Error()))
		return false
	}
	return true
}
