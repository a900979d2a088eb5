package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/sigma-teacher/tutor/internal/agent"
	"github.com/sigma-teacher/tutor/internal/ai"
	"github.com/sigma-teacher/tutor/internal/lecture"
	"github.com/sigma-teacher/tutor/internal/report"
)

const maxTopicCount = 30

type documentRequest struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"` // base64 in JSON
}

type startSessionRequest struct {
	LectureIDs   []string          `json:"lecture_ids"`
	Text         string            `json:"text"`
	Documents    []documentRequest `json:"documents"`
	TopicCount   int               `json:"topic_count"`
	Audience     string            `json:"audience"`
	CurriculumID string            `json:"curriculum_id"`
}

type turnRequest struct {
	Message string `json:"message"`
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TopicCount < 0 || req.TopicCount > maxTopicCount {
		WriteError(w, r, http.StatusBadRequest, errBadRequest("topic_count must be between 1 and 30"))
		return
	}

	in, apiErr, status := s.startInput(r, req)
	if apiErr != nil {
		WriteError(w, r, status, apiErr)
		return
	}

	res, err := s.engine.Start(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, res)
}

// startInput resolves the request's source material.
func (s *Server) startInput(r *http.Request, req startSessionRequest) (agent.StartInput, *APIError, int) {
	in := agent.StartInput{TopicCount: req.TopicCount, Audience: req.Audience}

	if req.CurriculumID != "" {
		if s.curricula == nil {
			return in, errBadRequest("authored curricula are not configured"), http.StatusBadRequest
		}
		doc, ok := s.curricula.Get(req.CurriculumID)
		if !ok {
			return in, errNotFound("curriculum"), http.StatusNotFound
		}
		d := doc.Domain()
		in.Domain = &d
		return in, nil, 0
	}

	lectures, err := lecture.Resolve(r.Context(), s.lectures, req.LectureIDs)
	if err != nil {
		status, apiErr := classify(err)
		return in, apiErr, status
	}
	in.Text = lecture.Source(lectures, req.Text)

	for i, d := range req.Documents {
		if len(d.Data) == 0 {
			continue
		}
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("document-%d", i+1)
		}
		in.Documents = append(in.Documents, ai.Document{Name: name, MIMEType: d.MIMEType, Data: d.Data})
	}

	if strings.TrimSpace(in.Text) == "" && len(in.Documents) == 0 {
		return in, errBadRequest("provide lecture_ids, text, documents or curriculum_id"), http.StatusBadRequest
	}
	return in, nil, 0
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.engine.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sess)
}

func (s *Server) postTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, r, http.StatusBadRequest, errBadRequest("message is required"))
		return
	}

	res, err := s.engine.Turn(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (s *Server) sessionReport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.engine.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, sess); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="session-`+sess.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
