package api

import (
	"net/http"
	"strings"

	"github.com/sigma-teacher/tutor/internal/lecture"
)

type createLectureRequest struct {
	Title      string `json:"title"`
	Transcript string `json:"transcript"`
}

func (s *Server) createLecture(w http.ResponseWriter, r *http.Request) {
	var req createLectureRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		WriteError(w, r, http.StatusBadRequest, errBadRequest("transcript is required"))
		return
	}

	l, err := s.lectures.Create(r.Context(), lecture.Lecture{Title: req.Title, Transcript: req.Transcript})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

func (s *Server) listLectures(w http.ResponseWriter, r *http.Request) {
	lectures, err := s.lectures.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"lectures": lectures})
}

func (s *Server) getLecture(w http.ResponseWriter, r *http.Request) {
	l, err := s.lectures.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (s *Server) listCurricula(w http.ResponseWriter, r *http.Request) {
	if s.curricula == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"curricula": []any{}})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"curricula": s.curricula.All()})
}
