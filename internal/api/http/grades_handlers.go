package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/rbac"
)

// GET /residents
func ListResidentsHandler(svc *grades.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		residents, err := svc.Residents(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, residents)
	}
}

// GET /residents/{residentID}/grades
func ResidentGradesHandler(svc *grades.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.Rows(r.Context(), chi.URLParam(r, "residentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// GET /residents/{residentID}/subjects/{subjectID}/grades
func GradeRowHandler(svc *grades.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := svc.Row(r.Context(), chi.URLParam(r, "residentID"), chi.URLParam(r, "subjectID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, row)
	}
}

type manualGradeReq struct {
	Grade   float64 `json:"grade"`
	Comment string  `json:"comment,omitempty"`
}

// PUT /residents/{residentID}/subjects/{subjectID}/grades/{component}
func UpsertManualGradeHandler(svc *grades.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component, err := grades.ParseComponent(chi.URLParam(r, "component"))
		if err != nil {
			writeErr(w, err)
			return
		}
		var req manualGradeReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		entry, err := svc.UpsertManualGrade(r.Context(), grades.ManualGradeEntry{
			ResidentID: chi.URLParam(r, "residentID"),
			SubjectID:  chi.URLParam(r, "subjectID"),
			Component:  component,
			Grade:      req.Grade,
			Comment:    req.Comment,
			AuthorID:   rbac.SubjectFromContext(r.Context()),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	}
}

// DELETE /residents/{residentID}/subjects/{subjectID}/grades/{component}
func DeleteManualGradeHandler(svc *grades.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		component, err := grades.ParseComponent(chi.URLParam(r, "component"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := svc.DeleteManualGrade(r.Context(),
			chi.URLParam(r, "residentID"), chi.URLParam(r, "subjectID"), component); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type attemptReq struct {
	ResidentID string  `json:"resident_id"`
	RawScore   float64 `json:"raw_score"`
	MaxScore   float64 `json:"max_score"`
}

// POST /quizzes/{quizID}/attempts
func RecordAttemptHandler(svc *grades.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attemptReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		residentID := strings.TrimSpace(req.ResidentID)
		if residentID == "" {
			residentID = rbac.SubjectFromContext(r.Context())
		}
		a, err := svc.RecordAttempt(r.Context(), chi.URLParam(r, "quizID"), residentID, req.RawScore, req.MaxScore)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}
