package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/titulation"
)

// POST /exams  (kind in the body: six_month | final)
func CreateExamHandler(svc *exams.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e exams.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		created, err := svc.Create(r.Context(), e)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

type completeExamReq struct {
	Scores   map[string]int `json:"scores"`
	Comments string         `json:"comments,omitempty"`
}

// POST /exams/{examID}/complete
func CompleteExamHandler(svc *exams.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeExamReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		e, err := svc.Complete(r.Context(), chi.URLParam(r, "examID"), req.Scores, req.Comments)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// GET /residents/{residentID}/titulation
func TitulationHandler(agg *titulation.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := agg.Compute(r.Context(), chi.URLParam(r, "residentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}
