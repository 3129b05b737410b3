package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/resimed/resimed-backend/internal/acta"
	"github.com/resimed/resimed-backend/internal/rbac"
)

// POST /actas
func GenerateActaHandler(svc *acta.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c acta.Candidate
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if c.TeacherID == "" {
			c.TeacherID = rbac.SubjectFromContext(r.Context())
		}
		a, err := svc.Generate(r.Context(), c)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /actas/{actaID}
func GetActaHandler(svc *acta.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.Get(r.Context(), chi.URLParam(r, "actaID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /residents/{residentID}/actas
func ListResidentActasHandler(svc *acta.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		as, err := svc.ListByResident(r.Context(), chi.URLParam(r, "residentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, as)
	}
}

// POST /actas/{actaID}/signature
func SignActaHandler(svc *acta.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in acta.SignatureInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		a, err := svc.Sign(r.Context(), chi.URLParam(r, "actaID"), in)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
