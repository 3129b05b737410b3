// Package http exposes the record system over chi. Handlers are closures
// over their service dependencies; error kinds map to statuses in one place.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/resimed/resimed-backend/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error  string              `json:"error"`
	Fields []apperr.FieldError `json:"fields,omitempty"`
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := errBody{Error: err.Error()}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Fields = ae.Fields()
		switch ae.Kind() {
		case apperr.KindValidation:
			status = http.StatusBadRequest
		case apperr.KindPrecondition:
			status = http.StatusConflict
		case apperr.KindNotFound:
			status = http.StatusNotFound
		}
	}
	writeJSON(w, status, body)
}
