package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/store"
	"github.com/resimed/resimed-backend/internal/survey"
)

// RosterStore is the administrative write surface for reference data.
type RosterStore interface {
	PutResident(ctx context.Context, r grades.Resident) error
	PutTeacher(ctx context.Context, t grades.Teacher) error
	PutSubject(ctx context.Context, s grades.Subject) error
	PutQuiz(ctx context.Context, q grades.Quiz) error
	PutEvaluation(ctx context.Context, e grades.Evaluation) error
	UpsertUser(ctx context.Context, u store.User) error
}

func upsertHandler[T any](apply func(ctx context.Context, v T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := apply(r.Context(), v); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// POST /admin/residents
func UpsertResidentHandler(rs RosterStore) http.HandlerFunc {
	return upsertHandler(func(ctx context.Context, v grades.Resident) error {
		if v.ID == "" {
			return apperr.Validation("invalid resident", apperr.FieldError{Field: "id", Message: "required"})
		}
		return rs.PutResident(ctx, v)
	})
}

// POST /admin/teachers
func UpsertTeacherHandler(rs RosterStore) http.HandlerFunc {
	return upsertHandler(func(ctx context.Context, v grades.Teacher) error {
		if v.ID == "" {
			return apperr.Validation("invalid teacher", apperr.FieldError{Field: "id", Message: "required"})
		}
		return rs.PutTeacher(ctx, v)
	})
}

// POST /admin/subjects
func UpsertSubjectHandler(rs RosterStore) http.HandlerFunc {
	return upsertHandler(func(ctx context.Context, v grades.Subject) error {
		if v.ID == "" {
			return apperr.Validation("invalid subject", apperr.FieldError{Field: "id", Message: "required"})
		}
		if v.Type != grades.SubjectStandard && v.Type != grades.SubjectTransversal {
			return apperr.Validation("invalid subject", apperr.FieldError{Field: "type", Message: "must be standard or transversal"})
		}
		return rs.PutSubject(ctx, v)
	})
}

// POST /admin/quizzes
func UpsertQuizHandler(rs RosterStore) http.HandlerFunc {
	return upsertHandler(func(ctx context.Context, v grades.Quiz) error {
		if v.ID == "" {
			return apperr.Validation("invalid quiz", apperr.FieldError{Field: "id", Message: "required"})
		}
		return rs.PutQuiz(ctx, v)
	})
}

// POST /admin/evaluations
func UpsertEvaluationHandler(rs RosterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e grades.Evaluation
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if e.Kind != grades.ComponentCompetency && e.Kind != grades.ComponentPresentation {
			writeErr(w, apperr.Validation("invalid evaluation",
				apperr.FieldError{Field: "kind", Message: "must be competency or presentation"}))
			return
		}
		if e.AverageScore < grades.GradeMin || e.AverageScore > grades.GradeMax {
			writeErr(w, apperr.Validation("invalid evaluation",
				apperr.FieldError{Field: "average_score", Message: "must be between 1.0 and 7.0"}))
			return
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if err := rs.PutEvaluation(r.Context(), e); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

type upsertUserReq struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// POST /admin/users
func UpsertUserHandler(rs RosterStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertUserReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
			return
		}
		switch req.Role {
		case "resident", "evaluator", "admin":
		default:
			writeErr(w, apperr.Validation("invalid user",
				apperr.FieldError{Field: "role", Message: "must be resident, evaluator or admin"}))
			return
		}
		if req.Username == "" || req.Password == "" {
			writeErr(w, apperr.Validation("invalid user",
				apperr.FieldError{Field: "username", Message: "username and password required"}))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeErr(w, err)
			return
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		u := store.User{ID: req.ID, Username: req.Username, PasswordHash: string(hash), Role: req.Role}
		if err := rs.UpsertUser(r.Context(), u); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// SurveySource lists enqueued teacher-evaluation surveys.
type SurveySource interface {
	ListSurveys(ctx context.Context, status string) ([]survey.Survey, error)
}

// GET /surveys?status=pending
func ListSurveysHandler(src SurveySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svs, err := src.ListSurveys(r.Context(), r.URL.Query().Get("status"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svs)
	}
}
