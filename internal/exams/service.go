package exams

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/platform/logger"
	"github.com/resimed/resimed-backend/internal/rubric"
)

// Six-month exams demand strictly more than 5.0; exactly 5.0 fails. The
// usual 4.0 line applies only to the final exam.
const SixMonthPassThreshold = 5.0

type Store interface {
	CreateExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	UpdateExam(ctx context.Context, e Exam) error
	ListExamsByResident(ctx context.Context, residentID string, kind Kind) ([]Exam, error)
}

type Service struct {
	store    Store
	validate *validator.Validate
	log      *logger.Logger
}

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, validate: validator.New(), log: log}
}

func (s *Service) checkEntity(e *Exam) error {
	if err := s.validate.Struct(e); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperr.Validationf("invalid exam: %v", err)
		}
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: "failed " + fe.Tag()})
		}
		return apperr.Validation("invalid exam", fields...)
	}
	return nil
}

// Create registers a scheduled exam with its commission, topic list and
// unscored rubric grid.
func (s *Service) Create(ctx context.Context, e Exam) (Exam, error) {
	if e.Kind != KindSixMonth && e.Kind != KindFinal {
		return Exam{}, apperr.Validation("invalid exam",
			apperr.FieldError{Field: "kind", Message: "must be six_month or final"})
	}
	if err := s.checkEntity(&e); err != nil {
		return Exam{}, err
	}
	if len(e.Dimensions) == 0 {
		return Exam{}, apperr.Validation("invalid exam",
			apperr.FieldError{Field: "dimensions", Message: "rubric grid required"})
	}
	e.ID = uuid.NewString()
	e.Status = StatusScheduled
	e.Grade = nil
	e.Result = ""
	if e.Date == 0 {
		e.Date = time.Now().Unix()
	}
	if err := s.store.CreateExam(ctx, e); err != nil {
		return Exam{}, err
	}
	return e, nil
}

// Complete scores the rubric (all dimensions required), fixes the numeric
// grade and verdict, and marks the exam completed. Completed exams are not
// re-scored.
func (s *Service) Complete(ctx context.Context, examID string, scores map[string]int, comments string) (Exam, error) {
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return Exam{}, err
	}
	if e.Status == StatusCompleted {
		return Exam{}, apperr.Preconditionf("exam %s already completed", examID)
	}
	for i, d := range e.Dimensions {
		if v, ok := scores[d.Key]; ok {
			sc := v
			e.Dimensions[i].Score = &sc
		}
	}
	res, err := rubric.ScoreComplete(e.Dimensions)
	if err != nil {
		return Exam{}, err
	}
	g := res.FinalGrade
	e.Grade = &g
	e.Comments = comments
	e.Status = StatusCompleted
	switch e.Kind {
	case KindSixMonth:
		if g > SixMonthPassThreshold {
			e.Result = ResultPassed
		} else {
			e.Result = ResultFailed
		}
	case KindFinal:
		if g >= grades.GradePass {
			e.Result = ResultPassed
		} else {
			e.Result = ResultFailed
		}
	}
	if err := s.store.UpdateExam(ctx, e); err != nil {
		return Exam{}, err
	}
	s.log.Info("exam completed",
		"exam_id", e.ID, "kind", e.Kind, "resident_id", e.ResidentID, "grade", g, "result", e.Result)
	return e, nil
}
