package grades

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/platform/logger"
)

// Store is the slice of the persistence layer resolution needs. Reads scoped
// by resident keep the resolver indexes small.
type Store interface {
	GetResident(ctx context.Context, id string) (Resident, error)
	ListResidents(ctx context.Context) ([]Resident, error)
	GetSubject(ctx context.Context, id string) (Subject, error)
	ListSubjects(ctx context.Context) ([]Subject, error)
	ListQuizzes(ctx context.Context) ([]Quiz, error)
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	CreateAttempt(ctx context.Context, a QuizAttempt) error
	ListAttemptsByResident(ctx context.Context, residentID string) ([]QuizAttempt, error)
	ListEvaluationsByResident(ctx context.Context, residentID string) ([]Evaluation, error)
	ListManualGradesByResident(ctx context.Context, residentID string) ([]ManualGradeEntry, error)
	UpsertManualGrade(ctx context.Context, e ManualGradeEntry) error
	DeleteManualGrade(ctx context.Context, residentID, subjectID string, c Component) error
}

// RowCache caches computed grade rows per resident. Mutating calls
// invalidate; a miss just recomputes.
type RowCache interface {
	Get(ctx context.Context, residentID string) ([]GradeRow, bool)
	Set(ctx context.Context, residentID string, rows []GradeRow)
	Invalidate(ctx context.Context, residentID string)
}

type Service struct {
	store Store
	cache RowCache
	log   *logger.Logger
}

func NewService(store Store, cache RowCache, log *logger.Logger) *Service {
	return &Service{store: store, cache: cache, log: log}
}

func (s *Service) resolver(ctx context.Context, residentID string) (*Resolver, []Subject, error) {
	subjects, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, nil, err
	}
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, nil, err
	}
	attempts, err := s.store.ListAttemptsByResident(ctx, residentID)
	if err != nil {
		return nil, nil, err
	}
	evals, err := s.store.ListEvaluationsByResident(ctx, residentID)
	if err != nil {
		return nil, nil, err
	}
	manual, err := s.store.ListManualGradesByResident(ctx, residentID)
	if err != nil {
		return nil, nil, err
	}
	r := NewResolver(Sources{
		Subjects:     subjects,
		Quizzes:      quizzes,
		Attempts:     attempts,
		Evaluations:  evals,
		ManualGrades: manual,
	})
	return r, subjects, nil
}

// Rows returns the full derived grade sheet for a resident.
func (s *Service) Rows(ctx context.Context, residentID string) ([]GradeRow, error) {
	if _, err := s.store.GetResident(ctx, residentID); err != nil {
		return nil, err
	}
	if rows, ok := s.cache.Get(ctx, residentID); ok {
		return rows, nil
	}
	r, subjects, err := s.resolver(ctx, residentID)
	if err != nil {
		return nil, err
	}
	rows := r.Rows(residentID, subjects)
	s.cache.Set(ctx, residentID, rows)
	return rows, nil
}

// Row resolves a single (resident, subject) pair, bypassing the cache so the
// acta workflow always sees current data.
func (s *Service) Row(ctx context.Context, residentID, subjectID string) (GradeRow, error) {
	if _, err := s.store.GetResident(ctx, residentID); err != nil {
		return GradeRow{}, err
	}
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return GradeRow{}, err
	}
	r, _, err := s.resolver(ctx, residentID)
	if err != nil {
		return GradeRow{}, err
	}
	return r.Row(residentID, subject), nil
}

// UpsertManualGrade writes an evaluator override, replacing any previous one
// for the same (resident, subject, component).
func (s *Service) UpsertManualGrade(ctx context.Context, e ManualGradeEntry) (ManualGradeEntry, error) {
	if e.Grade < GradeMin || e.Grade > GradeMax {
		return ManualGradeEntry{}, apperr.Validation("grade out of range",
			apperr.FieldError{Field: "grade", Message: "must be between 1.0 and 7.0"})
	}
	if _, err := ParseComponent(string(e.Component)); err != nil {
		return ManualGradeEntry{}, err
	}
	if _, err := s.store.GetResident(ctx, e.ResidentID); err != nil {
		return ManualGradeEntry{}, err
	}
	if _, err := s.store.GetSubject(ctx, e.SubjectID); err != nil {
		return ManualGradeEntry{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UpdatedAt = time.Now().Unix()
	if err := s.store.UpsertManualGrade(ctx, e); err != nil {
		return ManualGradeEntry{}, err
	}
	s.cache.Invalidate(ctx, e.ResidentID)
	s.log.Info("manual grade upserted",
		"resident_id", e.ResidentID, "subject_id", e.SubjectID, "component", e.Component)
	return e, nil
}

// DeleteManualGrade removes an override; resolution reverts to the automatic
// computation on the next read.
func (s *Service) DeleteManualGrade(ctx context.Context, residentID, subjectID string, c Component) error {
	if err := s.store.DeleteManualGrade(ctx, residentID, subjectID, c); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, residentID)
	s.log.Info("manual grade deleted",
		"resident_id", residentID, "subject_id", subjectID, "component", c)
	return nil
}

// RecordAttempt converts a raw quiz result into a grade through the shared
// score transform and stores it as a submitted attempt.
func (s *Service) RecordAttempt(ctx context.Context, quizID, residentID string, rawScore, maxScore float64) (QuizAttempt, error) {
	if maxScore <= 0 {
		return QuizAttempt{}, apperr.Validation("invalid quiz score",
			apperr.FieldError{Field: "max_score", Message: "must be positive"})
	}
	if rawScore < 0 || rawScore > maxScore {
		return QuizAttempt{}, apperr.Validation("invalid quiz score",
			apperr.FieldError{Field: "raw_score", Message: "must be within [0, max_score]"})
	}
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return QuizAttempt{}, err
	}
	if _, err := s.store.GetResident(ctx, residentID); err != nil {
		return QuizAttempt{}, err
	}
	a := QuizAttempt{
		ID:          uuid.NewString(),
		QuizID:      quizID,
		ResidentID:  residentID,
		Score:       Round1(GradeFromScore(rawScore, maxScore)),
		Status:      AttemptSubmitted,
		SubmittedAt: time.Now().Unix(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		return QuizAttempt{}, err
	}
	s.cache.Invalidate(ctx, residentID)
	return a, nil
}

func (s *Service) Residents(ctx context.Context) ([]Resident, error) {
	return s.store.ListResidents(ctx)
}
