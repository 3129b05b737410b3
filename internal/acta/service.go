package acta

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/platform/logger"
	"github.com/resimed/resimed-backend/internal/survey"
)

type Store interface {
	// CreateActa must reject a second acta for the same (resident, subject)
	// pair with a precondition error.
	CreateActa(ctx context.Context, a Acta) error
	GetActa(ctx context.Context, id string) (Acta, error)
	UpdateActa(ctx context.Context, a Acta) error
	ListActasByResident(ctx context.Context, residentID string) ([]Acta, error)
}

// RowResolver supplies the current grade row for the pair being certified.
type RowResolver interface {
	Row(ctx context.Context, residentID, subjectID string) (grades.GradeRow, error)
}

// The PIN signature is a four-digit ritual, not authentication: any code
// matching the shape is accepted. Swapping in a real credential check keeps
// the same interface.
var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

type Service struct {
	store   Store
	rows    RowResolver
	surveys survey.Creator
	log     *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per (resident, subject) generation lock
}

func NewService(store Store, rows RowResolver, surveys survey.Creator, log *logger.Logger) *Service {
	return &Service{store: store, rows: rows, surveys: surveys, log: log, locks: map[string]*sync.Mutex{}}
}

func (s *Service) pairLock(residentID, subjectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := residentID + "|" + subjectID
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

// Generate creates a pending acta snapshotting the currently resolved
// grades. It requires a complete row (all three components) and no existing
// acta for the pair; the check-then-create runs under a per-pair lock with
// the store's unique key as backstop.
func (s *Service) Generate(ctx context.Context, c Candidate) (Acta, error) {
	if err := c.Validate(); err != nil {
		return Acta{}, err
	}
	l := s.pairLock(c.ResidentID, c.SubjectID)
	l.Lock()
	defer l.Unlock()

	row, err := s.rows.Row(ctx, c.ResidentID, c.SubjectID)
	if err != nil {
		return Acta{}, err
	}
	if row.Progress < 100 || row.Final == nil {
		return Acta{}, apperr.Preconditionf(
			"grades for resident %s in subject %s are %d%% complete; acta requires all components",
			c.ResidentID, c.SubjectID, row.Progress)
	}
	a := Acta{
		ID:          uuid.NewString(),
		ResidentID:  c.ResidentID,
		SubjectID:   c.SubjectID,
		TeacherID:   c.TeacherID,
		GeneratedAt: time.Now().Unix(),
		Status:      StatusPending,
		Snapshot: Snapshot{
			Written:            row.Written.Value,
			Competency:         row.Competency.Value,
			Presentation:       row.Presentation.Value,
			WrittenDetail:      row.Written.Detail,
			CompetencyDetail:   row.Competency.Detail,
			PresentationDetail: row.Presentation.Detail,
			FinalGrade:         *row.Final,
			TeacherComment:     c.TeacherComment,
		},
	}
	if err := s.store.CreateActa(ctx, a); err != nil {
		return Acta{}, err
	}
	s.log.Info("acta generated",
		"acta_id", a.ID, "resident_id", a.ResidentID, "subject_id", a.SubjectID, "final_grade", a.Snapshot.FinalGrade)
	return a, nil
}

type SignatureInput struct {
	Type SignatureType `json:"type"`
	Data string        `json:"data"`
}

func (in SignatureInput) validate() error {
	switch in.Type {
	case SignaturePIN:
		if !pinPattern.MatchString(in.Data) {
			return apperr.Validation("invalid signature",
				apperr.FieldError{Field: "data", Message: "PIN must be exactly 4 digits"})
		}
	case SignatureDraw:
		if strings.TrimSpace(in.Data) == "" {
			return apperr.Validation("invalid signature",
				apperr.FieldError{Field: "data", Message: "stroke capture must not be empty"})
		}
	default:
		return apperr.Validation("invalid signature",
			apperr.FieldError{Field: "type", Message: "must be pin or draw"})
	}
	return nil
}

// Sign accepts a pending acta and enqueues the teacher-evaluation survey for
// the resident. Acceptance is terminal.
func (s *Service) Sign(ctx context.Context, actaID string, in SignatureInput) (Acta, error) {
	if err := in.validate(); err != nil {
		return Acta{}, err
	}
	a, err := s.store.GetActa(ctx, actaID)
	if err != nil {
		return Acta{}, err
	}
	if a.Status != StatusPending {
		return Acta{}, apperr.Preconditionf("acta %s is %s, only pending actas can be signed", actaID, a.Status)
	}
	a.Status = StatusAccepted
	a.Signature = &Signature{Type: in.Type, Data: in.Data, SignedAt: time.Now().Unix()}
	if err := s.store.UpdateActa(ctx, a); err != nil {
		return Acta{}, err
	}

	sv := survey.Survey{
		ID:          uuid.NewString(),
		ResidentID:  a.ResidentID,
		SubjectID:   a.SubjectID,
		TeacherID:   a.TeacherID,
		Status:      survey.StatusPending,
		RequestedAt: a.Signature.SignedAt,
	}
	if err := s.surveys.CreateSurvey(ctx, sv); err != nil {
		// acta acceptance stands; the survey can be requeued
		s.log.Error("survey enqueue failed", "acta_id", a.ID, "err", err)
	}
	s.log.Info("acta signed", "acta_id", a.ID, "signature_type", in.Type)
	return a, nil
}

func (s *Service) Get(ctx context.Context, actaID string) (Acta, error) {
	return s.store.GetActa(ctx, actaID)
}

func (s *Service) ListByResident(ctx context.Context, residentID string) ([]Acta, error) {
	return s.store.ListActasByResident(ctx, residentID)
}
