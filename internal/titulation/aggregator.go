// Package titulation rolls closed subject grades and the final exam into the
// program graduation grade.
package titulation

import (
	"context"

	"github.com/resimed/resimed-backend/internal/acta"
	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/grades"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFailed   Status = "failed"
)

// Record is derived on every read, never persisted. PresentationGrade 0 is a
// "no data" sentinel: real grades are always at least 1.0.
type Record struct {
	ResidentID        string   `json:"resident_id"`
	PresentationGrade float64  `json:"presentation_grade"`
	ExamGrade         *float64 `json:"exam_grade"`
	FinalGrade        *float64 `json:"final_grade"`
	Status            Status   `json:"status"`
}

type Sources interface {
	ListSubjects(ctx context.Context) ([]grades.Subject, error)
	ListActasByResident(ctx context.Context, residentID string) ([]acta.Acta, error)
	ListManualGradesByResident(ctx context.Context, residentID string) ([]grades.ManualGradeEntry, error)
	ListExamsByResident(ctx context.Context, residentID string, kind exams.Kind) ([]exams.Exam, error)
}

type Aggregator struct {
	store Sources
}

func NewAggregator(store Sources) *Aggregator {
	return &Aggregator{store: store}
}

// Compute resolves each subject's closing grade, preferring a certified acta
// over a manual entry, averages them into the presentation grade and
// combines it 80/20 with the completed final exam.
func (a *Aggregator) Compute(ctx context.Context, residentID string) (Record, error) {
	rec := Record{ResidentID: residentID, Status: StatusPending}

	subjects, err := a.store.ListSubjects(ctx)
	if err != nil {
		return Record{}, err
	}
	actas, err := a.store.ListActasByResident(ctx, residentID)
	if err != nil {
		return Record{}, err
	}
	manual, err := a.store.ListManualGradesByResident(ctx, residentID)
	if err != nil {
		return Record{}, err
	}

	actaBySubject := make(map[string]acta.Acta, len(actas))
	for _, ac := range actas {
		actaBySubject[ac.SubjectID] = ac
	}
	manualBySubject := make(map[string]grades.ManualGradeEntry, len(manual))
	for _, m := range manual {
		// any component's entry can close a subject; first one wins
		if _, ok := manualBySubject[m.SubjectID]; !ok {
			manualBySubject[m.SubjectID] = m
		}
	}

	sum := 0.0
	n := 0
	for _, s := range subjects {
		if ac, ok := actaBySubject[s.ID]; ok {
			sum += ac.Snapshot.FinalGrade
			n++
			continue
		}
		if m, ok := manualBySubject[s.ID]; ok {
			sum += m.Grade
			n++
		}
	}
	if n > 0 {
		rec.PresentationGrade = grades.Round1(sum / float64(n))
	}

	finals, err := a.store.ListExamsByResident(ctx, residentID, exams.KindFinal)
	if err != nil {
		return Record{}, err
	}
	for _, e := range finals {
		if e.Status == exams.StatusCompleted && e.Grade != nil {
			rec.ExamGrade = e.Grade
			break
		}
	}

	if rec.PresentationGrade > 0 {
		pres := rec.PresentationGrade
		rec.FinalGrade = grades.ComputeTitulationGrade(&pres, rec.ExamGrade)
	}
	if rec.FinalGrade != nil {
		if *rec.FinalGrade >= grades.GradePass {
			rec.Status = StatusApproved
		} else {
			rec.Status = StatusFailed
		}
	}
	return rec, nil
}
