// Package grades holds the grade model and the two computation cores: the
// weighting calculator and the per-component resolution engine.
package grades

import (
	"github.com/resimed/resimed-backend/internal/apperr"
)

// Component tags the source category of a grade.
type Component string

const (
	ComponentWritten      Component = "written"
	ComponentCompetency   Component = "competency"
	ComponentPresentation Component = "presentation"
	ComponentTransversal  Component = "transversal"
)

func ParseComponent(s string) (Component, error) {
	switch Component(s) {
	case ComponentWritten, ComponentCompetency, ComponentPresentation, ComponentTransversal:
		return Component(s), nil
	}
	return "", apperr.Validationf("unknown grade component %q", s)
}

type SubjectType string

const (
	SubjectStandard    SubjectType = "standard"
	SubjectTransversal SubjectType = "transversal"
)

type Resident struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	CohortYear int    `json:"cohort_year,omitempty"`
}

type Teacher struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type Subject struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Type          SubjectType `json:"type"`
	LeadTeacherID string      `json:"lead_teacher_id,omitempty"`
}

// Quiz joins to its subject by display name; InterdisciplinaryMarker tags a
// quiz that counts toward every subject.
type Quiz struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
}

const AttemptSubmitted = "submitted"

type QuizAttempt struct {
	ID          string  `json:"id"`
	QuizID      string  `json:"quiz_id"`
	ResidentID  string  `json:"resident_id"`
	Score       float64 `json:"score"` // already on the 1.0–7.0 scale
	Status      string  `json:"status"`
	SubmittedAt int64   `json:"submitted_at,omitempty"`
}

// ManualGradeEntry is an evaluator override. At most one exists per
// (resident, subject, component); writes are upserts.
type ManualGradeEntry struct {
	ID         string    `json:"id"`
	ResidentID string    `json:"resident_id"`
	SubjectID  string    `json:"subject_id"`
	Component  Component `json:"component"`
	Grade      float64   `json:"grade" validate:"gte=1,lte=7"`
	Comment    string    `json:"comment,omitempty"`
	AuthorID   string    `json:"author_id"`
	UpdatedAt  int64     `json:"updated_at"`
}

// Evaluation is one competency or presentation rubric record. Multiple
// records per (resident, subject) are averaged during resolution.
type Evaluation struct {
	ID           string             `json:"id"`
	ResidentID   string             `json:"resident_id"`
	SubjectID    string             `json:"subject_id"`
	Kind         Component          `json:"kind"` // competency | presentation
	AverageScore float64            `json:"average_score"`
	Dimensions   map[string]float64 `json:"dimensions,omitempty"`
}

// ComponentGrade is one resolved component: nil Value means no data yet.
type ComponentGrade struct {
	Value  *float64 `json:"value"`
	Manual bool     `json:"manual"`
	Detail string   `json:"detail,omitempty"`
}

type RowStatus string

const (
	RowNotStarted RowStatus = "not_started"
	RowPartial    RowStatus = "partial"
	RowComplete   RowStatus = "complete"
)

// GradeRow is the derived per-(resident, subject) read model. It is never
// persisted; every read recomputes it from the raw sources.
type GradeRow struct {
	ResidentID   string          `json:"resident_id"`
	SubjectID    string          `json:"subject_id"`
	SubjectName  string          `json:"subject_name"`
	SubjectType  SubjectType     `json:"subject_type"`
	Written      ComponentGrade  `json:"written"`
	Competency   ComponentGrade  `json:"competency"`
	Presentation ComponentGrade  `json:"presentation"`
	Transversal  *ComponentGrade `json:"transversal,omitempty"`
	Final        *float64        `json:"final"`
	Progress     int             `json:"progress"` // 0..100
	Status       RowStatus       `json:"status"`
}
