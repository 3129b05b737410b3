// Package exams manages the rubric-scored commission exams: the six-month
// continuity checkpoint and the final titulation exam.
package exams

import (
	"github.com/resimed/resimed-backend/internal/rubric"
)

type Kind string

const (
	KindSixMonth Kind = "six_month"
	KindFinal    Kind = "final"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

// Commission verdicts keep their certificate wording.
const (
	ResultPassed = "Aprobado"
	ResultFailed = "Reprobado"
)

type Exam struct {
	ID         string             `json:"id"`
	Kind       Kind               `json:"kind"`
	ResidentID string             `json:"resident_id" validate:"required"`
	Date       int64              `json:"date"`
	Commission []string           `json:"commission" validate:"required,min=1,dive,required"`
	Topics     []string           `json:"topics" validate:"required,min=1,dive,required"`
	Dimensions []rubric.Dimension `json:"dimensions"`
	Grade      *float64           `json:"grade,omitempty"`
	Result     string             `json:"result,omitempty"`
	Status     Status             `json:"status"`
	Comments   string             `json:"comments,omitempty"`
}
