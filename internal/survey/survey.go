// Package survey holds the teacher-evaluation survey stub enqueued when an
// acta is signed. The survey flow itself lives outside this service.
package survey

import "context"

const StatusPending = "pending"

type Survey struct {
	ID          string `json:"id"`
	ResidentID  string `json:"resident_id"`
	SubjectID   string `json:"subject_id"`
	TeacherID   string `json:"teacher_id"`
	Status      string `json:"status"`
	RequestedAt int64  `json:"requested_at"`
}

// Creator is the entry point the acta workflow calls on signature.
type Creator interface {
	CreateSurvey(ctx context.Context, s Survey) error
}
