// Package acta runs the grade-certificate lifecycle: generation against a
// complete grade row, pending signature, and acceptance. Accepted actas are
// immutable.
package acta

import (
	"github.com/resimed/resimed-backend/internal/apperr"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
)

type SignatureType string

const (
	SignaturePIN  SignatureType = "pin"
	SignatureDraw SignatureType = "draw"
)

type Signature struct {
	Type     SignatureType `json:"type"`
	Data     string        `json:"data"`
	SignedAt int64         `json:"signed_at"`
}

// Snapshot freezes the resolved grades at generation time. The acta is
// authoritative from then on, regardless of later source changes.
type Snapshot struct {
	Written            *float64 `json:"written"`
	Competency         *float64 `json:"competency"`
	Presentation       *float64 `json:"presentation"`
	WrittenDetail      string   `json:"written_detail,omitempty"`
	CompetencyDetail   string   `json:"competency_detail,omitempty"`
	PresentationDetail string   `json:"presentation_detail,omitempty"`
	FinalGrade         float64  `json:"final_grade"`
	TeacherComment     string   `json:"teacher_comment,omitempty"`
}

type Acta struct {
	ID          string     `json:"id"`
	ResidentID  string     `json:"resident_id"`
	SubjectID   string     `json:"subject_id"`
	TeacherID   string     `json:"teacher_id"`
	GeneratedAt int64      `json:"generated_at"`
	Status      Status     `json:"status"`
	Snapshot    Snapshot   `json:"snapshot"`
	Signature   *Signature `json:"signature,omitempty"`
}

// Candidate is the typed generation request, validated once at the edge.
type Candidate struct {
	ResidentID     string `json:"resident_id"`
	SubjectID      string `json:"subject_id"`
	TeacherID      string `json:"teacher_id"`
	TeacherComment string `json:"teacher_comment,omitempty"`
}

func (c Candidate) Validate() error {
	var fields []apperr.FieldError
	if c.ResidentID == "" {
		fields = append(fields, apperr.FieldError{Field: "resident_id", Message: "required"})
	}
	if c.SubjectID == "" {
		fields = append(fields, apperr.FieldError{Field: "subject_id", Message: "required"})
	}
	if c.TeacherID == "" {
		fields = append(fields, apperr.FieldError{Field: "teacher_id", Message: "required"})
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid acta candidate", fields...)
	}
	return nil
}
