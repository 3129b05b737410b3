// Package rubric scores 0–4 weighted evaluation grids and runs the
// six-month / final exam workflows built on them.
package rubric

import (
	"fmt"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/grades"
)

// MaxScore is the top of the rubric scale.
const MaxScore = 4.0

// PassingScore is the 60% demand threshold on the 0–4 domain.
const PassingScore = grades.PassingShare * MaxScore

// Dimension is one weighted criterion. A nil Score means not yet scored.
type Dimension struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
	Score  *int    `json:"score,omitempty"` // 0..4
}

type Result struct {
	WeightedScore float64 `json:"weighted_score"`
	FinalGrade    float64 `json:"final_grade"`
}

// Score computes the weighted rubric score over the dimensions that have
// been scored and maps it onto the 1.0–7.0 scale. Completeness is a workflow
// concern; here unscored dimensions simply do not contribute.
func Score(dims []Dimension) (Result, error) {
	weighted := 0.0
	for _, d := range dims {
		if d.Score == nil {
			continue
		}
		if *d.Score < 0 || *d.Score > int(MaxScore) {
			return Result{}, apperr.Validation("rubric score out of range",
				apperr.FieldError{Field: d.Key, Message: fmt.Sprintf("score must be 0..%d", int(MaxScore))})
		}
		weighted += float64(*d.Score) * d.Weight
	}
	return Result{
		WeightedScore: weighted,
		FinalGrade:    grades.Round1(grades.GradeFromScore(weighted, MaxScore)),
	}, nil
}

// ScoreComplete is Score plus the save-time rule that every dimension must
// be scored.
func ScoreComplete(dims []Dimension) (Result, error) {
	if len(dims) == 0 {
		return Result{}, apperr.Validation("rubric has no dimensions")
	}
	for _, d := range dims {
		if d.Score == nil {
			return Result{}, apperr.Validation("incomplete rubric",
				apperr.FieldError{Field: d.Key, Message: "dimension not scored"})
		}
	}
	return Score(dims)
}
