package grades

// Grade scale bounds and the 60% demand threshold shared by quiz scoring and
// the exam rubric.
const (
	GradeMin     = 1.0
	GradeMax     = 7.0
	GradePass    = 4.0
	PassingShare = 0.6
)

// GradeFromScore maps a raw score in [0, max] onto the 1.0–7.0 grade scale
// with a piecewise linear transform: the passing score (60% of max) lands
// exactly on 4.0, everything below stretches over [1.0, 4.0) and everything
// above over [4.0, 7.0]. The result is clamped but not rounded; callers
// decide display precision.
func GradeFromScore(score, max float64) float64 {
	if max <= 0 {
		return GradeMin
	}
	passing := PassingShare * max
	var g float64
	if score < passing {
		g = GradeMin + (score/passing)*3
	} else {
		g = GradePass + ((score-passing)/(max-passing))*3
	}
	return Clamp(g)
}

// Clamp bounds a grade to [1.0, 7.0].
func Clamp(g float64) float64 {
	if g < GradeMin {
		return GradeMin
	}
	if g > GradeMax {
		return GradeMax
	}
	return g
}
