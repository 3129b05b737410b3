package grades

import "math"

// Canonical subject-level component weights.
const (
	WeightWritten      = 0.6
	WeightCompetency   = 0.3
	WeightPresentation = 0.1
)

// Titulation combination: presentation 80%, final exam 20%.
const (
	TitulationWeightPresentation = 0.8
	TitulationWeightExam         = 0.2
)

type WeightedComponent struct {
	Value  *float64
	Weight float64
}

// ComputeWeighted returns the weighted mean of the components that carry a
// value, renormalizing by the weights actually present. All-nil input yields
// nil, never zero: absence of data must not impute a grade. A zero total
// weight with values present is treated the same way to avoid dividing by
// zero.
func ComputeWeighted(components []WeightedComponent) *float64 {
	sum := 0.0
	totalWeight := 0.0
	for _, c := range components {
		if c.Value == nil {
			continue
		}
		sum += *c.Value * c.Weight
		totalWeight += c.Weight
	}
	if totalWeight == 0 {
		return nil
	}
	v := sum / totalWeight
	return &v
}

// ComputeTitulationGrade combines the program presentation grade with the
// final exam grade. Unlike subject-level weighting, both inputs must be
// present and non-zero: there is no partial titulation grade. The result is
// rounded to 1 decimal.
func ComputeTitulationGrade(presentation, exam *float64) *float64 {
	if presentation == nil || exam == nil {
		return nil
	}
	if *presentation == 0 || *exam == 0 {
		return nil
	}
	v := Round1(*presentation*TitulationWeightPresentation + *exam*TitulationWeightExam)
	return &v
}

// Round1 rounds half away from zero at 1 decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
