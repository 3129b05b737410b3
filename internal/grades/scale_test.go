package grades

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeFromScore(t *testing.T) {
	assert.InDelta(t, 1.0, GradeFromScore(0, 100), 1e-9)
	assert.InDelta(t, 7.0, GradeFromScore(100, 100), 1e-9)
	// the 60% demand threshold lands exactly on the passing grade
	assert.InDelta(t, 4.0, GradeFromScore(60, 100), 1e-9)
	// halfway to passing
	assert.InDelta(t, 2.5, GradeFromScore(30, 100), 1e-9)
}

func TestGradeFromScoreClamps(t *testing.T) {
	assert.Equal(t, 7.0, GradeFromScore(150, 100))
	assert.Equal(t, 1.0, GradeFromScore(-5, 100))
	assert.Equal(t, 1.0, GradeFromScore(10, 0))
}
