package grades

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	anatomy = Subject{ID: "s-anatomy", Name: "Anatomía Patológica", Type: SubjectStandard}
	ethics  = Subject{ID: "s-ethics", Name: "Bioética", Type: SubjectTransversal}
)

func baseSources() Sources {
	return Sources{
		Subjects: []Subject{anatomy, ethics},
		Quizzes: []Quiz{
			{ID: "q1", Title: "Parcial 1", Subject: "anatomía patológica"}, // name match is case-insensitive
			{ID: "q2", Title: "Parcial 2", Subject: InterdisciplinaryMarker},
		},
		Attempts: []QuizAttempt{
			{ID: "a1", QuizID: "q1", ResidentID: "r1", Score: 5.0, Status: AttemptSubmitted},
			{ID: "a2", QuizID: "q1", ResidentID: "r1", Score: 6.0, Status: AttemptSubmitted},
		},
		Evaluations: []Evaluation{
			{ID: "e1", ResidentID: "r1", SubjectID: "s-anatomy", Kind: ComponentCompetency, AverageScore: 5.5},
			{ID: "e2", ResidentID: "r1", SubjectID: "s-anatomy", Kind: ComponentPresentation, AverageScore: 4.0},
		},
	}
}

func TestWrittenBestAttemptPerQuiz(t *testing.T) {
	r := NewResolver(baseSources())
	got := r.Component("r1", "s-anatomy", ComponentWritten)
	require.NotNil(t, got.Value)
	// q1 best attempt is 6.0; q2 (interdisciplinary) has no attempts and is
	// excluded from the average but listed as pending
	assert.InDelta(t, 6.0, *got.Value, 1e-9)
	assert.False(t, got.Manual)
	assert.Contains(t, got.Detail, "Parcial 1: 6.0")
	assert.Contains(t, got.Detail, "Parcial 2: Pending")
}

func TestWrittenIgnoresUnsubmittedAttempts(t *testing.T) {
	src := baseSources()
	src.Attempts = append(src.Attempts,
		QuizAttempt{ID: "a3", QuizID: "q1", ResidentID: "r1", Score: 7.0, Status: "in_progress"})
	r := NewResolver(src)
	got := r.Component("r1", "s-anatomy", ComponentWritten)
	require.NotNil(t, got.Value)
	assert.InDelta(t, 6.0, *got.Value, 1e-9)
}

func TestWrittenNoAttemptsIsNil(t *testing.T) {
	src := baseSources()
	src.Attempts = nil
	r := NewResolver(src)
	got := r.Component("r1", "s-anatomy", ComponentWritten)
	assert.Nil(t, got.Value)
	assert.Contains(t, got.Detail, "Pending")
}

func TestEvaluationAveraging(t *testing.T) {
	src := baseSources()
	src.Evaluations = append(src.Evaluations,
		Evaluation{ID: "e3", ResidentID: "r1", SubjectID: "s-anatomy", Kind: ComponentCompetency, AverageScore: 6.5})
	r := NewResolver(src)
	got := r.Component("r1", "s-anatomy", ComponentCompetency)
	require.NotNil(t, got.Value)
	assert.InDelta(t, 6.0, *got.Value, 1e-9)
}

func TestManualOverrideWins(t *testing.T) {
	src := baseSources()
	src.ManualGrades = []ManualGradeEntry{{
		ID: "m1", ResidentID: "r1", SubjectID: "s-anatomy",
		Component: ComponentCompetency, Grade: 7.0, Comment: "comité excepcional",
	}}
	r := NewResolver(src)
	got := r.Component("r1", "s-anatomy", ComponentCompetency)
	require.NotNil(t, got.Value)
	assert.Equal(t, 7.0, *got.Value)
	assert.True(t, got.Manual)
	assert.Equal(t, "comité excepcional", got.Detail)
}

func TestDeleteOverrideRevertsToAutomatic(t *testing.T) {
	src := baseSources()
	src.ManualGrades = []ManualGradeEntry{{
		ID: "m1", ResidentID: "r1", SubjectID: "s-anatomy",
		Component: ComponentCompetency, Grade: 7.0,
	}}
	withOverride := NewResolver(src).Component("r1", "s-anatomy", ComponentCompetency)
	require.NotNil(t, withOverride.Value)
	assert.Equal(t, 7.0, *withOverride.Value)

	src.ManualGrades = nil
	reverted := NewResolver(src).Component("r1", "s-anatomy", ComponentCompetency)
	require.NotNil(t, reverted.Value)
	assert.InDelta(t, 5.5, *reverted.Value, 1e-9)
	assert.False(t, reverted.Manual)
}

func TestRowCompleteScenario(t *testing.T) {
	r := NewResolver(baseSources())
	row := r.Row("r1", anatomy)
	require.NotNil(t, row.Final)
	assert.InDelta(t, 5.65, *row.Final, 1e-9) // 6.0*0.6 + 5.5*0.3 + 4.0*0.1
	assert.Equal(t, 100, row.Progress)
	assert.Equal(t, RowComplete, row.Status)
}

func TestRowWithCompetencyOverride(t *testing.T) {
	src := baseSources()
	src.ManualGrades = []ManualGradeEntry{{
		ID: "m1", ResidentID: "r1", SubjectID: "s-anatomy",
		Component: ComponentCompetency, Grade: 7.0,
	}}
	row := NewResolver(src).Row("r1", anatomy)
	require.NotNil(t, row.Final)
	assert.InDelta(t, 6.1, *row.Final, 1e-9) // 6.0*0.6 + 7.0*0.3 + 4.0*0.1
	assert.True(t, row.Competency.Manual)
	assert.False(t, row.Written.Manual)
}

func TestRowProgressSteps(t *testing.T) {
	src := baseSources()
	src.Evaluations = nil
	row := NewResolver(src).Row("r1", anatomy)
	assert.Equal(t, 60, row.Progress) // written only
	assert.Equal(t, RowPartial, row.Status)

	src = baseSources()
	src.Evaluations = src.Evaluations[:1] // keep competency, drop presentation
	row = NewResolver(src).Row("r1", anatomy)
	assert.Equal(t, 90, row.Progress)

	src = baseSources()
	src.Attempts = nil
	src.Evaluations = nil
	row = NewResolver(src).Row("r1", anatomy)
	assert.Equal(t, 0, row.Progress)
	assert.Equal(t, RowNotStarted, row.Status)
	assert.Nil(t, row.Final)
}

func TestTransversalRow(t *testing.T) {
	src := baseSources()
	row := NewResolver(src).Row("r1", ethics)
	assert.Nil(t, row.Final)
	assert.Equal(t, RowNotStarted, row.Status)

	src.ManualGrades = []ManualGradeEntry{{
		ID: "m1", ResidentID: "r1", SubjectID: "s-ethics",
		Component: ComponentTransversal, Grade: 6.2,
	}}
	row = NewResolver(src).Row("r1", ethics)
	require.NotNil(t, row.Final)
	assert.Equal(t, 6.2, *row.Final)
	assert.Equal(t, 100, row.Progress)
	assert.Equal(t, RowComplete, row.Status)
}
