package titulation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resimed/resimed-backend/internal/acta"
	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/store"
	"github.com/resimed/resimed-backend/internal/titulation"
)

func seed(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.PutSubject(ctx, grades.Subject{ID: "s1", Name: "Cardiología"}))
	require.NoError(t, m.PutSubject(ctx, grades.Subject{ID: "s2", Name: "Neurología"}))
	return m
}

func completedFinal(residentID string, grade float64) exams.Exam {
	g := grade
	return exams.Exam{
		ID:         "exam-" + residentID,
		Kind:       exams.KindFinal,
		ResidentID: residentID,
		Status:     exams.StatusCompleted,
		Grade:      &g,
		Result:     exams.ResultPassed,
	}
}

func TestComputeNoDataStaysPending(t *testing.T) {
	m := seed(t)
	rec, err := titulation.NewAggregator(m).Compute(context.Background(), "r1")
	require.NoError(t, err)
	assert.Zero(t, rec.PresentationGrade)
	assert.Nil(t, rec.ExamGrade)
	assert.Nil(t, rec.FinalGrade)
	assert.Equal(t, titulation.StatusPending, rec.Status)
}

func TestComputePrefersActaOverManualEntry(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.CreateActa(ctx, acta.Acta{
		ID: "a1", ResidentID: "r1", SubjectID: "s1",
		Status:   acta.StatusAccepted,
		Snapshot: acta.Snapshot{FinalGrade: 6.5},
	}))
	// stale manual entry on the same subject must be ignored
	require.NoError(t, m.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ID: "m1", ResidentID: "r1", SubjectID: "s1",
		Component: grades.ComponentWritten, Grade: 2.0, AuthorID: "t1",
	}))
	require.NoError(t, m.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ID: "m2", ResidentID: "r1", SubjectID: "s2",
		Component: grades.ComponentTransversal, Grade: 5.5, AuthorID: "t1",
	}))

	rec, err := titulation.NewAggregator(m).Compute(ctx, "r1")
	require.NoError(t, err)
	// mean of 6.5 (acta) and 5.5 (manual)
	assert.Equal(t, 6.0, rec.PresentationGrade)
	assert.Nil(t, rec.ExamGrade)
	assert.Nil(t, rec.FinalGrade, "final grade requires a completed exam")
	assert.Equal(t, titulation.StatusPending, rec.Status)
}

func TestComputeRoundsPresentationMean(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.CreateActa(ctx, acta.Acta{
		ID: "a1", ResidentID: "r1", SubjectID: "s1",
		Status:   acta.StatusAccepted,
		Snapshot: acta.Snapshot{FinalGrade: 5.7},
	}))
	require.NoError(t, m.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ID: "m1", ResidentID: "r1", SubjectID: "s2",
		Component: grades.ComponentWritten, Grade: 6.0, AuthorID: "t1",
	}))

	rec, err := titulation.NewAggregator(m).Compute(ctx, "r1")
	require.NoError(t, err)
	// (5.7 + 6.0) / 2 = 5.85 -> 5.9
	assert.Equal(t, 5.9, rec.PresentationGrade)
}

func TestComputeCombinesExamEightyTwenty(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.CreateActa(ctx, acta.Acta{
		ID: "a1", ResidentID: "r1", SubjectID: "s1",
		Status:   acta.StatusAccepted,
		Snapshot: acta.Snapshot{FinalGrade: 6.0},
	}))
	require.NoError(t, m.CreateActa(ctx, acta.Acta{
		ID: "a2", ResidentID: "r1", SubjectID: "s2",
		Status:   acta.StatusAccepted,
		Snapshot: acta.Snapshot{FinalGrade: 6.0},
	}))
	require.NoError(t, m.CreateExam(ctx, completedFinal("r1", 5.0)))

	rec, err := titulation.NewAggregator(m).Compute(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, rec.ExamGrade)
	assert.Equal(t, 5.0, *rec.ExamGrade)
	require.NotNil(t, rec.FinalGrade)
	// 6.0*0.8 + 5.0*0.2 = 5.8
	assert.Equal(t, 5.8, *rec.FinalGrade)
	assert.Equal(t, titulation.StatusApproved, rec.Status)
}

func TestComputeFailsBelowPassingGrade(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ID: "m1", ResidentID: "r1", SubjectID: "s1",
		Component: grades.ComponentWritten, Grade: 3.0, AuthorID: "t1",
	}))
	require.NoError(t, m.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ID: "m2", ResidentID: "r1", SubjectID: "s2",
		Component: grades.ComponentWritten, Grade: 3.0, AuthorID: "t1",
	}))
	require.NoError(t, m.CreateExam(ctx, completedFinal("r1", 4.0)))

	rec, err := titulation.NewAggregator(m).Compute(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, rec.FinalGrade)
	// 3.0*0.8 + 4.0*0.2 = 3.2
	assert.Equal(t, 3.2, *rec.FinalGrade)
	assert.Equal(t, titulation.StatusFailed, rec.Status)
}

func TestComputeIgnoresScheduledFinal(t *testing.T) {
	ctx := context.Background()
	m := seed(t)
	require.NoError(t, m.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ID: "m1", ResidentID: "r1", SubjectID: "s1",
		Component: grades.ComponentWritten, Grade: 6.0, AuthorID: "t1",
	}))
	require.NoError(t, m.CreateExam(ctx, exams.Exam{
		ID: "e1", Kind: exams.KindFinal, ResidentID: "r1", Status: exams.StatusScheduled,
	}))

	rec, err := titulation.NewAggregator(m).Compute(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, rec.ExamGrade)
	assert.Nil(t, rec.FinalGrade)
	assert.Equal(t, titulation.StatusPending, rec.Status)
}
