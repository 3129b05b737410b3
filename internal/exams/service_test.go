package exams_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/platform/logger"
	"github.com/resimed/resimed-backend/internal/rubric"
	"github.com/resimed/resimed-backend/internal/store"
)

func newSvc() *exams.Service {
	return exams.NewService(store.NewMemory(), logger.NewNop())
}

func sixMonthExam() exams.Exam {
	return exams.Exam{
		Kind:       exams.KindSixMonth,
		ResidentID: "r1",
		Commission: []string{"t1", "t2"},
		Topics:     []string{"caso clínico 1"},
		Dimensions: []rubric.Dimension{
			{Key: "diagnostico", Weight: 0.5},
			{Key: "manejo", Weight: 0.5},
		},
	}
}

func TestCreateRejectsEmptyCommission(t *testing.T) {
	e := sixMonthExam()
	e.Commission = nil
	_, err := newSvc().Create(context.Background(), e)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateRejectsEmptyTopics(t *testing.T) {
	e := sixMonthExam()
	e.Topics = []string{}
	_, err := newSvc().Create(context.Background(), e)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	e := sixMonthExam()
	e.Kind = "midterm"
	_, err := newSvc().Create(context.Background(), e)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestCompleteRequiresFullRubric(t *testing.T) {
	svc := newSvc()
	created, err := svc.Create(context.Background(), sixMonthExam())
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), created.ID, map[string]int{"diagnostico": 3}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestSixMonthPassIsStrictlyAboveFive(t *testing.T) {
	svc := newSvc()

	// scores of 3 on both dimensions: weighted 3.0 -> grade 5.1 -> pass
	created, err := svc.Create(context.Background(), sixMonthExam())
	require.NoError(t, err)
	done, err := svc.Complete(context.Background(), created.ID, map[string]int{"diagnostico": 3, "manejo": 3}, "sólido")
	require.NoError(t, err)
	require.NotNil(t, done.Grade)
	assert.Equal(t, 5.1, *done.Grade)
	assert.Equal(t, exams.ResultPassed, done.Result)
	assert.Equal(t, exams.StatusCompleted, done.Status)

	// weighted 2.92 -> grade rounds to exactly 5.0, which is NOT enough
	e := sixMonthExam()
	e.ResidentID = "r2"
	e.Dimensions = []rubric.Dimension{
		{Key: "diagnostico", Weight: 0.73},
		{Key: "manejo", Weight: 0.27},
	}
	created, err = svc.Create(context.Background(), e)
	require.NoError(t, err)
	done, err = svc.Complete(context.Background(), created.ID, map[string]int{"diagnostico": 4, "manejo": 0}, "")
	require.NoError(t, err)
	require.NotNil(t, done.Grade)
	assert.Equal(t, 5.0, *done.Grade)
	assert.Equal(t, exams.ResultFailed, done.Result)
}

func TestFinalExamPassesAtFour(t *testing.T) {
	svc := newSvc()

	// weighted 2.4 is the passing threshold -> grade 4.0, which passes a
	// final exam (but would fail a six-month checkpoint)
	e2 := exams.Exam{
		Kind:       exams.KindFinal,
		ResidentID: "r3",
		Commission: []string{"t1"},
		Topics:     []string{"defensa"},
		Dimensions: []rubric.Dimension{
			{Key: "a", Weight: 0.6},
			{Key: "b", Weight: 0.4},
		},
	}
	created2, err := svc.Create(context.Background(), e2)
	require.NoError(t, err)
	done, err := svc.Complete(context.Background(), created2.ID, map[string]int{"a": 4, "b": 0}, "")
	require.NoError(t, err)
	require.NotNil(t, done.Grade)
	assert.Equal(t, 4.0, *done.Grade)
	assert.Equal(t, exams.ResultPassed, done.Result)

	// completed exams cannot be re-scored
	_, err = svc.Complete(context.Background(), created2.ID, map[string]int{"a": 1, "b": 1}, "")
	require.Error(t, err)
	assert.True(t, apperr.IsPrecondition(err))
}
