package grades_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/platform/logger"
	"github.com/resimed/resimed-backend/internal/store"
)

// cacheSpy tracks invalidations so tests can assert the read model is
// refreshed after every mutation.
type cacheSpy struct {
	rows        map[string][]grades.GradeRow
	invalidated []string
}

func newCacheSpy() *cacheSpy { return &cacheSpy{rows: map[string][]grades.GradeRow{}} }

func (c *cacheSpy) Get(_ context.Context, residentID string) ([]grades.GradeRow, bool) {
	r, ok := c.rows[residentID]
	return r, ok
}
func (c *cacheSpy) Set(_ context.Context, residentID string, rows []grades.GradeRow) {
	c.rows[residentID] = rows
}
func (c *cacheSpy) Invalidate(_ context.Context, residentID string) {
	delete(c.rows, residentID)
	c.invalidated = append(c.invalidated, residentID)
}

func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	require.NoError(t, m.PutResident(ctx, grades.Resident{ID: "r1", Name: "Ana Rojas"}))
	require.NoError(t, m.PutSubject(ctx, grades.Subject{ID: "s1", Name: "Histología", Type: grades.SubjectStandard}))
	require.NoError(t, m.PutQuiz(ctx, grades.Quiz{ID: "q1", Title: "Control 1", Subject: "Histología"}))
	return m
}

func TestUpsertManualGradeValidation(t *testing.T) {
	svc := grades.NewService(seedStore(t), newCacheSpy(), logger.NewNop())

	_, err := svc.UpsertManualGrade(context.Background(), grades.ManualGradeEntry{
		ResidentID: "r1", SubjectID: "s1", Component: grades.ComponentWritten, Grade: 7.5,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.UpsertManualGrade(context.Background(), grades.ManualGradeEntry{
		ResidentID: "r1", SubjectID: "s1", Component: "essay", Grade: 5.0,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.UpsertManualGrade(context.Background(), grades.ManualGradeEntry{
		ResidentID: "nobody", SubjectID: "s1", Component: grades.ComponentWritten, Grade: 5.0,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUpsertThenDeleteManualGradeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	spy := newCacheSpy()
	svc := grades.NewService(seedStore(t), spy, logger.NewNop())

	// warm the cache
	rows, err := svc.Rows(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Final)

	entry, err := svc.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ResidentID: "r1", SubjectID: "s1", Component: grades.ComponentWritten, Grade: 6.0, AuthorID: "t1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Contains(t, spy.invalidated, "r1")

	rows, err = svc.Rows(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, rows[0].Written.Value)
	assert.Equal(t, 6.0, *rows[0].Written.Value)
	assert.True(t, rows[0].Written.Manual)

	require.NoError(t, svc.DeleteManualGrade(ctx, "r1", "s1", grades.ComponentWritten))
	rows, err = svc.Rows(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, rows[0].Written.Value, "deletion reverts to automatic computation")
}

func TestUpsertManualGradeReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	svc := grades.NewService(seedStore(t), newCacheSpy(), logger.NewNop())

	first, err := svc.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ResidentID: "r1", SubjectID: "s1", Component: grades.ComponentCompetency, Grade: 5.0,
	})
	require.NoError(t, err)
	second, err := svc.UpsertManualGrade(ctx, grades.ManualGradeEntry{
		ResidentID: "r1", SubjectID: "s1", Component: grades.ComponentCompetency, Grade: 6.5,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ResidentID, second.ResidentID)

	row, err := svc.Row(ctx, "r1", "s1")
	require.NoError(t, err)
	require.NotNil(t, row.Competency.Value)
	assert.Equal(t, 6.5, *row.Competency.Value)
}

func TestRecordAttemptTransformsScore(t *testing.T) {
	ctx := context.Background()
	svc := grades.NewService(seedStore(t), newCacheSpy(), logger.NewNop())

	// 60% raw lands exactly on the passing grade
	a, err := svc.RecordAttempt(ctx, "q1", "r1", 12, 20)
	require.NoError(t, err)
	assert.Equal(t, 4.0, a.Score)
	assert.Equal(t, grades.AttemptSubmitted, a.Status)

	// full marks map to 7.0
	a, err = svc.RecordAttempt(ctx, "q1", "r1", 20, 20)
	require.NoError(t, err)
	assert.Equal(t, 7.0, a.Score)

	// best attempt (7.0) now carries the written component
	row, err := svc.Row(ctx, "r1", "s1")
	require.NoError(t, err)
	require.NotNil(t, row.Written.Value)
	assert.InDelta(t, 7.0, *row.Written.Value, 1e-9)

	_, err = svc.RecordAttempt(ctx, "q1", "r1", 25, 20)
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}
