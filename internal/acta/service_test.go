package acta_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resimed/resimed-backend/internal/acta"
	"github.com/resimed/resimed-backend/internal/apperr"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/platform/logger"
	"github.com/resimed/resimed-backend/internal/store"
	"github.com/resimed/resimed-backend/internal/survey"
)

func f(v float64) *float64 { return &v }

// rowStub serves the same resolved row for every pair.
type rowStub struct {
	row grades.GradeRow
	err error
}

func (r rowStub) Row(_ context.Context, residentID, subjectID string) (grades.GradeRow, error) {
	if r.err != nil {
		return grades.GradeRow{}, r.err
	}
	row := r.row
	row.ResidentID = residentID
	row.SubjectID = subjectID
	return row, nil
}

func completeRow() grades.GradeRow {
	return grades.GradeRow{
		Written:      grades.ComponentGrade{Value: f(6.0), Detail: "Parcial 1: 6.0"},
		Competency:   grades.ComponentGrade{Value: f(5.0), Detail: "average of 2 evaluations"},
		Presentation: grades.ComponentGrade{Value: f(6.5)},
		Final:        f(5.8),
		Progress:     100,
		Status:       grades.RowComplete,
	}
}

func candidate() acta.Candidate {
	return acta.Candidate{ResidentID: "r1", SubjectID: "s1", TeacherID: "t1"}
}

func TestGenerateSnapshotsResolvedRow(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())

	c := candidate()
	c.TeacherComment = "excelente rotación"
	a, err := svc.Generate(context.Background(), c)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, acta.StatusPending, a.Status)
	assert.Equal(t, 5.8, a.Snapshot.FinalGrade)
	require.NotNil(t, a.Snapshot.Written)
	assert.Equal(t, 6.0, *a.Snapshot.Written)
	assert.Equal(t, "Parcial 1: 6.0", a.Snapshot.WrittenDetail)
	assert.Equal(t, "excelente rotación", a.Snapshot.TeacherComment)

	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestGenerateRejectsMissingFields(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())

	_, err := svc.Generate(context.Background(), acta.Candidate{ResidentID: "r1"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestGenerateRejectsIncompleteRow(t *testing.T) {
	row := completeRow()
	row.Presentation = grades.ComponentGrade{}
	row.Progress = 90
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: row}, m, logger.NewNop())

	_, err := svc.Generate(context.Background(), candidate())
	require.Error(t, err)
	assert.True(t, apperr.IsPrecondition(err))
}

func TestGenerateRejectsSecondActaForPair(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())

	_, err := svc.Generate(context.Background(), candidate())
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), candidate())
	require.Error(t, err)
	assert.True(t, apperr.IsPrecondition(err))

	// a different subject is fine
	c := candidate()
	c.SubjectID = "s2"
	_, err = svc.Generate(context.Background(), c)
	require.NoError(t, err)
}

func TestSignPINValidation(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())
	a, err := svc.Generate(context.Background(), candidate())
	require.NoError(t, err)

	for _, bad := range []string{"", "12a4", "123", "12345"} {
		_, err := svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignaturePIN, Data: bad})
		require.Error(t, err, "pin %q", bad)
		assert.True(t, apperr.IsValidation(err))
	}

	signed, err := svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignaturePIN, Data: "1234"})
	require.NoError(t, err)
	assert.Equal(t, acta.StatusAccepted, signed.Status)
	require.NotNil(t, signed.Signature)
	assert.Equal(t, acta.SignaturePIN, signed.Signature.Type)
}

func TestSignDrawRequiresStrokes(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())
	a, err := svc.Generate(context.Background(), candidate())
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignatureDraw, Data: "   "})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))

	signed, err := svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignatureDraw, Data: "data:image/png;base64,iVBOR"})
	require.NoError(t, err)
	assert.Equal(t, acta.StatusAccepted, signed.Status)
}

func TestSignRejectsUnknownType(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())
	a, err := svc.Generate(context.Background(), candidate())
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: "stamp", Data: "1234"})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestSignIsTerminal(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())
	a, err := svc.Generate(context.Background(), candidate())
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignaturePIN, Data: "0000"})
	require.NoError(t, err)

	_, err = svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignaturePIN, Data: "0000"})
	require.Error(t, err)
	assert.True(t, apperr.IsPrecondition(err))
}

func TestSignEnqueuesSurvey(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, m, logger.NewNop())
	a, err := svc.Generate(ctx, candidate())
	require.NoError(t, err)

	_, err = svc.Sign(ctx, a.ID, acta.SignatureInput{Type: acta.SignaturePIN, Data: "1234"})
	require.NoError(t, err)

	pending, err := m.ListSurveys(ctx, survey.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ResidentID)
	assert.Equal(t, "s1", pending[0].SubjectID)
	assert.Equal(t, "t1", pending[0].TeacherID)
}

type failingSurveys struct{}

func (failingSurveys) CreateSurvey(context.Context, survey.Survey) error {
	return errors.New("queue unavailable")
}

func TestSignSurveysFailureDoesNotBlockAcceptance(t *testing.T) {
	m := store.NewMemory()
	svc := acta.NewService(m, rowStub{row: completeRow()}, failingSurveys{}, logger.NewNop())
	a, err := svc.Generate(context.Background(), candidate())
	require.NoError(t, err)

	signed, err := svc.Sign(context.Background(), a.ID, acta.SignatureInput{Type: acta.SignaturePIN, Data: "1234"})
	require.NoError(t, err)
	assert.Equal(t, acta.StatusAccepted, signed.Status)

	stored, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, acta.StatusAccepted, stored.Status)
}
