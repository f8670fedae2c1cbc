package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

func newTrialFixture(t *testing.T, students ...models.Student) (*TrialLedgerService, *trialRepoStub, txProvider) {
	t.Helper()
	repo := newTrialRepoStub(students...)
	courses := newCourseRepoStub(models.Course{ID: "c-1", Title: "Piano"})
	tx, _ := newTxProviderMock(t)
	return NewTrialLedgerService(repo, courses, tx, nil, NewMetricsService(), nil), repo, tx
}

func TestTrialLedgerRecordTrialIsIdempotent(t *testing.T) {
	repo := newTrialRepoStub(models.Student{ID: "st-1"})
	tx, mock := newTxProviderMock(t)
	svc := NewTrialLedgerService(repo, newCourseRepoStub(models.Course{ID: "c-1"}), tx, nil, nil, nil)
	req := dto.RecordTrialRequest{StudentID: "st-1", CourseID: "c-1", TeacherID: "t-1", Slot: &dto.SlotSelection{SlotID: "s-1", DayOfWeek: intPtr(2), StartTime: "14:00", EndTime: "15:00"}}

	mock.ExpectBegin()
	mock.ExpectCommit()

	first, err := svc.RecordTrial(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := svc.RecordTrial(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Created)

	require.Len(t, repo.bookings, 1)
	assert.Equal(t, "s-1", *repo.bookings[0].SlotID)
	assert.Equal(t, []string{"c-1"}, []string(repo.students["st-1"].TrialClasses))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialLedgerRecordTrialValidation(t *testing.T) {
	svc, repo, _ := newTrialFixture(t, models.Student{ID: "st-1"})

	_, err := svc.RecordTrial(context.Background(), dto.RecordTrialRequest{StudentID: "st-1", CourseID: "missing"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.RecordTrial(context.Background(), dto.RecordTrialRequest{StudentID: "st-1", CourseID: "c-1", Slot: &dto.SlotSelection{DayOfWeek: intPtr(2), StartTime: "15:00", EndTime: "14:00"}})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRange)

	_, err = svc.RecordTrial(context.Background(), dto.RecordTrialRequest{StudentID: "ghost", CourseID: "c-1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, repo.bookings)
}

func TestTrialLedgerSelfHealsFromBookings(t *testing.T) {
	svc, repo, _ := newTrialFixture(t, models.Student{ID: "st-1"})
	repo.bookings = []models.TrialBooking{{StudentID: "st-1", CourseID: "c-1"}}

	ok, err := svc.HasCompletedTrial(context.Background(), "st-1", "c-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, repo.appends)
	assert.True(t, repo.students["st-1"].HasTrial("c-1"))

	ok, err = svc.HasCompletedTrial(context.Background(), "st-1", "c-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, repo.appends)
}

func TestTrialLedgerRepairFailureStillAnswers(t *testing.T) {
	svc, repo, _ := newTrialFixture(t, models.Student{ID: "st-1"})
	repo.bookings = []models.TrialBooking{{StudentID: "st-1", CourseID: "c-1"}}
	repo.appendErr = errors.New("db down")

	ok, err := svc.HasCompletedTrial(context.Background(), "st-1", "c-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasCompletedTrial(context.Background(), "st-1", "c-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTrialLedgerListTrials(t *testing.T) {
	svc, _, _ := newTrialFixture(t, models.Student{ID: "st-1", TrialClasses: []string{"c-1", "c-7"}})

	resp, err := svc.ListTrials(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-7"}, resp.CourseIDs)

	_, err = svc.ListTrials(context.Background(), "")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
