package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

func slot(id, owner string, day int, start, end string) models.AvailabilitySlot {
	return models.AvailabilitySlot{ID: id, OwnerUserID: owner, DayOfWeek: day, StartTime: start, EndTime: end}
}

func TestAvailabilityServiceAddSlotRejectsInvertedRange(t *testing.T) {
	repo := newAvailabilityRepoStub()
	svc := NewAvailabilityService(repo, nil, nil, time.Minute, nil, nil)
	teacher := models.Actor{UserID: "t-1", Role: models.RoleTeacher}

	_, err := svc.AddSlot(context.Background(), teacher, "t-1", dto.AddSlotRequest{DayOfWeek: intPtr(2), StartTime: "15:00", EndTime: "14:00"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidRange)

	_, err = svc.AddSlot(context.Background(), teacher, "t-1", dto.AddSlotRequest{DayOfWeek: intPtr(2), StartTime: "14:00", EndTime: "14:00"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRange)

	_, err = svc.AddSlot(context.Background(), teacher, "t-1", dto.AddSlotRequest{DayOfWeek: intPtr(2), StartTime: "+9:00", EndTime: "12:00"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRange)

	_, err = svc.AddSlot(context.Background(), teacher, "t-1", dto.AddSlotRequest{DayOfWeek: intPtr(7), StartTime: "14:00", EndTime: "15:00"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.slots)
}

func TestAvailabilityServiceForbidsOtherOwners(t *testing.T) {
	repo := newAvailabilityRepoStub(slot("s-1", "t-1", 1, "09:00", "10:00"))
	svc := NewAvailabilityService(repo, nil, nil, time.Minute, nil, nil)
	other := models.Actor{UserID: "t-2", Role: models.RoleTeacher}

	_, err := svc.AddSlot(context.Background(), other, "t-1", dto.AddSlotRequest{DayOfWeek: intPtr(1), StartTime: "11:00", EndTime: "12:00"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.DeleteSlot(context.Background(), other, "s-1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Len(t, repo.slots, 1)

	require.NoError(t, svc.DeleteSlot(context.Background(), adminActor, "s-1"))
	assert.Empty(t, repo.slots)
}

func TestAvailabilityServiceListReflectsWrites(t *testing.T) {
	repo := newAvailabilityRepoStub(slot("s-1", "t-1", 2, "14:00", "15:00"))
	cache := NewCacheService(newMemoryCacheRepo(), NewMetricsService(), time.Minute, nil, true)
	svc := NewAvailabilityService(repo, nil, cache, time.Minute, nil, nil)
	owner := models.Actor{UserID: "t-1", Role: models.RoleTeacher}

	week, err := svc.ListByOwner(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, week[2], 1)

	// overlapping slots are accepted
	created, err := svc.AddSlot(context.Background(), owner, "t-1", dto.AddSlotRequest{DayOfWeek: intPtr(2), StartTime: "14:30", EndTime: "16:00", Category: "piano"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	week, err = svc.ListByOwner(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, week[2], 2)
	assert.Equal(t, "14:00", week[2][0].StartTime)
	assert.Equal(t, "14:30", week[2][1].StartTime)
	for day := range week {
		assert.NotNil(t, week[day])
	}

	updated, err := svc.UpdateSlot(context.Background(), owner, created.ID, dto.UpdateSlotRequest{StartTime: "16:00", EndTime: "17:00"})
	require.NoError(t, err)
	assert.Equal(t, "piano", updated.Category)

	week, err = svc.ListByOwner(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "16:00", week[2][1].StartTime)
}

func TestAvailabilityServiceCopyDayReplacesTarget(t *testing.T) {
	repo := newAvailabilityRepoStub(
		slot("s-1", "t-1", 1, "09:00", "10:00"),
		slot("s-2", "t-1", 1, "13:00", "14:00"),
		slot("s-3", "t-1", 3, "08:00", "08:30"),
		slot("s-4", "t-2", 3, "08:00", "08:30"),
	)
	tx, mock := newTxProviderMock(t)
	svc := NewAvailabilityService(repo, tx, nil, time.Minute, nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	resp, err := svc.CopyDay(context.Background(), models.Actor{UserID: "t-1", Role: models.RoleTeacher}, "t-1", dto.CopyDayRequest{FromDay: intPtr(1), ToDay: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Replaced)
	assert.Equal(t, 2, resp.Copied)

	day3, _ := repo.ListByOwnerDay(context.Background(), nil, "t-1", 3)
	require.Len(t, day3, 2)
	starts := []string{day3[0].StartTime, day3[1].StartTime}
	assert.ElementsMatch(t, []string{"09:00", "13:00"}, starts)

	other, _ := repo.ListByOwnerDay(context.Background(), nil, "t-2", 3)
	assert.Len(t, other, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityServiceCopyDayEmptySource(t *testing.T) {
	repo := newAvailabilityRepoStub(slot("s-3", "t-1", 3, "08:00", "08:30"))
	tx, mock := newTxProviderMock(t)
	svc := NewAvailabilityService(repo, tx, nil, time.Minute, nil, nil)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := svc.CopyDay(context.Background(), adminActor, "t-1", dto.CopyDayRequest{FromDay: intPtr(5), ToDay: intPtr(3)})
	assert.ErrorIs(t, err, appErrors.ErrNothingToCopy)
	assert.Len(t, repo.slots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = svc.CopyDay(context.Background(), adminActor, "t-1", dto.CopyDayRequest{FromDay: intPtr(3), ToDay: intPtr(3)})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAvailabilityServiceWeekReportsCacheHit(t *testing.T) {
	repo := newAvailabilityRepoStub(slot("s-1", "t-1", 2, "14:00", "15:00"))
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAvailabilityService(repo, nil, cache, time.Minute, nil, nil)

	_, hit, err := svc.Week(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, hit)

	week, hit, err := svc.Week(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "s-1", week[2][0].ID)

	svc.InvalidateOwner(context.Background(), "t-1")
	_, hit, err = svc.Week(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, hit)
}
