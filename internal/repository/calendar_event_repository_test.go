package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/models"
)

func TestCalendarEventRepositoryDeleteByTriple(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCalendarEventRepository(db)

	teacher := "t1"
	mock.ExpectExec(regexp.QuoteMeta("teacher_id IS NOT DISTINCT FROM $3")).
		WithArgs("c1", "s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 8))

	removed, err := repo.DeleteByTriple(context.Background(), nil, "c1", "s1", &teacher)
	require.NoError(t, err)
	assert.Equal(t, int64(8), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarEventRepositoryInsertBatch(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCalendarEventRepository(db)

	start := time.Date(2024, 6, 11, 14, 0, 0, 0, time.UTC)
	events := models.EventsForSession(models.Session{
		ID: "sess-1", CourseID: "c1", StudentID: "s1", Title: "Piano",
		StartTime: start, EndTime: start.Add(time.Hour), SessionNumber: 1, TotalSessions: 4,
	})
	for range events {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO calendar_events")).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	require.NoError(t, repo.InsertBatch(context.Background(), nil, events))
	for _, e := range events {
		assert.NotEmpty(t, e.ID)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarEventRepositoryInsertBatchEmpty(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewCalendarEventRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
