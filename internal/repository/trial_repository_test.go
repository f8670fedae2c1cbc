package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/music-school-api/internal/models"
)

func TestTrialRepositoryFindStudent(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTrialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, email, trial_classes FROM students WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email", "trial_classes"}).
			AddRow("s1", "Ana", "ana@example.com", []byte("{c1,c2}")))

	student, err := repo.FindStudent(context.Background(), nil, "s1")
	require.NoError(t, err)
	assert.True(t, student.HasTrial("c2"))
	assert.False(t, student.HasTrial("c3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialRepositoryHasBooking(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTrialRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM trial_bookings")).
		WithArgs("s1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM trial_bookings")).
		WithArgs("s1", "c2").
		WillReturnError(sql.ErrNoRows)

	found, err := repo.HasBooking(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.HasBooking(context.Background(), "s1", "c2")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialRepositoryAppendTrialCourseIsConditional(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTrialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET trial_classes = array_append(trial_classes, $2)")).
		WithArgs("s1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.AppendTrialCourse(context.Background(), nil, "s1", "c1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrialRepositoryCreateBooking(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewTrialRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trial_bookings")).
		WithArgs(sqlmock.AnyArg(), "s1", "c1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	booking := &models.TrialBooking{StudentID: "s1", CourseID: "c1"}
	require.NoError(t, repo.CreateBooking(context.Background(), nil, booking))
	assert.NotEmpty(t, booking.ID)
	assert.False(t, booking.BookedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}
