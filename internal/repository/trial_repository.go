package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-school-api/internal/models"
)

// TrialRepository manages the student trial set and the trial booking log.
type TrialRepository struct {
	db *sqlx.DB
}

// NewTrialRepository constructs the repository.
func NewTrialRepository(db *sqlx.DB) *TrialRepository {
	return &TrialRepository{db: db}
}

func (r *TrialRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindStudent returns the student with its trial set or sql.ErrNoRows.
func (r *TrialRepository) FindStudent(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, trial_classes FROM students WHERE id = $1`
	var student models.Student
	if err := sqlx.GetContext(ctx, r.exec(exec), &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// HasBooking reports whether the booking log holds an entry for the pair.
func (r *TrialRepository) HasBooking(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM trial_bookings WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check trial booking: %w", err)
	}
	return true, nil
}

// AppendTrialCourse adds courseID to the trial set unless it is already present.
// The condition is evaluated against the row being updated, so concurrent appends cannot duplicate
// or drop entries. It reports whether the set changed.
func (r *TrialRepository) AppendTrialCourse(ctx context.Context, exec sqlx.ExtContext, studentID, courseID string) (bool, error) {
	const query = `UPDATE students SET trial_classes = array_append(trial_classes, $2)
WHERE id = $1 AND NOT ($2 = ANY(trial_classes))`
	res, err := r.exec(exec).ExecContext(ctx, query, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("append trial course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append trial course rows: %w", err)
	}
	return affected > 0, nil
}

// CreateBooking appends an entry to the booking log.
func (r *TrialRepository) CreateBooking(ctx context.Context, exec sqlx.ExtContext, booking *models.TrialBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.BookedAt.IsZero() {
		booking.BookedAt = time.Now().UTC()
	}
	const query = `INSERT INTO trial_bookings (id, student_id, course_id, teacher_id, slot_id, day_of_week, start_time, end_time, booked_at)
VALUES (:id, :student_id, :course_id, :teacher_id, :slot_id, :day_of_week, :start_time, :end_time, :booked_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, booking); err != nil {
		return fmt.Errorf("create trial booking: %w", err)
	}
	return nil
}
