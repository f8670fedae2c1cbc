package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-school-api/internal/models"
)

const enrollmentColumns = `id, course_id, student_id, teacher_id, slot_day, slot_start, slot_end, created_at, updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert inserts the enrollment or refreshes the existing (course, student) row.
// The stored row, including its original id, is scanned back into enrollment.
func (r *EnrollmentRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	query := `INSERT INTO enrollments (` + enrollmentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (course_id, student_id) DO UPDATE
SET teacher_id = EXCLUDED.teacher_id,
    slot_day = EXCLUDED.slot_day,
    slot_start = EXCLUDED.slot_start,
    slot_end = EXCLUDED.slot_end,
    updated_at = EXCLUDED.updated_at
RETURNING ` + enrollmentColumns
	row := r.exec(exec).QueryRowxContext(ctx, query,
		enrollment.ID, enrollment.CourseID, enrollment.StudentID, enrollment.TeacherID,
		enrollment.SlotDay, enrollment.SlotStart, enrollment.SlotEnd,
		enrollment.CreatedAt, enrollment.UpdatedAt,
	)
	if err := row.StructScan(enrollment); err != nil {
		return fmt.Errorf("upsert enrollment: %w", err)
	}
	return nil
}

// FindByID returns an enrollment or sql.ErrNoRows.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByCourseStudent returns the enrollment of a student in a course or sql.ErrNoRows.
func (r *EnrollmentRepository) FindByCourseStudent(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE course_id = $1 AND student_id = $2`
	var enrollment models.Enrollment
	if err := sqlx.GetContext(ctx, r.exec(exec), &enrollment, query, courseID, studentID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}
