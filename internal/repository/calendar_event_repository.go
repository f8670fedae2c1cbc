package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/music-school-api/internal/models"
)

const calendarEventColumns = `id, session_id, audience, owner_user_id, course_id, student_id, teacher_id, title, start_time, end_time, session_number, total_sessions, source_slot_id, created_at`

// CalendarEventRepository stores the materialised session events.
type CalendarEventRepository struct {
	db *sqlx.DB
}

// NewCalendarEventRepository constructs the repository.
func NewCalendarEventRepository(db *sqlx.DB) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

func (r *CalendarEventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteByTriple removes every event tagged with the course, student and teacher.
// A nil teacher matches events written without one.
func (r *CalendarEventRepository) DeleteByTriple(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string, teacherID *string) (int64, error) {
	const query = `DELETE FROM calendar_events WHERE course_id = $1 AND student_id = $2 AND teacher_id IS NOT DISTINCT FROM $3`
	res, err := r.exec(exec).ExecContext(ctx, query, courseID, studentID, teacherID)
	if err != nil {
		return 0, fmt.Errorf("delete calendar events: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete calendar events rows: %w", err)
	}
	return affected, nil
}

// InsertBatch writes events, assigning ids and timestamps.
func (r *CalendarEventRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, events []models.CalendarEvent) error {
	if len(events) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `INSERT INTO calendar_events (` + calendarEventColumns + `)
VALUES (:id, :session_id, :audience, :owner_user_id, :course_id, :student_id, :teacher_id, :title, :start_time, :end_time, :session_number, :total_sessions, :source_slot_id, :created_at)`

	for i := range events {
		event := &events[i]
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		if event.CreatedAt.IsZero() {
			event.CreatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, target, query, event); err != nil {
			return fmt.Errorf("insert calendar event: %w", err)
		}
	}
	return nil
}

// ListByEnrollment returns the student-facing events of a (course, student) pair in session order.
func (r *CalendarEventRepository) ListByEnrollment(ctx context.Context, courseID, studentID string) ([]models.CalendarEvent, error) {
	const query = `SELECT ` + calendarEventColumns + ` FROM calendar_events
WHERE course_id = $1 AND student_id = $2 AND audience = $3 ORDER BY session_number ASC, start_time ASC`
	var events []models.CalendarEvent
	if err := r.db.SelectContext(ctx, &events, query, courseID, studentID, models.AudienceStudent); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}
