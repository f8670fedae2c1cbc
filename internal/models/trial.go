package models

import (
	"time"

	"github.com/lib/pq"
)

// Student holds the fields scheduling reads from the student record.
type Student struct {
	ID           string         `db:"id" json:"id"`
	FullName     string         `db:"full_name" json:"full_name"`
	Email        string         `db:"email" json:"email"`
	TrialClasses pq.StringArray `db:"trial_classes" json:"trial_classes"`
}

// HasTrial reports whether courseID is in the student's trial set.
func (s Student) HasTrial(courseID string) bool {
	for _, id := range s.TrialClasses {
		if id == courseID {
			return true
		}
	}
	return false
}

// TrialBooking is an append-only log entry written whenever a trial is booked.
type TrialBooking struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	SlotID    *string   `db:"slot_id" json:"slot_id,omitempty"`
	DayOfWeek *int      `db:"day_of_week" json:"day_of_week,omitempty"`
	StartTime *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime   *string   `db:"end_time" json:"end_time,omitempty"`
	BookedAt  time.Time `db:"booked_at" json:"booked_at"`
}
