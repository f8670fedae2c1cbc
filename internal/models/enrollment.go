package models

import "time"

// Enrollment registers a student to a course. One row exists per (course, student).
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TeacherID *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	SlotDay   *int      `db:"slot_day" json:"slot_day,omitempty"`
	SlotStart *string   `db:"slot_start" json:"slot_start,omitempty"`
	SlotEnd   *string   `db:"slot_end" json:"slot_end,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Holds reports whether the enrollment is already booked with teacherID on the given weekly interval.
func (e *Enrollment) Holds(teacherID string, day int, start, end string) bool {
	if e == nil || e.TeacherID == nil || *e.TeacherID != teacherID || e.SlotDay == nil || e.SlotStart == nil || e.SlotEnd == nil {
		return false
	}
	return *e.SlotDay == day && *e.SlotStart == start && *e.SlotEnd == end
}

// Session is one projected, dated lesson of an enrollment.
type Session struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"course_id"`
	StudentID     string    `json:"student_id"`
	TeacherID     *string   `json:"teacher_id,omitempty"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	SessionNumber int       `json:"session_number"`
	TotalSessions int       `json:"total_sessions"`
	SourceSlotID  *string   `json:"source_slot_id,omitempty"`
}

// Duration is the length of the session.
func (s Session) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// EventAudience names whose calendar an event belongs to.
type EventAudience string

const (
	AudienceTeacher EventAudience = "TEACHER"
	AudienceStudent EventAudience = "STUDENT"
)

// CalendarEvent is a persisted copy of a session for one participant.
type CalendarEvent struct {
	ID            string        `db:"id" json:"id"`
	SessionID     string        `db:"session_id" json:"session_id"`
	Audience      EventAudience `db:"audience" json:"audience"`
	OwnerUserID   string        `db:"owner_user_id" json:"owner_user_id"`
	CourseID      string        `db:"course_id" json:"course_id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	TeacherID     *string       `db:"teacher_id" json:"teacher_id,omitempty"`
	Title         string        `db:"title" json:"title"`
	StartTime     time.Time     `db:"start_time" json:"start_time"`
	EndTime       time.Time     `db:"end_time" json:"end_time"`
	SessionNumber int           `db:"session_number" json:"session_number"`
	TotalSessions int           `db:"total_sessions" json:"total_sessions"`
	SourceSlotID  *string       `db:"source_slot_id" json:"source_slot_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// EventsForSession materialises the teacher and student copies of a session.
// Only the student copy is produced when the session has no teacher.
func EventsForSession(session Session) []CalendarEvent {
	base := CalendarEvent{
		SessionID:     session.ID,
		CourseID:      session.CourseID,
		StudentID:     session.StudentID,
		TeacherID:     session.TeacherID,
		Title:         session.Title,
		StartTime:     session.StartTime,
		EndTime:       session.EndTime,
		SessionNumber: session.SessionNumber,
		TotalSessions: session.TotalSessions,
		SourceSlotID:  session.SourceSlotID,
	}
	events := make([]CalendarEvent, 0, 2)
	if session.TeacherID != nil && *session.TeacherID != "" {
		teacher := base
		teacher.Audience = AudienceTeacher
		teacher.OwnerUserID = *session.TeacherID
		events = append(events, teacher)
	}
	student := base
	student.Audience = AudienceStudent
	student.OwnerUserID = session.StudentID
	events = append(events, student)
	return events
}
