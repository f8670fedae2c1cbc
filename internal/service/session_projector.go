package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/music-school-api/internal/models"
)

var sessionNamespace = uuid.MustParse("6f1b7a52-3f0c-4f4e-9a57-7f2f0c1d9e21")

// ProjectionInput describes one enrollment to expand into dated sessions.
type ProjectionInput struct {
	Course    models.Course
	ClassType *models.ClassType
	StudentID string
	TeacherID string
	Slot      *WeeklySlot
	Count     int
	Now       time.Time
}

// WeeklySlot is the day and start time a series repeats on.
type WeeklySlot struct {
	ID        string
	DayOfWeek int
	StartTime string
}

// SessionProjector turns a weekly slot into a bounded series of dated sessions.
// It has no side effects and identical inputs yield identical sessions, ids included.
type SessionProjector struct {
	loc          *time.Location
	defaultStart string
	leadDays     int
}

// NewSessionProjector builds a projector working in loc wall-clock time.
func NewSessionProjector(loc *time.Location, defaultStart string, leadDays int) *SessionProjector {
	if loc == nil {
		loc = time.Local
	}
	if _, err := models.ParseClock(defaultStart); err != nil {
		defaultStart = "14:00"
	}
	if leadDays <= 0 {
		leadDays = 7
	}
	return &SessionProjector{loc: loc, defaultStart: defaultStart, leadDays: leadDays}
}

// Project returns in.Count weekly sessions starting at the next occurrence of the slot.
// When the slot falls today but has already started, the series begins next week.
func (p *SessionProjector) Project(in ProjectionInput) ([]models.Session, error) {
	if in.Slot == nil {
		return nil, fmt.Errorf("projection requires a slot")
	}
	if !models.ValidDay(in.Slot.DayOfWeek) {
		return nil, fmt.Errorf("day of week %d out of range", in.Slot.DayOfWeek)
	}
	startMin, err := models.ParseClock(in.Slot.StartTime)
	if err != nil {
		return nil, err
	}
	if in.Count <= 0 {
		return []models.Session{}, nil
	}

	now := in.Now.In(p.loc)
	offset := (in.Slot.DayOfWeek - int(now.Weekday()) + models.DaysPerWeek) % models.DaysPerWeek
	first := p.at(now, offset, startMin)
	if offset == 0 && !first.After(now) {
		offset += models.DaysPerWeek
	}

	duration := time.Duration(in.ClassType.DurationMinutes()) * time.Minute
	var slotID *string
	if in.Slot.ID != "" {
		id := in.Slot.ID
		slotID = &id
	}

	sessions := make([]models.Session, 0, in.Count)
	for k := 0; k < in.Count; k++ {
		start := p.at(now, offset+k*models.DaysPerWeek, startMin)
		sessions = append(sessions, p.session(in, start, duration, k+1, in.Count, slotID))
	}
	return sessions, nil
}

// Placeholder returns the single session used when a course has no weekly slot:
// the configured lead days from now at the default start time.
func (p *SessionProjector) Placeholder(in ProjectionInput) models.Session {
	startMin, _ := models.ParseClock(p.defaultStart)
	now := in.Now.In(p.loc)
	start := p.at(now, p.leadDays, startMin)
	duration := time.Duration(in.ClassType.DurationMinutes()) * time.Minute
	return p.session(in, start, duration, 1, 1, nil)
}

// at composes the wall-clock time startMin on the date days after ref.
func (p *SessionProjector) at(ref time.Time, days, startMin int) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day()+days, startMin/60, startMin%60, 0, 0, p.loc)
}

func (p *SessionProjector) session(in ProjectionInput, start time.Time, duration time.Duration, number, total int, slotID *string) models.Session {
	var teacher *string
	if in.TeacherID != "" {
		t := in.TeacherID
		teacher = &t
	}
	key := fmt.Sprintf("%s|%s|%s|%d|%s", in.Course.ID, in.StudentID, in.TeacherID, number, start.Format(time.RFC3339))
	return models.Session{
		ID:            uuid.NewSHA1(sessionNamespace, []byte(key)).String(),
		CourseID:      in.Course.ID,
		StudentID:     in.StudentID,
		TeacherID:     teacher,
		Title:         in.Course.Title,
		StartTime:     start,
		EndTime:       start.Add(duration),
		SessionNumber: number,
		TotalSessions: total,
		SourceSlotID:  slotID,
	}
}
