package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/models"
)

type calendarEventStore interface {
	DeleteByTriple(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string, teacherID *string) (int64, error)
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, events []models.CalendarEvent) error
}

// DuplicateEventGuard keeps exactly one materialised series per (course, student, teacher).
type DuplicateEventGuard struct {
	events calendarEventStore
	logger *zap.Logger
}

// NewDuplicateEventGuard constructs the guard.
func NewDuplicateEventGuard(events calendarEventStore, logger *zap.Logger) *DuplicateEventGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateEventGuard{events: events, logger: logger}
}

// Purge deletes every event tagged with the triple and returns how many were removed.
func (g *DuplicateEventGuard) Purge(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string, teacherID *string) (int, error) {
	removed, err := g.events.DeleteByTriple(ctx, exec, courseID, studentID, teacherID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		g.logger.Info("purged existing session events",
			zap.String("course_id", courseID),
			zap.String("student_id", studentID),
			zap.Int64("removed", removed),
		)
	}
	return int(removed), nil
}

// Replace purges the triple and writes the event pairs for sessions on the same executor.
// Run it inside a transaction so the purge and insert commit together.
func (g *DuplicateEventGuard) Replace(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string, teacherID *string, sessions []models.Session) (purged, created int, err error) {
	purged, err = g.Purge(ctx, exec, courseID, studentID, teacherID)
	if err != nil {
		return 0, 0, err
	}
	events := make([]models.CalendarEvent, 0, len(sessions)*2)
	for _, session := range sessions {
		events = append(events, models.EventsForSession(session)...)
	}
	if err := g.events.InsertBatch(ctx, exec, events); err != nil {
		return purged, 0, err
	}
	return purged, len(events), nil
}
