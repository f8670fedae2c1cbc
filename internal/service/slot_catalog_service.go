package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	"github.com/noah-isme/music-school-api/pkg/config"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

type weekAvailabilityReader interface {
	ListByOwner(ctx context.Context, ownerID string) (models.WeekAvailability, error)
}

// SlotCatalogService derives bookable weekly slots for a course from its instructors' availability.
type SlotCatalogService struct {
	availability weekAvailabilityReader
	mode         string
	logger       *zap.Logger
}

// NewSlotCatalogService constructs the catalog. mode is config.IntersectionExact or config.IntersectionContain.
func NewSlotCatalogService(availability weekAvailabilityReader, mode string, logger *zap.Logger) *SlotCatalogService {
	if mode != config.IntersectionContain {
		mode = config.IntersectionExact
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotCatalogService{availability: availability, mode: mode, logger: logger}
}

// SlotsForCourse lists the slots a student may book, ordered by day, start and end.
// An empty list means no instructor has matching availability.
func (s *SlotCatalogService) SlotsForCourse(ctx context.Context, course *models.Course, requestedTeacherID string) ([]dto.CatalogSlot, error) {
	if course == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if !course.IsRecurring() {
		return []dto.CatalogSlot{}, nil
	}

	if course.CourseType == models.CourseTypeGroup {
		return s.groupSlots(ctx, course)
	}

	teacherID := requestedTeacherID
	if teacherID == "" {
		teacherID = course.SoleInstructor()
	}
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is required for this course")
	}
	week, err := s.availability.ListByOwner(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	catalog := newCatalogBuilder()
	for _, slot := range week.Flatten() {
		catalog.add(slot, map[string]string{teacherID: slot.ID})
	}
	return catalog.sorted(), nil
}

func (s *SlotCatalogService) groupSlots(ctx context.Context, course *models.Course) ([]dto.CatalogSlot, error) {
	instructors := uniqueNonEmpty(course.InstructorIDs)
	if len(instructors) == 0 {
		return []dto.CatalogSlot{}, nil
	}

	weeks := make(map[string]models.WeekAvailability, len(instructors))
	for _, id := range instructors {
		week, err := s.availability.ListByOwner(ctx, id)
		if err != nil {
			return nil, err
		}
		weeks[id] = week
	}

	catalog := newCatalogBuilder()
	candidates := weeks[instructors[0]].Flatten()
	if s.mode == config.IntersectionContain {
		candidates = candidates[:0:0]
		for _, id := range instructors {
			candidates = append(candidates, weeks[id].Flatten()...)
		}
	}

	for _, candidate := range candidates {
		backing := make(map[string]string, len(instructors))
		for _, id := range instructors {
			match, ok := s.cover(weeks[id][candidate.DayOfWeek], candidate)
			if !ok {
				break
			}
			backing[id] = match.ID
		}
		if len(backing) == len(instructors) {
			catalog.add(candidate, backing)
		}
	}

	result := catalog.sorted()
	s.logger.Debug("group slot intersection",
		zap.String("course_id", course.ID),
		zap.String("mode", s.mode),
		zap.Int("instructors", len(instructors)),
		zap.Int("slots", len(result)),
	)
	return result, nil
}

// cover finds the slot in day that backs candidate under the configured mode.
func (s *SlotCatalogService) cover(day []models.AvailabilitySlot, candidate models.AvailabilitySlot) (models.AvailabilitySlot, bool) {
	for _, slot := range day {
		switch s.mode {
		case config.IntersectionContain:
			if slot.StartTime <= candidate.StartTime && slot.EndTime >= candidate.EndTime {
				return slot, true
			}
		default:
			if slot.StartTime == candidate.StartTime && slot.EndTime == candidate.EndTime {
				return slot, true
			}
		}
	}
	return models.AvailabilitySlot{}, false
}

type catalogBuilder struct {
	seen  map[string]struct{}
	slots []dto.CatalogSlot
}

func newCatalogBuilder() *catalogBuilder {
	return &catalogBuilder{seen: map[string]struct{}{}, slots: []dto.CatalogSlot{}}
}

func (b *catalogBuilder) add(slot models.AvailabilitySlot, backing map[string]string) {
	key := fmt.Sprintf("%d|%s|%s", slot.DayOfWeek, slot.StartTime, slot.EndTime)
	if _, dup := b.seen[key]; dup {
		return
	}
	b.seen[key] = struct{}{}
	b.slots = append(b.slots, dto.CatalogSlot{
		DayOfWeek:    slot.DayOfWeek,
		StartTime:    slot.StartTime,
		EndTime:      slot.EndTime,
		BackingSlots: backing,
	})
}

func (b *catalogBuilder) sorted() []dto.CatalogSlot {
	sort.SliceStable(b.slots, func(i, j int) bool {
		a, c := b.slots[i], b.slots[j]
		if a.DayOfWeek != c.DayOfWeek {
			return a.DayOfWeek < c.DayOfWeek
		}
		if a.StartTime != c.StartTime {
			return a.StartTime < c.StartTime
		}
		return a.EndTime < c.EndTime
	})
	return b.slots
}

func uniqueNonEmpty(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
