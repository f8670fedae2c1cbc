package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	"github.com/noah-isme/music-school-api/internal/repository"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
	"github.com/noah-isme/music-school-api/pkg/export"
)

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindClassType(ctx context.Context, id string) (*models.ClassType, error)
}

type trialGate interface {
	HasCompletedTrial(ctx context.Context, studentID, courseID string) (bool, error)
}

type slotCatalog interface {
	SlotsForCourse(ctx context.Context, course *models.Course, requestedTeacherID string) ([]dto.CatalogSlot, error)
}

type enrollmentRepository interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByCourseStudent(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string) (*models.Enrollment, error)
}

type slotConsumer interface {
	ListByOwnerDay(ctx context.Context, exec sqlx.ExtContext, ownerID string, day int) ([]models.AvailabilitySlot, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
}

type availabilityInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID string)
}

type intentRepository interface {
	Save(ctx context.Context, intent dto.EnrollmentIntent, ttl time.Duration) error
	Take(ctx context.Context, token string) (*dto.EnrollmentIntent, bool, error)
}

type sessionEventReader interface {
	ListByEnrollment(ctx context.Context, courseID, studentID string) ([]models.CalendarEvent, error)
}

type outcomeNotifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

type advisoryLocker func(ctx context.Context, exec sqlx.ExtContext, key string) error

// EnrollmentDependencies groups the collaborators of EnrollmentService.
type EnrollmentDependencies struct {
	Courses      enrollmentCourseReader
	Trials       trialGate
	Catalog      slotCatalog
	Enrollments  enrollmentRepository
	Slots        slotConsumer
	Availability availabilityInvalidator
	Intents      intentRepository
	Events       sessionEventReader
	Guard        *DuplicateEventGuard
	Projector    *SessionProjector
	Notifier     outcomeNotifier
	TX           txProvider
}

// EnrollmentConfig tunes projection and intent lifetime.
type EnrollmentConfig struct {
	SessionCount int
	IntentTTL    time.Duration
	Location     *time.Location
}

// EnrollmentService drives an enrollment from trial check to materialised calendar events.
type EnrollmentService struct {
	deps      EnrollmentDependencies
	config    EnrollmentConfig
	locks     *keyedMutex
	lock      advisoryLocker
	now       func() time.Time
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(deps EnrollmentDependencies, cfg EnrollmentConfig, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *EnrollmentService {
	if cfg.SessionCount <= 0 {
		cfg.SessionCount = 4
	}
	if cfg.IntentTTL <= 0 {
		cfg.IntentTTL = 15 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		deps:      deps,
		config:    cfg,
		locks:     newKeyedMutex(),
		lock:      repository.AdvisoryXactLock,
		now:       time.Now,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Begin starts an enrollment. Recurring courses without a chosen slot are suspended and
// return NEEDS_SLOT_SELECTION with a continuation token and the bookable slots.
func (s *EnrollmentService) Begin(ctx context.Context, actor models.Actor, req dto.BeginEnrollmentRequest) (*dto.EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can enroll students")
	}
	if req.Slot != nil {
		if err := validateRange(req.Slot.StartTime, req.Slot.EndTime); err != nil {
			return nil, err
		}
	}

	course, err := s.loadCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTrial(ctx, req.StudentID, course.ID); err != nil {
		return nil, err
	}

	if req.TeacherID != "" && !course.HasInstructor(req.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher is not an instructor of this course")
	}
	teacherID := req.TeacherID
	if teacherID == "" {
		teacherID = course.SoleInstructor()
	}
	if req.Slot != nil && course.ConsumesSlot() && teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher_id is required to book a slot for this course")
	}

	if req.Slot == nil && course.IsRecurring() {
		return s.suspend(ctx, course, req, teacherID)
	}
	return s.complete(ctx, course, req.StudentID, teacherID, req.Slot)
}

// Continue resumes a suspended enrollment with one of the offered slots.
func (s *EnrollmentService) Continue(ctx context.Context, actor models.Actor, token string, req dto.ContinueEnrollmentRequest) (*dto.EnrollmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot selection")
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can enroll students")
	}

	intent, ok, err := s.deps.Intents.Take(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment intent")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment intent not found or expired")
	}

	var chosen *dto.CatalogSlot
	for i := range intent.Candidates {
		if intent.Candidates[i].Matches(req.Slot) {
			chosen = &intent.Candidates[i]
			break
		}
	}
	if chosen == nil {
		if remaining := intent.ExpiresAt.Sub(s.now()); remaining > 0 {
			if err := s.deps.Intents.Save(ctx, *intent, remaining); err != nil {
				s.logger.Warn("failed to restore enrollment intent", zap.String("token", token), zap.Error(err))
			}
		}
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "selected slot is not one of the offered slots")
	}

	course, err := s.loadCourse(ctx, intent.Request.CourseID)
	if err != nil {
		return nil, err
	}

	selection := req.Slot
	if id := chosen.SlotID(intent.TeacherID); id != "" {
		selection.SlotID = id
	}
	return s.complete(ctx, course, intent.Request.StudentID, intent.TeacherID, &selection)
}

// AvailableSlots lists the bookable slots of a course, optionally for a specific teacher.
func (s *EnrollmentService) AvailableSlots(ctx context.Context, courseID, teacherID string) ([]dto.CatalogSlot, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return s.deps.Catalog.SlotsForCourse(ctx, course, teacherID)
}

func (s *EnrollmentService) suspend(ctx context.Context, course *models.Course, req dto.BeginEnrollmentRequest, teacherID string) (*dto.EnrollmentResult, error) {
	candidates, err := s.deps.Catalog.SlotsForCourse(ctx, course, teacherID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		s.metrics.RecordEnrollment("slot_unavailable")
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "no bookable slot is available for this course")
	}

	now := s.now().UTC()
	intent := dto.EnrollmentIntent{
		Token:      uuid.NewString(),
		Request:    req,
		TeacherID:  teacherID,
		Candidates: candidates,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.IntentTTL),
	}
	if err := s.deps.Intents.Save(ctx, intent, s.config.IntentTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store enrollment intent")
	}

	s.metrics.RecordEnrollment("needs_slot_selection")
	expires := intent.ExpiresAt
	return &dto.EnrollmentResult{
		Status:         dto.EnrollmentNeedsSlotSelection,
		IntentToken:    intent.Token,
		CandidateSlots: candidates,
		ExpiresAt:      &expires,
	}, nil
}

// complete persists the enrollment and then its sessions. Only the first step can fail the call;
// a failure while writing sessions is reported as a warning on a successful result.
func (s *EnrollmentService) complete(ctx context.Context, course *models.Course, studentID, teacherID string, selection *dto.SlotSelection) (*dto.EnrollmentResult, error) {
	lockKey := fmt.Sprintf("enrollment:%s:%s", course.ID, studentID)
	unlock := s.locks.Lock(lockKey)
	defer unlock()

	var slot *dto.SlotSelection
	if selection != nil {
		copied := *selection
		slot = &copied
	}

	enrollment := &models.Enrollment{CourseID: course.ID, StudentID: studentID}
	if teacherID != "" {
		t := teacherID
		enrollment.TeacherID = &t
	}
	if slot != nil {
		day, start, end := *slot.DayOfWeek, slot.StartTime, slot.EndTime
		enrollment.SlotDay, enrollment.SlotStart, enrollment.SlotEnd = &day, &start, &end
	}

	var prior *models.Enrollment
	consumed := false
	err := inTx(ctx, s.deps.TX, func(tx *sqlx.Tx) error {
		if err := s.lock(ctx, tx, lockKey); err != nil {
			return err
		}
		var err error
		if prior, err = s.priorEnrollment(ctx, tx, course.ID, studentID); err != nil {
			return err
		}
		var backing *models.AvailabilitySlot
		if course.ConsumesSlot() && slot != nil {
			if backing, err = s.resolveSlot(ctx, tx, teacherID, *slot, prior); err != nil {
				return err
			}
			slot.SlotID = ""
			if backing != nil {
				slot.SlotID = backing.ID
			}
		}
		if err := s.deps.Enrollments.Upsert(ctx, tx, enrollment); err != nil {
			return err
		}
		if backing != nil {
			if consumed, err = s.deps.Slots.Delete(ctx, tx, backing.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrSlotUnavailable) {
			s.metrics.RecordEnrollment("slot_unavailable")
			return nil, err
		}
		s.metrics.RecordEnrollment("failed")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist enrollment")
	}
	if consumed && teacherID != "" {
		s.deps.Availability.InvalidateOwner(ctx, teacherID)
	}

	result := &dto.EnrollmentResult{Status: dto.EnrollmentComplete, Enrollment: enrollment, SlotConsumed: consumed}
	sessions, err := s.project(ctx, course, studentID, teacherID, slot)
	if err == nil {
		err = inTx(ctx, s.deps.TX, func(tx *sqlx.Tx) error {
			if err := s.lock(ctx, tx, lockKey); err != nil {
				return err
			}
			// The series booked with a previous teacher is keyed on that teacher.
			var err error
			previous := 0
			if prior != nil && !sameOptional(prior.TeacherID, enrollment.TeacherID) {
				if previous, err = s.deps.Guard.Purge(ctx, tx, course.ID, studentID, prior.TeacherID); err != nil {
					return err
				}
			}
			purged, created, err := s.deps.Guard.Replace(ctx, tx, course.ID, studentID, enrollment.TeacherID, sessions)
			if err != nil {
				return err
			}
			result.EventsPurged, result.EventsCreated = previous+purged, created
			return nil
		})
	}

	if err != nil {
		s.logger.Warn("enrollment stored without sessions",
			zap.String("enrollment_id", enrollment.ID),
			zap.String("course_id", course.ID),
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		result.EventsPurged, result.EventsCreated = 0, 0
		result.Warning = &dto.SchedulingWarning{
			Code:      dto.SchedulingWarningCode,
			Message:   "enrollment saved but sessions could not be scheduled",
			Retryable: true,
		}
		s.metrics.RecordSchedulingWarning()
		s.metrics.RecordEnrollment("warning")
		s.notify(ctx, OutcomeEnrollmentWarning, course, enrollment, 0)
		return result, nil
	}

	result.Sessions = sessions
	s.metrics.RecordEventsPurged(result.EventsPurged)
	s.metrics.RecordEnrollment("complete")
	s.notify(ctx, OutcomeEnrollmentCompleted, course, enrollment, len(sessions))
	return result, nil
}

func (s *EnrollmentService) priorEnrollment(ctx context.Context, exec sqlx.ExtContext, courseID, studentID string) (*models.Enrollment, error) {
	prior, err := s.deps.Enrollments.FindByCourseStudent(ctx, exec, courseID, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return prior, err
}

// resolveSlot finds the teacher's open slot behind a selection. A selection naming a slot id must
// match that slot exactly. When no open slot matches but the enrollment already holds the same
// interval with the same teacher, the slot was consumed earlier and nil is returned.
func (s *EnrollmentService) resolveSlot(ctx context.Context, exec sqlx.ExtContext, teacherID string, sel dto.SlotSelection, prior *models.Enrollment) (*models.AvailabilitySlot, error) {
	day := *sel.DayOfWeek
	open, err := s.deps.Slots.ListByOwnerDay(ctx, exec, teacherID, day)
	if err != nil {
		return nil, err
	}
	for i := range open {
		if sel.SlotID != "" && open[i].ID != sel.SlotID {
			continue
		}
		if open[i].Spans(day, sel.StartTime, sel.EndTime) {
			return &open[i], nil
		}
	}
	if prior.Holds(teacherID, day, sel.StartTime, sel.EndTime) {
		return nil, nil
	}
	return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "selected slot is not open in the teacher's availability")
}

func sameOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *EnrollmentService) project(ctx context.Context, course *models.Course, studentID, teacherID string, slot *dto.SlotSelection) ([]models.Session, error) {
	in := ProjectionInput{
		Course:    *course,
		ClassType: s.classType(ctx, course),
		StudentID: studentID,
		TeacherID: teacherID,
		Now:       s.now().In(s.config.Location),
	}
	if slot == nil {
		return []models.Session{s.deps.Projector.Placeholder(in)}, nil
	}
	in.Slot = &WeeklySlot{ID: slot.SlotID, DayOfWeek: *slot.DayOfWeek, StartTime: slot.StartTime}
	in.Count = 1
	if course.IsRecurring() {
		in.Count = s.config.SessionCount
	}
	return s.deps.Projector.Project(in)
}

// classType returns nil when the lookup fails so projection falls back to the default length.
func (s *EnrollmentService) classType(ctx context.Context, course *models.Course) *models.ClassType {
	if course.ClassTypeID == nil || *course.ClassTypeID == "" {
		return nil
	}
	ct, err := s.deps.Courses.FindClassType(ctx, *course.ClassTypeID)
	if err != nil {
		s.logger.Warn("class type lookup failed, using default duration",
			zap.String("course_id", course.ID),
			zap.String("class_type_id", *course.ClassTypeID),
			zap.Error(err),
		)
		return nil
	}
	return ct
}

// ListSessions returns the sessions materialised for an enrollment.
func (s *EnrollmentService) ListSessions(ctx context.Context, enrollmentID string) (*dto.SessionListResponse, error) {
	enrollment, err := s.deps.Enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	events, err := s.deps.Events.ListByEnrollment(ctx, enrollment.CourseID, enrollment.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	sessions := make([]models.Session, 0, len(events))
	for _, e := range events {
		sessions = append(sessions, models.Session{
			ID:            e.SessionID,
			CourseID:      e.CourseID,
			StudentID:     e.StudentID,
			TeacherID:     e.TeacherID,
			Title:         e.Title,
			StartTime:     e.StartTime,
			EndTime:       e.EndTime,
			SessionNumber: e.SessionNumber,
			TotalSessions: e.TotalSessions,
			SourceSlotID:  e.SourceSlotID,
		})
	}
	return &dto.SessionListResponse{EnrollmentID: enrollment.ID, Sessions: sessions}, nil
}

// Export formats.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

// ExportSessions renders an enrollment's timetable. It returns the document and its content type.
func (s *EnrollmentService) ExportSessions(ctx context.Context, enrollmentID, format string) ([]byte, string, error) {
	if format != ExportCSV && format != ExportPDF {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	list, err := s.ListSessions(ctx, enrollmentID)
	if err != nil {
		return nil, "", err
	}

	timetable := export.Timetable{Title: "Lesson timetable", Location: s.config.Location}
	if len(list.Sessions) > 0 {
		first := list.Sessions[0]
		timetable.Course, timetable.Student = first.Title, first.StudentID
		if first.TeacherID != nil {
			timetable.Teacher = *first.TeacherID
		}
	}
	for _, session := range list.Sessions {
		timetable.Entries = append(timetable.Entries, export.TimetableEntry{
			Number: session.SessionNumber,
			Total:  session.TotalSessions,
			Start:  session.StartTime,
			End:    session.EndTime,
		})
	}

	if format == ExportPDF {
		doc, err := export.RenderPDF(timetable)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
		}
		return doc, "application/pdf", nil
	}
	doc, err := export.RenderCSV(timetable)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return doc, "text/csv", nil
}

func (s *EnrollmentService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.deps.Courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *EnrollmentService) requireTrial(ctx context.Context, studentID, courseID string) error {
	ok, err := s.deps.Trials.HasCompletedTrial(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		s.metrics.RecordEnrollment("trial_required")
		return appErrors.ErrTrialRequired
	}
	return nil
}

func (s *EnrollmentService) notify(ctx context.Context, kind string, course *models.Course, enrollment *models.Enrollment, sessions int) {
	if s.deps.Notifier == nil {
		return
	}
	fields := map[string]string{
		"course_id":     course.ID,
		"student_id":    enrollment.StudentID,
		"enrollment_id": enrollment.ID,
		"sessions":      fmt.Sprintf("%d", sessions),
	}
	if enrollment.TeacherID != nil {
		fields["teacher_id"] = *enrollment.TeacherID
	}
	subject := fmt.Sprintf("Enrolled in %s", course.Title)
	if kind == OutcomeEnrollmentWarning {
		subject = fmt.Sprintf("Enrolled in %s, sessions pending", course.Title)
	}
	s.deps.Notifier.Notify(ctx, Outcome{Kind: kind, Subject: subject, Fields: fields})
}
