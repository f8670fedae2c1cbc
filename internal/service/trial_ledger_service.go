package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

type trialRepository interface {
	FindStudent(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Student, error)
	HasBooking(ctx context.Context, studentID, courseID string) (bool, error)
	AppendTrialCourse(ctx context.Context, exec sqlx.ExtContext, studentID, courseID string) (bool, error)
	CreateBooking(ctx context.Context, exec sqlx.ExtContext, booking *models.TrialBooking) error
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// TrialLedgerService records trial lessons and answers whether a student may enroll or pay.
// The student's trial set is authoritative; the booking log repairs it when they diverge.
type TrialLedgerService struct {
	repo      trialRepository
	courses   courseReader
	tx        txProvider
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewTrialLedgerService constructs the ledger.
func NewTrialLedgerService(repo trialRepository, courses courseReader, tx txProvider, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *TrialLedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrialLedgerService{repo: repo, courses: courses, tx: tx, validator: validate, metrics: metrics, logger: logger}
}

// HasCompletedTrial reports whether the student has trialled the course.
func (s *TrialLedgerService) HasCompletedTrial(ctx context.Context, studentID, courseID string) (bool, error) {
	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return false, err
	}
	if student.HasTrial(courseID) {
		return true, nil
	}

	booked, err := s.repo.HasBooking(ctx, studentID, courseID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read trial bookings")
	}
	if !booked {
		return false, nil
	}

	healed, err := s.repo.AppendTrialCourse(ctx, nil, studentID, courseID)
	if err != nil {
		s.logger.Warn("trial set repair failed",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err),
		)
		return true, nil
	}
	if healed {
		s.metrics.RecordTrialSelfHeal()
		s.logger.Info("trial set repaired from booking log",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
		)
	}
	return true, nil
}

// RecordTrial books a trial. Booking a course already in the trial set succeeds without writing.
func (s *TrialLedgerService) RecordTrial(ctx context.Context, req dto.RecordTrialRequest) (*dto.RecordTrialResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trial payload")
	}
	if req.Slot != nil {
		if err := validateRange(req.Slot.StartTime, req.Slot.EndTime); err != nil {
			return nil, err
		}
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	resp := &dto.RecordTrialResponse{StudentID: req.StudentID, CourseID: req.CourseID}
	student, err := s.findStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.HasTrial(req.CourseID) {
		s.metrics.RecordTrial(false)
		return resp, nil
	}

	err = inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		appended, err := s.repo.AppendTrialCourse(ctx, tx, req.StudentID, req.CourseID)
		if err != nil {
			return err
		}
		if !appended {
			// another request recorded the same trial first
			return nil
		}
		resp.Created = true
		return s.repo.CreateBooking(ctx, tx, bookingFromRequest(req))
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record trial")
	}

	s.metrics.RecordTrial(resp.Created)
	return resp, nil
}

// ListTrials returns the courses in the student's trial set.
func (s *TrialLedgerService) ListTrials(ctx context.Context, studentID string) (*dto.StudentTrialsResponse, error) {
	student, err := s.findStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(student.TrialClasses))
	ids = append(ids, student.TrialClasses...)
	return &dto.StudentTrialsResponse{StudentID: student.ID, CourseIDs: ids}, nil
}

func (s *TrialLedgerService) findStudent(ctx context.Context, studentID string) (*models.Student, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	student, err := s.repo.FindStudent(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func bookingFromRequest(req dto.RecordTrialRequest) *models.TrialBooking {
	booking := &models.TrialBooking{StudentID: req.StudentID, CourseID: req.CourseID}
	if req.TeacherID != "" {
		teacher := req.TeacherID
		booking.TeacherID = &teacher
	}
	if req.Slot != nil {
		day, start, end := *req.Slot.DayOfWeek, req.Slot.StartTime, req.Slot.EndTime
		booking.DayOfWeek, booking.StartTime, booking.EndTime = &day, &start, &end
		if req.Slot.SlotID != "" {
			slotID := req.Slot.SlotID
			booking.SlotID = &slotID
		}
	}
	return booking
}
