package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
	"github.com/noah-isme/music-school-api/pkg/payments"
)

type linkIssuer interface {
	Issue(ctx context.Context, req payments.LinkRequest) (*payments.Link, error)
}

// PaymentLinkService issues checkout links for students who completed a trial.
type PaymentLinkService struct {
	courses   courseReader
	trials    trialGate
	issuer    linkIssuer
	notifier  outcomeNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentLinkService constructs the service. A nil issuer makes every request fail with a precondition error.
func NewPaymentLinkService(courses courseReader, trials trialGate, issuer linkIssuer, notifier outcomeNotifier, validate *validator.Validate, logger *zap.Logger) *PaymentLinkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentLinkService{courses: courses, trials: trials, issuer: issuer, notifier: notifier, validator: validate, logger: logger}
}

// Generate checks the trial gate and issues the link. Nothing is issued when the gate fails.
func (s *PaymentLinkService) Generate(ctx context.Context, actor models.Actor, req dto.PaymentLinkRequest) (*dto.PaymentLinkResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment link payload")
	}
	if !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only administrators can issue payment links")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	ok, err := s.trials.HasCompletedTrial(ctx, req.StudentID, course.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.ErrTrialRequired
	}

	if s.issuer == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment provider not configured")
	}
	link, err := s.issuer.Issue(ctx, payments.LinkRequest{CourseID: course.ID, CourseTitle: course.Title, StudentID: req.StudentID})
	if err != nil {
		if errors.Is(err, payments.ErrNotConfigured) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment provider not configured")
		}
		s.logger.Error("payment link issue failed", zap.String("course_id", course.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue payment link")
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, Outcome{
			Kind:           OutcomePaymentLink,
			Subject:        "Your payment link for " + course.Title,
			Body:           link.URL,
			RecipientEmail: req.Email,
			Fields:         map[string]string{"course_id": course.ID, "student_id": req.StudentID, "link_id": link.ID},
		})
	}
	return &dto.PaymentLinkResponse{ID: link.ID, URL: link.URL, Provider: link.Provider}, nil
}
