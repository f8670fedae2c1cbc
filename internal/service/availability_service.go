package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	appErrors "github.com/noah-isme/music-school-api/pkg/errors"
)

type availabilityRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.AvailabilitySlot, error)
	ListByOwnerDay(ctx context.Context, exec sqlx.ExtContext, ownerID string, day int) ([]models.AvailabilitySlot, error)
	FindByID(ctx context.Context, id string) (*models.AvailabilitySlot, error)
	Create(ctx context.Context, exec sqlx.ExtContext, slot *models.AvailabilitySlot) error
	Update(ctx context.Context, slot *models.AvailabilitySlot) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) (bool, error)
	DeleteDay(ctx context.Context, exec sqlx.ExtContext, ownerID string, day int) (int64, error)
}

// AvailabilityService owns users' weekly recurring availability.
type AvailabilityService struct {
	repo      availabilityRepository
	tx        txProvider
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(repo availabilityRepository, tx txProvider, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, tx: tx, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func availabilityWeekKey(ownerID string) string {
	return fmt.Sprintf("availability:%s:week", ownerID)
}

// ListByOwner returns the seven day buckets of an owner's availability.
func (s *AvailabilityService) ListByOwner(ctx context.Context, ownerID string) (models.WeekAvailability, error) {
	week, _, err := s.Week(ctx, ownerID)
	return week, err
}

// Week is ListByOwner that also reports whether the result came from the cache.
func (s *AvailabilityService) Week(ctx context.Context, ownerID string) (models.WeekAvailability, bool, error) {
	if ownerID == "" {
		return models.WeekAvailability{}, false, appErrors.Clone(appErrors.ErrValidation, "owner id is required")
	}
	week, hit, err := cachedLoad(ctx, s.cache, availabilityWeekKey(ownerID), s.cacheTTL, func() (models.WeekAvailability, error) {
		slots, err := s.repo.ListByOwner(ctx, ownerID)
		if err != nil {
			return models.WeekAvailability{}, err
		}
		return models.NewWeekAvailability(slots), nil
	})
	if err != nil {
		return models.WeekAvailability{}, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}
	return week, hit, nil
}

// AddSlot publishes a new slot for ownerID.
func (s *AvailabilityService) AddSlot(ctx context.Context, actor models.Actor, ownerID string, req dto.AddSlotRequest) (*models.AvailabilitySlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if !actor.CanManage(ownerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot modify another user's availability")
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	slot := &models.AvailabilitySlot{
		OwnerUserID: ownerID,
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Category:    req.Category,
	}
	s.warnOnOverlap(ctx, *slot)
	if err := s.repo.Create(ctx, nil, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create availability slot")
	}
	s.InvalidateOwner(ctx, ownerID)
	return slot, nil
}

// UpdateSlot changes a slot's interval and, when given, its category.
func (s *AvailabilityService) UpdateSlot(ctx context.Context, actor models.Actor, id string, req dto.UpdateSlotRequest) (*models.AvailabilitySlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	slot, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	slot.StartTime = req.StartTime
	slot.EndTime = req.EndTime
	if req.Category != nil {
		slot.Category = *req.Category
	}
	s.warnOnOverlap(ctx, *slot)
	if err := s.repo.Update(ctx, slot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update availability slot")
	}
	s.InvalidateOwner(ctx, slot.OwnerUserID)
	return slot, nil
}

// DeleteSlot removes a slot.
func (s *AvailabilityService) DeleteSlot(ctx context.Context, actor models.Actor, id string) error {
	slot, err := s.findOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, nil, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete availability slot")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
	}
	s.InvalidateOwner(ctx, slot.OwnerUserID)
	return nil
}

// CopyDay replaces every slot on req.ToDay with copies of req.FromDay in one transaction.
func (s *AvailabilityService) CopyDay(ctx context.Context, actor models.Actor, ownerID string, req dto.CopyDayRequest) (*dto.CopyDayResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid copy payload")
	}
	if *req.FromDay == *req.ToDay {
		return nil, appErrors.Clone(appErrors.ErrValidation, "source and target day must differ")
	}
	if !actor.CanManage(ownerID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot modify another user's availability")
	}

	result := &dto.CopyDayResponse{FromDay: *req.FromDay, ToDay: *req.ToDay}
	err := inTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		source, err := s.repo.ListByOwnerDay(ctx, tx, ownerID, *req.FromDay)
		if err != nil {
			return err
		}
		if len(source) == 0 {
			return appErrors.ErrNothingToCopy
		}
		replaced, err := s.repo.DeleteDay(ctx, tx, ownerID, *req.ToDay)
		if err != nil {
			return err
		}
		result.Replaced = int(replaced)
		for _, src := range source {
			copied := &models.AvailabilitySlot{
				OwnerUserID: ownerID,
				DayOfWeek:   *req.ToDay,
				StartTime:   src.StartTime,
				EndTime:     src.EndTime,
				Category:    src.Category,
			}
			if err := s.repo.Create(ctx, tx, copied); err != nil {
				return err
			}
			result.Copied++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrNothingToCopy) {
			return nil, appErrors.Clone(appErrors.ErrNothingToCopy, fmt.Sprintf("day %d has no slots to copy", *req.FromDay))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to copy availability")
	}
	s.InvalidateOwner(ctx, ownerID)
	return result, nil
}

// InvalidateOwner drops every cached projection derived from ownerID's availability.
func (s *AvailabilityService) InvalidateOwner(ctx context.Context, ownerID string) {
	s.cache.Invalidate(ctx, fmt.Sprintf("availability:%s:*", ownerID))
}

func (s *AvailabilityService) findOwned(ctx context.Context, actor models.Actor, id string) (*models.AvailabilitySlot, error) {
	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability slot")
	}
	if !actor.CanManage(slot.OwnerUserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot modify another user's availability")
	}
	return slot, nil
}

// warnOnOverlap logs slots that overlap on the same day. Overlaps are stored as given.
func (s *AvailabilityService) warnOnOverlap(ctx context.Context, candidate models.AvailabilitySlot) {
	existing, err := s.repo.ListByOwnerDay(ctx, nil, candidate.OwnerUserID, candidate.DayOfWeek)
	if err != nil {
		return
	}
	for _, slot := range existing {
		if slot.ID != candidate.ID && slot.Overlaps(candidate) {
			s.logger.Warn("availability slot overlaps existing slot",
				zap.String("owner_id", candidate.OwnerUserID),
				zap.Int("day_of_week", candidate.DayOfWeek),
				zap.String("existing_slot_id", slot.ID),
			)
			return
		}
	}
}

// validateRange checks both clocks parse and start is strictly before end.
func validateRange(start, end string) error {
	startMin, err := models.ParseClock(start)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidRange.Code, appErrors.ErrInvalidRange.Status, "invalid start time")
	}
	endMin, err := models.ParseClock(end)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidRange.Code, appErrors.ErrInvalidRange.Status, "invalid end time")
	}
	if startMin >= endMin {
		return appErrors.ErrInvalidRange
	}
	return nil
}
