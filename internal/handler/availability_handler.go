package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/middleware"
	"github.com/noah-isme/music-school-api/internal/models"
	"github.com/noah-isme/music-school-api/pkg/response"
)

type availabilityService interface {
	Week(ctx context.Context, ownerID string) (models.WeekAvailability, bool, error)
	AddSlot(ctx context.Context, actor models.Actor, ownerID string, req dto.AddSlotRequest) (*models.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, actor models.Actor, id string, req dto.UpdateSlotRequest) (*models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, actor models.Actor, id string) error
	CopyDay(ctx context.Context, actor models.Actor, ownerID string, req dto.CopyDayRequest) (*dto.CopyDayResponse, error)
}

// AvailabilityHandler exposes weekly availability endpoints.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// List godoc
// @Summary Weekly availability of a user
// @Tags Availability
// @Produce json
// @Param userId path string true "Owner user ID"
// @Success 200 {object} response.Envelope
// @Router /availability/{userId} [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	week, hit, err := h.service.Week(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, week, middleware.ExtractMeta(c))
}

// Add godoc
// @Summary Add availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param userId path string true "Owner user ID"
// @Param payload body dto.AddSlotRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Router /availability/{userId} [post]
func (h *AvailabilityHandler) Add(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.AddSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.service.AddSlot(c.Request.Context(), actor, c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Copy godoc
// @Summary Replace one day's slots with another day's
// @Tags Availability
// @Accept json
// @Produce json
// @Param userId path string true "Owner user ID"
// @Param payload body dto.CopyDayRequest true "Days"
// @Success 200 {object} response.Envelope
// @Router /availability/{userId}/copy [post]
func (h *AvailabilityHandler) Copy(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.CopyDayRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.CopyDay(c.Request.Context(), actor, c.Param("userId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Update godoc
// @Summary Update availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Param payload body dto.UpdateSlotRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /availability/slots/{slotId} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.UpdateSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	slot, err := h.service.UpdateSlot(c.Request.Context(), actor, c.Param("slotId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// Delete godoc
// @Summary Delete availability slot
// @Tags Availability
// @Param slotId path string true "Slot ID"
// @Success 204
// @Router /availability/slots/{slotId} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSlot(c.Request.Context(), actor, c.Param("slotId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
