package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/pkg/response"
)

type trialService interface {
	RecordTrial(ctx context.Context, req dto.RecordTrialRequest) (*dto.RecordTrialResponse, error)
	ListTrials(ctx context.Context, studentID string) (*dto.StudentTrialsResponse, error)
}

// TrialHandler exposes the trial ledger.
type TrialHandler struct {
	service trialService
}

// NewTrialHandler builds a new handler.
func NewTrialHandler(service trialService) *TrialHandler {
	return &TrialHandler{service: service}
}

// Record godoc
// @Summary Record a trial lesson
// @Description Returns 201 when the trial is new and 200 when it was already recorded.
// @Tags Trials
// @Accept json
// @Produce json
// @Param payload body dto.RecordTrialRequest true "Trial"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Router /trials [post]
func (h *TrialHandler) Record(c *gin.Context) {
	var req dto.RecordTrialRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.RecordTrial(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Created {
		response.Created(c, result)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// List godoc
// @Summary Courses a student has trialled
// @Tags Trials
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/trials [get]
func (h *TrialHandler) List(c *gin.Context) {
	result, err := h.service.ListTrials(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
