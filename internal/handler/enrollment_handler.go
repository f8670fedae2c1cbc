package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	"github.com/noah-isme/music-school-api/pkg/response"
)

type enrollmentService interface {
	Begin(ctx context.Context, actor models.Actor, req dto.BeginEnrollmentRequest) (*dto.EnrollmentResult, error)
	Continue(ctx context.Context, actor models.Actor, token string, req dto.ContinueEnrollmentRequest) (*dto.EnrollmentResult, error)
	AvailableSlots(ctx context.Context, courseID, teacherID string) ([]dto.CatalogSlot, error)
	ListSessions(ctx context.Context, enrollmentID string) (*dto.SessionListResponse, error)
	ExportSessions(ctx context.Context, enrollmentID, format string) ([]byte, string, error)
}

// EnrollmentHandler exposes enrollment and course slot endpoints.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(service enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: service}
}

// Slots godoc
// @Summary Bookable weekly slots of a course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Param teacher_id query string false "Teacher for solo and duo courses"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/slots [get]
func (h *EnrollmentHandler) Slots(c *gin.Context) {
	slots, err := h.service.AvailableSlots(c.Request.Context(), c.Param("id"), c.Query("teacher_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, map[string]interface{}{"total": len(slots)})
}

// Begin godoc
// @Summary Enroll a student
// @Description Recurring courses without a slot return 202 with an intent token and candidate slots.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body dto.BeginEnrollmentRequest true "Enrollment"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Begin(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.BeginEnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Begin(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeEnrollmentResult(c, result)
}

// Continue godoc
// @Summary Finish a suspended enrollment with a chosen slot
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param token path string true "Intent token"
// @Param payload body dto.ContinueEnrollmentRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Router /enrollments/intents/{token} [post]
func (h *EnrollmentHandler) Continue(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.ContinueEnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Continue(c.Request.Context(), actor, c.Param("token"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeEnrollmentResult(c, result)
}

func writeEnrollmentResult(c *gin.Context, result *dto.EnrollmentResult) {
	if result.Status == dto.EnrollmentNeedsSlotSelection {
		response.Accepted(c, result, map[string]interface{}{"next": strings.TrimSuffix(c.Request.URL.Path, "/") + "/intents/" + result.IntentToken})
		return
	}
	if result.Warning != nil {
		response.JSON(c, http.StatusCreated, result, map[string]interface{}{"warning": result.Warning.Code})
		return
	}
	response.Created(c, result)
}

// Sessions godoc
// @Summary Sessions of an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/sessions [get]
func (h *EnrollmentHandler) Sessions(c *gin.Context) {
	result, err := h.service.ListSessions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Download an enrollment timetable
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Enrollment ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /enrollments/{id}/sessions/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	id := c.Param("id")
	doc, contentType, err := h.service.ExportSessions(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="timetable-%s.%s"`, id, format))
	c.Data(http.StatusOK, contentType, doc)
}
