package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-school-api/internal/dto"
	"github.com/noah-isme/music-school-api/internal/models"
	"github.com/noah-isme/music-school-api/pkg/response"
)

type paymentLinkService interface {
	Generate(ctx context.Context, actor models.Actor, req dto.PaymentLinkRequest) (*dto.PaymentLinkResponse, error)
}

// PaymentHandler exposes payment link issuance.
type PaymentHandler struct {
	service paymentLinkService
}

// NewPaymentHandler builds a new handler.
func NewPaymentHandler(service paymentLinkService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// Create godoc
// @Summary Issue a payment link
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body dto.PaymentLinkRequest true "Payment link"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /payment-links [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req dto.PaymentLinkRequest
	if !bindJSON(c, &req) {
		return
	}
	link, err := h.service.Generate(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}
