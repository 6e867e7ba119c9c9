package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/models"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/validator"
)

// DemoHandler backs the simulated payment page used in demo mode.
type DemoHandler struct {
	service service.CheckoutUseCase
}

func NewDemoHandler(service service.CheckoutUseCase) *DemoHandler {
	return &DemoHandler{service: service}
}

func (h *DemoHandler) GetSession(c *gin.Context) {
	session, err := h.service.GetDemoSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// Complete simulates a successful card payment. The card form body is
// optional; raw digits such as "1230" are formatted the way the payment page
// formats them before the fields are checked.
func (h *DemoHandler) Complete(c *gin.Context) {
	var req models.DemoPaymentRequest
	switch err := c.ShouldBindJSON(&req); {
	case errors.Is(err, io.EOF):
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		req.CardNumber = validator.FormatCardNumber(req.CardNumber)
		req.Expiry = validator.FormatExpiry(req.Expiry)
		if err := validator.Validate(req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	session, transitioned, err := h.service.CompleteDemoSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"alreadyCompleted": !transitioned,
		"session":          session,
	})
}

func (h *DemoHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment processing was interrupted"})
	default:
		logger.ErrorContext(c.Request.Context(), err, "Demo payment request failed", map[string]interface{}{
			"session_id": c.Param("sessionId"),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process demo payment"})
	}
}
