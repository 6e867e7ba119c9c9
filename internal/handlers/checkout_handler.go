package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/models"
	"storefront-backend/internal/service"
	"storefront-backend/pkg/logger"
)

// CheckoutHandler exposes checkout session operations to the storefront client.
type CheckoutHandler struct {
	service service.CheckoutUseCase
}

// NewCheckoutHandler constructs a handler instance.
func NewCheckoutHandler(service service.CheckoutUseCase) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// CreateSession prices the submitted cart and starts a checkout session.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession returns the normalized state of a live or demo session.
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	session, err := h.service.GetCheckoutSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *CheckoutHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrUnknownProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, service.ErrCheckoutUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Checkout is not available"})
	default:
		logger.ErrorContext(c.Request.Context(), err, "Checkout request failed", map[string]interface{}{
			"path": c.FullPath(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to process checkout session"})
	}
}
