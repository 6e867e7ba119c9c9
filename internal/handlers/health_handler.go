package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/models"
)

type modeReporter interface {
	Mode() models.CheckoutMode
}

// Health reports liveness along with the active checkout mode.
func Health(checkout modeReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":        "healthy",
			"time":          time.Now().Format(time.RFC3339),
			"checkout_mode": checkout.Mode(),
		})
	}
}
