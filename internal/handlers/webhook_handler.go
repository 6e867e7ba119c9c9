package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/payments/stripe"
	"storefront-backend/pkg/logger"
)

const (
	maxWebhookPayloadBytes  = 64 << 10
	webhookSignatureTimeout = 5 * time.Minute
	stripeSignatureHeader   = "Stripe-Signature"
)

// WebhookHandler receives Stripe event notifications.
type WebhookHandler struct {
	secret string
}

func NewWebhookHandler(secret string) *WebhookHandler {
	return &WebhookHandler{secret: secret}
}

func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Webhooks are not configured"})
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	if err := stripe.VerifyWebhookSignature(payload, c.GetHeader(stripeSignatureHeader), h.secret, webhookSignatureTimeout); err != nil {
		logger.WarnContext(c.Request.Context(), "Rejected Stripe webhook", map[string]interface{}{
			"reason": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
	}

	if event.Type == stripe.EventCheckoutSessionCompleted {
		session, err := event.CheckoutSession()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		fields["session_id"] = session.ID
		fields["payment_status"] = session.PaymentStatus
		fields["amount_total"] = session.AmountTotal
		fields["currency"] = session.Currency
		logger.InfoContext(c.Request.Context(), "Checkout session completed", fields)
	} else {
		logger.DebugContext(c.Request.Context(), "Ignoring Stripe event", fields)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
