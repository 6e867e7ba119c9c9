package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventCheckoutSessionCompleted is sent once a Checkout session is paid.
const EventCheckoutSessionCompleted = "checkout.session.completed"

var now = time.Now

// Event is the envelope of a Stripe webhook delivery.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// CheckoutSessionObject is the subset of a Checkout session carried by webhook events.
type CheckoutSessionObject struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// ParseEvent decodes a webhook payload. The signature must be verified first.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("invalid stripe event payload: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, errors.New("stripe event is missing id or type")
	}
	return &event, nil
}

// CheckoutSession decodes the event object as a Checkout session.
func (e *Event) CheckoutSession() (*CheckoutSessionObject, error) {
	var session CheckoutSessionObject
	if err := json.Unmarshal(e.Data.Object, &session); err != nil {
		return nil, fmt.Errorf("invalid checkout session object: %w", err)
	}
	return &session, nil
}

// VerifyWebhookSignature validates a Stripe webhook signature header against the payload.
// It follows Stripe's recommendation: https://stripe.com/docs/webhooks/signatures
func VerifyWebhookSignature(payload []byte, header, secret string, tolerance time.Duration) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("stripe webhook secret is required")
	}

	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return errors.New("stripe signature header is missing required fields")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid stripe signature timestamp: %w", err)
	}

	if tolerance > 0 {
		diff := now().Unix() - ts
		if diff < 0 {
			diff = -diff
		}
		if diff > int64(tolerance.Seconds()) {
			return errors.New("stripe signature timestamp outside tolerance")
		}
	}

	signedPayload := timestamp + "." + string(payload)
	expectedMAC := computeHMACSHA256([]byte(signedPayload), []byte(secret))

	for _, sig := range signatures {
		decoded, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expectedMAC) {
			return nil
		}
	}

	return errors.New("no matching stripe signature found")
}

func parseSignatureHeader(header string) (string, []string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}

	var (
		timestamp  string
		signatures []string
	)

	parts := strings.Split(header, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			timestamp = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			if sig := strings.TrimPrefix(part, "v1="); sig != "" {
				signatures = append(signatures, sig)
			}
		}
	}

	return timestamp, signatures
}

func computeHMACSHA256(message, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}
