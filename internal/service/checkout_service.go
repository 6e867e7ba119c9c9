package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-backend/internal/models"
	"storefront-backend/internal/payments"
	"storefront-backend/internal/payments/demo"
	"storefront-backend/internal/payments/stripe"
	"storefront-backend/internal/repository"
	"storefront-backend/internal/cart"
	"storefront-backend/pkg/logger"
)

// DefaultMaxQuantity caps the units of a single product per checkout.
const DefaultMaxQuantity = 99

// CheckoutConfig defines configuration required to create checkout sessions.
type CheckoutConfig struct {
	SuccessURL  string
	CancelURL   string
	Currency    string
	MaxQuantity int64
}

// CheckoutService validates carts and creates checkout sessions with Stripe,
// or with the demo provider when Stripe is not configured.
type CheckoutService struct {
	catalog repository.ProductRepository
	live    payments.Provider
	demo    DemoProvider
	config  CheckoutConfig
}

// NewCheckoutService constructs a checkout service. A nil live provider puts
// the service in demo mode.
func NewCheckoutService(catalog repository.ProductRepository, live payments.Provider, demoProvider DemoProvider, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{
		catalog: catalog,
		live:    live,
		demo:    demoProvider,
		config:  normalizeCheckoutConfig(cfg),
	}
}

func normalizeCheckoutConfig(cfg CheckoutConfig) CheckoutConfig {
	normalized := CheckoutConfig{
		SuccessURL:  strings.TrimSpace(cfg.SuccessURL),
		CancelURL:   strings.TrimSpace(cfg.CancelURL),
		Currency:    strings.ToLower(strings.TrimSpace(cfg.Currency)),
		MaxQuantity: cfg.MaxQuantity,
	}
	if normalized.MaxQuantity <= 0 {
		normalized.MaxQuantity = DefaultMaxQuantity
	}
	return normalized
}

// Mode reports whether sessions are created with Stripe or simulated.
func (s *CheckoutService) Mode() models.CheckoutMode {
	if s.live != nil {
		return models.CheckoutModeLive
	}
	return models.CheckoutModeDemo
}

func (s *CheckoutService) provider() payments.Provider {
	if s.live != nil {
		return s.live
	}
	if s.demo != nil {
		return s.demo
	}
	return nil
}

// buildCart resolves every requested item against the catalog. Nothing is
// sent to a provider unless the whole request is valid.
func (s *CheckoutService) buildCart(items []models.CheckoutItemRequest) (*cart.Cart, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	c := cart.New()
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if item.Quantity < 1 || item.Quantity > s.config.MaxQuantity {
			return nil, fmt.Errorf("%w: %d for %s", ErrInvalidQuantity, item.Quantity, id)
		}
		product, err := s.catalog.GetByID(id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
			}
			return nil, err
		}
		c.Add(*product, item.Quantity)
	}

	for _, line := range c.Items() {
		if line.Quantity > s.config.MaxQuantity {
			return nil, fmt.Errorf("%w: %d for %s", ErrInvalidQuantity, line.Quantity, line.ID)
		}
	}

	return c, nil
}

// CreateCheckoutSession validates the cart and creates a session with the
// active provider.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSessionResponse, error) {
	provider := s.provider()
	if provider == nil {
		return nil, ErrCheckoutUnavailable
	}

	c, err := s.buildCart(req.Items)
	if err != nil {
		return nil, err
	}

	lineItems := make([]payments.LineItem, 0, c.Len())
	for _, line := range c.Items() {
		lineItems = append(lineItems, payments.LineItem{
			Name:        line.Name,
			Description: line.Description,
			ImageURL:    line.Image,
			UnitAmount:  line.Price,
			Quantity:    line.Quantity,
			Currency:    s.config.Currency,
		})
	}

	params := payments.CheckoutParams{
		Mode:          payments.ModePayment,
		SuccessURL:    s.config.SuccessURL,
		CancelURL:     s.config.CancelURL,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Metadata: map[string]string{
			"item_count":   strconv.FormatInt(c.Count(), 10),
			"total_amount": strconv.FormatInt(c.Total(), 10),
		},
		LineItems: lineItems,
	}

	mode := s.Mode()
	logger.InfoContext(ctx, "Preparing checkout session", map[string]interface{}{
		"mode":         mode,
		"items":        c.Len(),
		"total_amount": c.Total(),
	})

	session, err := provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		logger.ErrorContext(ctx, err, "Failed to create checkout session with provider", map[string]interface{}{
			"mode": mode,
		})
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	logger.InfoContext(ctx, "Checkout session ready", map[string]interface{}{
		"mode":       mode,
		"session_id": session.ID,
	})

	return &models.CheckoutSessionResponse{
		SessionID:   session.ID,
		URL:         session.URL,
		Mode:        mode,
		TotalAmount: c.Total(),
	}, nil
}

// GetCheckoutSession dispatches on the id namespace: demo ids are answered
// locally and Stripe ids go to Stripe. Anything else is not found.
func (s *CheckoutService) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSessionView, error) {
	sessionID = strings.TrimSpace(sessionID)

	var (
		provider payments.Provider
		mode     models.CheckoutMode
	)
	switch {
	case demo.IsSessionID(sessionID) && s.demo != nil:
		provider, mode = s.demo, models.CheckoutModeDemo
	case stripe.IsCheckoutSessionID(sessionID) && s.live != nil:
		provider, mode = s.live, models.CheckoutModeLive
	default:
		return nil, ErrSessionNotFound
	}

	details, err := provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sessionView(details, mode), nil
}

func sessionView(details *payments.SessionDetails, mode models.CheckoutMode) *models.CheckoutSessionView {
	view := &models.CheckoutSessionView{
		ID:            details.ID,
		Mode:          mode,
		Status:        normalizeStatus(details.Status),
		PaymentStatus: details.PaymentStatus,
		Items:         make([]models.SessionLineItem, 0, len(details.LineItems)),
		TotalAmount:   details.AmountTotal,
		Currency:      details.Currency,
		CustomerEmail: details.CustomerEmail,
		CreatedAt:     details.Created,
	}
	for _, item := range details.LineItems {
		view.Items = append(view.Items, models.SessionLineItem{
			Name:     item.Name,
			Price:    item.UnitAmount,
			Quantity: item.Quantity,
			Image:    item.ImageURL,
		})
	}
	return view
}

func normalizeStatus(status string) models.SessionStatus {
	switch status {
	case payments.StatusComplete:
		return models.SessionStatusComplete
	case payments.StatusExpired:
		return models.SessionStatusExpired
	default:
		return models.SessionStatusPending
	}
}

// GetDemoSession returns a simulated session for the demo payment form.
func (s *CheckoutService) GetDemoSession(ctx context.Context, sessionID string) (*demo.Session, error) {
	if s.demo == nil {
		return nil, ErrSessionNotFound
	}
	return s.demo.Session(ctx, strings.TrimSpace(sessionID))
}

// CompleteDemoSession simulates a successful payment. Repeated calls return
// the completed session without side effects.
func (s *CheckoutService) CompleteDemoSession(ctx context.Context, sessionID string) (*demo.Session, bool, error) {
	if s.demo == nil {
		return nil, false, ErrSessionNotFound
	}
	return s.demo.Complete(ctx, strings.TrimSpace(sessionID))
}

// SweepDemoSessions deletes demo sessions past the retention window.
func (s *CheckoutService) SweepDemoSessions(ctx context.Context) (int, error) {
	if s.demo == nil {
		return 0, nil
	}
	return s.demo.Sweep(ctx, s.demo.Now())
}
