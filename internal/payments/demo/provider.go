package demo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront-backend/internal/payments"
	"storefront-backend/pkg/logger"
)

var ErrInvalidLineItems = errors.New("demo session requires line items with positive amounts")

// Config controls the simulated provider.
type Config struct {
	// CheckoutURL is the client page that renders the fake payment form.
	CheckoutURL string
	// Retention is how long a session is kept before the janitor removes it.
	Retention time.Duration
	// ProcessingDelay is the simulated authorization time on completion.
	ProcessingDelay time.Duration
}

// Provider is an in-process stand-in for a hosted checkout provider.
type Provider struct {
	store  Store
	config Config
	now    func() time.Time
}

var _ payments.Provider = (*Provider)(nil)

func NewProvider(store Store, cfg Config) *Provider {
	initMetrics()

	if store == nil {
		store = NewMemoryStore()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if cfg.ProcessingDelay < 0 {
		cfg.ProcessingDelay = 0
	}
	cfg.CheckoutURL = strings.TrimSpace(cfg.CheckoutURL)

	return &Provider{store: store, config: cfg, now: time.Now}
}

// SetClock replaces the time source.
func (p *Provider) SetClock(now func() time.Time) {
	if now != nil {
		p.now = now
	}
}

func (p *Provider) checkoutURL(id string) string {
	return p.config.CheckoutURL + "?session_id=" + url.QueryEscape(id)
}

// CreateCheckoutSession records a pending session and returns the URL of the
// local payment form.
func (p *Provider) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	if len(params.LineItems) == 0 {
		return nil, ErrInvalidLineItems
	}

	session := &Session{
		ID:        NewSessionID(),
		Status:    StatusPending,
		Items:     make([]LineItem, 0, len(params.LineItems)),
		CreatedAt: p.now().UTC(),
	}

	for _, item := range params.LineItems {
		if item.UnitAmount <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLineItems, item.Name)
		}
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		if session.Currency == "" {
			session.Currency = strings.ToLower(strings.TrimSpace(item.Currency))
		}
		session.Items = append(session.Items, LineItem{
			Name:     item.Name,
			Price:    item.UnitAmount,
			Quantity: quantity,
			Image:    item.ImageURL,
		})
		session.TotalAmount += item.UnitAmount * quantity
	}

	if err := p.store.Save(ctx, session); err != nil {
		return nil, err
	}
	sessionsCreated.Inc()

	logger.InfoContext(ctx, "Demo checkout session created", map[string]interface{}{
		"session_id":   session.ID,
		"total_amount": session.TotalAmount,
		"items":        len(session.Items),
	})

	return &payments.Session{ID: session.ID, URL: p.checkoutURL(session.ID)}, nil
}

// Session returns the stored demo session. Ids outside the demo namespace are
// never looked up.
func (p *Provider) Session(ctx context.Context, id string) (*Session, error) {
	if !IsSessionID(id) {
		return nil, payments.ErrSessionNotFound
	}
	return p.store.Get(ctx, id)
}

// GetCheckoutSession maps a demo session onto the provider-neutral details.
func (p *Provider) GetCheckoutSession(ctx context.Context, id string) (*payments.SessionDetails, error) {
	session, err := p.Session(ctx, id)
	if err != nil {
		return nil, err
	}

	details := &payments.SessionDetails{
		ID:            session.ID,
		Status:        payments.StatusOpen,
		PaymentStatus: payments.PaymentStatusUnpaid,
		AmountTotal:   session.TotalAmount,
		Currency:      session.Currency,
		Created:       session.CreatedAt,
		LineItems:     make([]payments.LineItem, 0, len(session.Items)),
	}
	if session.Status == StatusComplete {
		details.Status = payments.StatusComplete
		details.PaymentStatus = payments.PaymentStatusPaid
	}
	for _, item := range session.Items {
		details.LineItems = append(details.LineItems, payments.LineItem{
			Name:       item.Name,
			UnitAmount: item.Price,
			Quantity:   item.Quantity,
			Currency:   session.Currency,
			ImageURL:   item.Image,
		})
	}
	return details, nil
}

// Complete simulates a successful payment. The first call waits for the
// processing delay and moves the session to complete; later calls return the
// completed session immediately with transitioned set to false.
func (p *Provider) Complete(ctx context.Context, id string) (session *Session, transitioned bool, err error) {
	current, err := p.Session(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if current.Status == StatusComplete {
		return current, false, nil
	}

	if delay := p.config.ProcessingDelay; delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, false, ctx.Err()
		}
	}

	session, transitioned, err = p.store.MarkComplete(ctx, id, p.now().UTC())
	if err != nil {
		return nil, false, err
	}

	if transitioned {
		sessionsCompleted.Inc()
		logger.InfoContext(ctx, "Demo checkout session completed", map[string]interface{}{
			"session_id":   session.ID,
			"total_amount": session.TotalAmount,
		})
	}

	return session, transitioned, nil
}

// Sweep deletes sessions created at or before now minus the retention window.
func (p *Provider) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-p.config.Retention)
	removed, err := p.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("failed to sweep demo sessions: %w", err)
	}
	sessionsSwept.Add(float64(removed))

	if remaining, err := p.store.Count(ctx); err == nil {
		sessionsActive.Set(float64(remaining))
	}

	if removed > 0 {
		logger.Info("Expired demo checkout sessions removed", map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.Format(time.RFC3339),
		})
	}
	return removed, nil
}

// Now exposes the provider clock so callers sweep on the same timeline.
func (p *Provider) Now() time.Time {
	return p.now()
}
