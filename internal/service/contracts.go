package service

import (
	"context"
	"time"

	"storefront-backend/internal/models"
	"storefront-backend/internal/payments"
	"storefront-backend/internal/payments/demo"
)

type CatalogUseCase interface {
	List() []models.Product
	Get(id string) (*models.Product, error)
}

type CheckoutUseCase interface {
	Mode() models.CheckoutMode
	CreateCheckoutSession(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutSessionResponse, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSessionView, error)
	GetDemoSession(ctx context.Context, sessionID string) (*demo.Session, error)
	CompleteDemoSession(ctx context.Context, sessionID string) (*demo.Session, bool, error)
	SweepDemoSessions(ctx context.Context) (int, error)
}

// DemoProvider is the simulated provider used in demo mode.
type DemoProvider interface {
	payments.Provider
	Session(ctx context.Context, id string) (*demo.Session, error)
	Complete(ctx context.Context, id string) (*demo.Session, bool, error)
	Sweep(ctx context.Context, now time.Time) (int, error)
	Now() time.Time
}

var (
	_ CatalogUseCase  = (*CatalogService)(nil)
	_ CheckoutUseCase = (*CheckoutService)(nil)
	_ DemoProvider    = (*demo.Provider)(nil)
)
