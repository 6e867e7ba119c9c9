package service

import (
	"errors"

	"storefront-backend/internal/payments"
)

var (
	// ErrEmptyCart is returned when a checkout request has no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity is returned for quantities outside the accepted range.
	ErrInvalidQuantity = errors.New("invalid item quantity")
	// ErrUnknownProduct is returned when a checkout request references a product that is not in the catalog.
	ErrUnknownProduct = errors.New("product not found")
	// ErrCheckoutUnavailable is returned when neither a live nor a demo provider is configured.
	ErrCheckoutUnavailable = errors.New("checkout is not configured")
	// ErrSessionNotFound is returned for unknown or foreign session ids.
	ErrSessionNotFound = payments.ErrSessionNotFound
)
