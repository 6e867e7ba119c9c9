package models

import "time"

// Product is a catalog entry. Price is expressed in the checkout currency's
// major unit (JPY has no minor unit).
type Product struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Price       int64  `json:"price" yaml:"price"`
	Image       string `json:"image" yaml:"image"`
	Description string `json:"description" yaml:"description"`
}

// CartItem is a product together with the quantity the shopper selected.
type CartItem struct {
	Product
	Quantity int64 `json:"quantity"`
}

// Subtotal returns price multiplied by quantity.
func (i CartItem) Subtotal() int64 {
	return i.Price * i.Quantity
}

// CheckoutMode describes how checkout sessions are backed.
type CheckoutMode string

const (
	CheckoutModeLive CheckoutMode = "live"
	CheckoutModeDemo CheckoutMode = "demo"
)

// SessionStatus is the normalized status exposed to clients.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusExpired  SessionStatus = "expired"
)

// SessionLineItem is a purchased line as shown on the success page.
type SessionLineItem struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
	Image    string `json:"image,omitempty"`
}

// CheckoutSessionView is the provider-independent view of a checkout session.
type CheckoutSessionView struct {
	ID            string            `json:"id"`
	Mode          CheckoutMode      `json:"mode"`
	Status        SessionStatus     `json:"status"`
	PaymentStatus string            `json:"paymentStatus,omitempty"`
	Items         []SessionLineItem `json:"items"`
	TotalAmount   int64             `json:"totalAmount"`
	Currency      string            `json:"currency,omitempty"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}
