package models

// CheckoutItemRequest references a catalog product by id.
type CheckoutItemRequest struct {
	ID       string `json:"id" binding:"required,product_id"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// CheckoutRequest is the payload sent by the cart page.
type CheckoutRequest struct {
	Items         []CheckoutItemRequest `json:"items" binding:"required,min=1,dive"`
	CustomerEmail string                `json:"customerEmail" binding:"omitempty,email"`
}

// CheckoutSessionResponse tells the client where to send the shopper next.
type CheckoutSessionResponse struct {
	SessionID   string       `json:"sessionId"`
	URL         string       `json:"url"`
	Mode        CheckoutMode `json:"mode"`
	TotalAmount int64        `json:"totalAmount"`
}

// DemoPaymentRequest carries the fields of the simulated card form. The body
// is optional; when it is sent the fields are normalized and then checked.
type DemoPaymentRequest struct {
	CardNumber string `json:"cardNumber" validate:"required,card_number"`
	Expiry     string `json:"expiry" validate:"required,card_expiry"`
	CVC        string `json:"cvc" validate:"required,card_cvc"`
}
