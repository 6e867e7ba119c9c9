package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront-backend/internal/payments"
)

const defaultAPIBase = "https://api.stripe.com"

// Provider implements the payments.Provider interface for Stripe Checkout using direct HTTP calls.
type Provider struct {
	secretKey  string
	httpClient *http.Client
	apiBaseURL string
	userAgent  string
}

// Option customises a Provider.
type Option func(*Provider)

// WithAPIBaseURL points the provider at a different Stripe-compatible endpoint.
func WithAPIBaseURL(base string) Option {
	return func(p *Provider) {
		if base = strings.TrimSpace(base); base != "" {
			p.apiBaseURL = base
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// NewProvider constructs a Stripe provider using the supplied secret API key.
func NewProvider(secretKey string, opts ...Option) (*Provider, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errors.New("stripe secret key is required")
	}
	if IsPublishableKey(key) {
		return nil, errors.New("stripe publishable key cannot be used as the secret key")
	}
	if !IsSecretKey(key) {
		return nil, errors.New("stripe secret key must start with sk_ or rk_")
	}

	p := &Provider{
		secretKey:  key,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: defaultAPIBase,
		userAgent:  "storefront-backend/stripe-checkout",
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Provider) endpoint(path string) string {
	return strings.TrimRight(p.apiBaseURL, "/") + path
}

func (p *Provider) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("User-Agent", p.userAgent)
}

func (p *Provider) createRequest(ctx context.Context, params payments.CheckoutParams) (*http.Request, error) {
	form := url.Values{}
	mode := params.Mode
	if mode == "" {
		mode = payments.ModePayment
	}
	form.Set("mode", string(mode))
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)

	if email := strings.TrimSpace(params.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}

	for key, value := range params.Metadata {
		if key == "" || value == "" {
			continue
		}
		form.Set("metadata["+key+"]", value)
	}

	if len(params.LineItems) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	for index, item := range params.LineItems {
		if item.UnitAmount <= 0 {
			return nil, fmt.Errorf("line item %q has invalid amount", item.Name)
		}
		currency := strings.ToLower(strings.TrimSpace(item.Currency))
		if currency == "" {
			return nil, fmt.Errorf("line item %q currency is required", item.Name)
		}

		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		prefix := fmt.Sprintf("line_items[%d]", index)
		form.Set(prefix+"[quantity]", strconv.FormatInt(quantity, 10))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		if desc := strings.TrimSpace(item.Description); desc != "" {
			form.Set(prefix+"[price_data][product_data][description]", desc)
		}
		if image := strings.TrimSpace(item.ImageURL); image != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", image)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint("/v1/checkout/sessions"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	p.authorize(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req, nil
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func errorFromResponse(status int, apiErr apiError) error {
	message := strings.TrimSpace(apiErr.Message)
	if message == "" {
		message = fmt.Sprintf("stripe returned status %d", status)
	}
	return errors.New(message)
}

// CreateCheckoutSession creates a Stripe Checkout session for the provided purchase parameters.
func (p *Provider) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.Session, error) {
	if p == nil {
		return nil, errors.New("stripe provider is not configured")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	req, err := p.createRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		ID    string   `json:"id"`
		URL   string   `json:"url"`
		Error apiError `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("stripe response decode failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, errorFromResponse(resp.StatusCode, payload.Error)
	}

	if payload.ID == "" || payload.URL == "" {
		return nil, errors.New("stripe response missing session details")
	}

	return &payments.Session{ID: payload.ID, URL: payload.URL}, nil
}

type sessionPayload struct {
	ID              string            `json:"id"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	Created         int64             `json:"created"`
	CustomerEmail   string            `json:"customer_email"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	LineItems struct {
		Data []struct {
			Description string `json:"description"`
			Quantity    int64  `json:"quantity"`
			Currency    string `json:"currency"`
			Price       struct {
				UnitAmount int64 `json:"unit_amount"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
	Error apiError `json:"error"`
}

func (s sessionPayload) details() *payments.SessionDetails {
	email := s.CustomerDetails.Email
	if email == "" {
		email = s.CustomerEmail
	}

	details := &payments.SessionDetails{
		ID:            s.ID,
		Status:        s.Status,
		PaymentStatus: s.PaymentStatus,
		Metadata:      s.Metadata,
		CustomerEmail: email,
		AmountTotal:   s.AmountTotal,
		Currency:      s.Currency,
	}
	if s.Created > 0 {
		details.Created = time.Unix(s.Created, 0).UTC()
	}

	for _, item := range s.LineItems.Data {
		currency := item.Currency
		if currency == "" {
			currency = s.Currency
		}
		details.LineItems = append(details.LineItems, payments.LineItem{
			Name:       item.Description,
			UnitAmount: item.Price.UnitAmount,
			Quantity:   item.Quantity,
			Currency:   currency,
		})
	}

	return details
}

// GetCheckoutSession retrieves a Checkout session with its line items expanded.
// Ids that are not Stripe Checkout session ids are rejected without a request.
func (p *Provider) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.SessionDetails, error) {
	if p == nil {
		return nil, errors.New("stripe provider is not configured")
	}

	sessionID = strings.TrimSpace(sessionID)
	if !IsCheckoutSessionID(sessionID) {
		return nil, payments.ErrSessionNotFound
	}

	if ctx == nil {
		ctx = context.Background()
	}

	query := url.Values{}
	query.Add("expand[]", "line_items")
	query.Add("expand[]", "payment_intent")
	endpoint := p.endpoint("/v1/checkout/sessions/"+url.PathEscape(sessionID)) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("stripe response decode failed: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, payments.ErrSessionNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, errorFromResponse(resp.StatusCode, payload.Error)
	}

	return payload.details(), nil
}
