package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-backend/internal/payments"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewProvider("sk_test_123", WithAPIBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}
	return provider
}

func TestNewProviderRequiresSecretKey(t *testing.T) {
	if _, err := NewProvider("  "); err == nil {
		t.Fatalf("expected empty key to be rejected")
	}
	if _, err := NewProvider("pk_test_123"); err == nil || !strings.Contains(err.Error(), "publishable") {
		t.Fatalf("expected publishable key to be rejected, got %v", err)
	}
	if _, err := NewProvider("rk_test_123"); err != nil {
		t.Fatalf("expected restricted key to be accepted, got %v", err)
	}
}

func TestCreateCheckoutSessionSendsForm(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_123" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		expected := [][2]string{
			{"mode", "payment"},
			{"payment_method_types[0]", "card"},
			{"success_url", "http://localhost:5173/success?session_id={CHECKOUT_SESSION_ID}"},
			{"cancel_url", "http://localhost:5173/cancel"},
			{"line_items[0][quantity]", "2"},
			{"line_items[0][price_data][currency]", "jpy"},
			{"line_items[0][price_data][unit_amount]", "3980"},
			{"line_items[0][price_data][product_data][name]", "Tee"},
			{"line_items[0][price_data][product_data][images][0]", "https://example.com/tee.jpg"},
			{"line_items[1][quantity]", "1"},
			{"line_items[1][price_data][product_data][name]", "Denim"},
			{"line_items[1][price_data][product_data][description]", "Vintage"},
		}
		for _, field := range expected {
			if got := r.PostForm.Get(field[0]); got != field[1] {
				t.Errorf("form field %s = %q, want %q", field[0], got, field[1])
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_abc","url":"https://checkout.stripe.com/c/pay/cs_test_abc"}`))
	})

	session, err := provider.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		SuccessURL: "http://localhost:5173/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:5173/cancel",
		LineItems: []payments.LineItem{
			{Name: "Tee", UnitAmount: 3980, Quantity: 2, Currency: "JPY", ImageURL: "https://example.com/tee.jpg"},
			{Name: "Denim", Description: "Vintage", UnitAmount: 12800, Quantity: 1, Currency: "jpy"},
		},
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession returned error: %v", err)
	}
	if session.ID != "cs_test_abc" || session.URL == "" {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestCreateCheckoutSessionValidatesLineItems(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})

	cases := map[string][]payments.LineItem{
		"empty":       nil,
		"zero amount": {{Name: "Tee", UnitAmount: 0, Quantity: 1, Currency: "jpy"}},
		"no currency": {{Name: "Tee", UnitAmount: 100, Quantity: 1}},
	}
	for name, items := range cases {
		if _, err := provider.CreateCheckoutSession(context.Background(), payments.CheckoutParams{LineItems: items}); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCreateCheckoutSessionSurfacesStripeError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid currency"}}`))
	})

	_, err := provider.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		LineItems: []payments.LineItem{{Name: "Tee", UnitAmount: 100, Quantity: 1, Currency: "xxx"}},
	})
	if err == nil || err.Error() != "Invalid currency" {
		t.Fatalf("expected Stripe error message, got %v", err)
	}
}

func TestGetCheckoutSessionExpandsLineItems(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions/cs_test_abc" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		expand := r.URL.Query()["expand[]"]
		if len(expand) != 2 || expand[0] != "line_items" || expand[1] != "payment_intent" {
			t.Errorf("unexpected expand params %v", expand)
		}
		_, _ = w.Write([]byte(`{
			"id":"cs_test_abc","status":"complete","payment_status":"paid",
			"amount_total":20760,"currency":"jpy","created":1700000000,
			"customer_details":{"email":"buyer@example.com"},
			"line_items":{"data":[
				{"description":"Tee","quantity":2,"price":{"unit_amount":3980}},
				{"description":"Denim","quantity":1,"price":{"unit_amount":12800}}
			]}
		}`))
	})

	details, err := provider.GetCheckoutSession(context.Background(), "cs_test_abc")
	if err != nil {
		t.Fatalf("GetCheckoutSession returned error: %v", err)
	}
	if details.Status != payments.StatusComplete || details.PaymentStatus != payments.PaymentStatusPaid {
		t.Fatalf("unexpected status %q/%q", details.Status, details.PaymentStatus)
	}
	if details.AmountTotal != 20760 || details.CustomerEmail != "buyer@example.com" {
		t.Fatalf("unexpected details %+v", details)
	}
	if len(details.LineItems) != 2 || details.LineItems[0].UnitAmount != 3980 || details.LineItems[0].Currency != "jpy" {
		t.Fatalf("unexpected line items %+v", details.LineItems)
	}
	if details.Created.Unix() != 1700000000 {
		t.Fatalf("unexpected created time %s", details.Created)
	}
}

func TestGetCheckoutSessionRejectsForeignIDs(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("demo ids must never reach Stripe, got %s", r.URL.Path)
	})

	for _, id := range []string{"demo_0123456789abcdef", "", "session"} {
		if _, err := provider.GetCheckoutSession(context.Background(), id); !errors.Is(err, payments.ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound for %q, got %v", id, err)
		}
	}
}

func TestGetCheckoutSessionMapsNotFound(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"resource_missing","message":"No such checkout.session"}}`))
	})

	if _, err := provider.GetCheckoutSession(context.Background(), "cs_test_missing"); !errors.Is(err, payments.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
