package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func perform(router http.Handler, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = c.GetString(RequestIDContextKey)
		c.Status(http.StatusNoContent)
	})

	rec := perform(router, http.MethodGet, "/ping", nil)

	header := rec.Header().Get(RequestIDHeader)
	if header == "" || header != seen {
		t.Fatalf("expected generated id in header and context, got %q and %q", header, seen)
	}
}

func TestRequestIDMiddlewareReusesWellFormedID(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := perform(router, http.MethodGet, "/ping", http.Header{RequestIDHeader: {"upstream-req-1234"}})
	if got := rec.Header().Get(RequestIDHeader); got != "upstream-req-1234" {
		t.Fatalf("expected inbound id to be reused, got %q", got)
	}

	rec = perform(router, http.MethodGet, "/ping", http.Header{RequestIDHeader: {"bad id\nwith newline"}})
	if got := rec.Header().Get(RequestIDHeader); got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected malformed id to be replaced, got %q", got)
	}
}

func TestRateLimitMiddlewareRejectsBurst(t *testing.T) {
	manager := NewRateLimitManager(context.Background(), 2, 60, 0)
	defer manager.Shutdown()

	router := gin.New()
	router.Use(RateLimitMiddleware(manager))
	router.GET("/api/products", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if rec := perform(router, http.MethodGet, "/api/products", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := perform(router, http.MethodGet, "/api/products", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Too many requests") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	if rec := perform(router, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected health check to bypass limiting, got %d", rec.Code)
	}
}

func TestRateLimitManagerDisabled(t *testing.T) {
	manager := NewRateLimitManager(context.Background(), 0, 60, 0)
	defer manager.Shutdown()

	if manager.Enabled() {
		t.Fatalf("expected limiter to be disabled")
	}
	for i := 0; i < 100; i++ {
		if !manager.Allow("10.0.0.1") {
			t.Fatalf("expected disabled limiter to allow everything")
		}
	}
}

func TestRateLimitManagerHonoursSmallBurst(t *testing.T) {
	manager := NewRateLimitManager(context.Background(), 10, 60, 2)
	defer manager.Shutdown()

	if !manager.Allow("10.0.0.1") || !manager.Allow("10.0.0.1") {
		t.Fatalf("expected the first two requests to pass")
	}
	if manager.Allow("10.0.0.1") {
		t.Fatalf("expected third back to back request to be limited by the burst")
	}
	if !manager.Allow("10.0.0.2") {
		t.Fatalf("expected other clients to keep their own burst")
	}
}

func TestRateLimitManagerForgetsIdleVisitors(t *testing.T) {
	manager := NewRateLimitManager(context.Background(), 10, 60, 0)
	defer manager.Shutdown()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	manager.Allow("10.0.0.1")
	now = now.Add(2 * time.Minute)
	manager.Allow("10.0.0.2")

	now = now.Add(2 * time.Minute)
	manager.cleanup()

	if got := manager.visitorCount(); got != 1 {
		t.Fatalf("expected one remaining visitor, got %d", got)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := perform(router, http.MethodGet, "/ping", nil)

	expected := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": apiContentSecurityPolicy,
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("header %s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("expected no HSTS header on plain HTTP")
	}
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	router := gin.New()
	router.Use(MetricsMiddleware())
	router.GET("/api/demo-session/:sessionId", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(router, http.MethodGet, "/api/demo-session/demo_abc", nil)
	perform(router, http.MethodGet, "/nowhere", nil)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	routes := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "storefront_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					routes[label.GetValue()] = true
				}
			}
		}
	}

	if !routes["/api/demo-session/:sessionId"] || !routes["unmatched"] {
		t.Fatalf("expected pattern and unmatched routes to be recorded, got %v", routes)
	}
	if routes["/api/demo-session/demo_abc"] {
		t.Fatalf("raw path must not be used as a label")
	}
}
