package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestDisabledCacheIsInert(t *testing.T) {
	c, err := NewCache("", false)
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	ctx := context.Background()

	if c.Enabled() {
		t.Fatalf("expected cache to be disabled")
	}
	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("expected Set to be a no-op, got %v", err)
	}
	var dest string
	if err := c.Get(ctx, "k", &dest); !errors.Is(err, ErrCacheDisabled) {
		t.Fatalf("expected ErrCacheDisabled, got %v", err)
	}
	if _, err := c.SetNX(ctx, "k", "v", time.Minute); !errors.Is(err, ErrCacheDisabled) {
		t.Fatalf("expected ErrCacheDisabled from SetNX, got %v", err)
	}
	if _, err := c.SetXX(ctx, "k", "v", KeepTTL); !errors.Is(err, ErrCacheDisabled) {
		t.Fatalf("expected ErrCacheDisabled from SetXX, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("expected Close to be a no-op, got %v", err)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	if c.Enabled() {
		t.Fatalf("expected nil cache to report disabled")
	}
}

func TestSetXXOnlyOverwritesExistingKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewCache(mr.Addr(), true)
	if err != nil {
		t.Fatalf("NewCache returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	updated, err := c.SetXX(ctx, "missing", "v", KeepTTL)
	if err != nil || updated {
		t.Fatalf("expected SetXX on a missing key to be skipped, got %v/%v", updated, err)
	}
	if mr.Exists("missing") {
		t.Fatalf("expected SetXX not to create the key")
	}

	if err := c.Set(ctx, "k", "v1", time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	mr.FastForward(15 * time.Minute)

	updated, err = c.SetXX(ctx, "k", "v2", KeepTTL)
	if err != nil || !updated {
		t.Fatalf("expected SetXX to overwrite the key, got %v/%v", updated, err)
	}
	var got string
	if err := c.Get(ctx, "k", &got); err != nil || got != "v2" {
		t.Fatalf("expected v2, got %q/%v", got, err)
	}
	if ttl := mr.TTL("k"); ttl != 45*time.Minute {
		t.Fatalf("expected expiry to be kept, got %v", ttl)
	}
}
