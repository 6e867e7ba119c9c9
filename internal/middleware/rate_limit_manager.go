package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorIdleTTL         = 3 * time.Minute
	visitorCleanupInterval = time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager keeps one token bucket per client IP and forgets clients
// that have been idle for a few minutes.
type RateLimitManager struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRateLimitManager allows requestsPerWindow requests per windowSeconds for
// each client, at most burst of them back to back. A non-positive burst
// allows the whole window at once and a non-positive request count disables
// limiting.
func NewRateLimitManager(ctx context.Context, requestsPerWindow, windowSeconds, burst int) *RateLimitManager {
	limit := rate.Inf
	if requestsPerWindow > 0 {
		if windowSeconds <= 0 {
			windowSeconds = 60
		}
		limit = rate.Limit(float64(requestsPerWindow) / float64(windowSeconds))
		if burst <= 0 {
			burst = requestsPerWindow
		}
	}

	managerCtx, cancel := context.WithCancel(ctx)
	m := &RateLimitManager{
		limit:    limit,
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.cleanupLoop(managerCtx)

	return m
}

// Enabled reports whether any limit is enforced.
func (m *RateLimitManager) Enabled() bool {
	return m != nil && m.limit != rate.Inf
}

// Allow consumes a token for ip.
func (m *RateLimitManager) Allow(ip string) bool {
	if !m.Enabled() {
		return true
	}

	m.mu.Lock()
	v, exists := m.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[ip] = v
	}
	v.lastSeen = m.now()
	m.mu.Unlock()

	return v.limiter.Allow()
}

func (m *RateLimitManager) visitorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

func (m *RateLimitManager) cleanupLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(visitorCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *RateLimitManager) cleanup() {
	cutoff := m.now().Add(-visitorIdleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	for ip, v := range m.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(m.visitors, ip)
		}
	}
}

// Shutdown stops the cleanup goroutine and waits for it to finish.
func (m *RateLimitManager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
