package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"storefront/internal/models"
)

// client holds one visitor's bucket and when it was last used.
type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is an in-memory ClientLimiter backed by golang.org/x/time/rate.
// Each client key gets its own bucket. A background goroutine evicts clients
// idle for more than twice the cleanup interval.
type MemoryLimiter struct {
	rate            rate.Limit
	burst           int
	limit           int
	cleanupInterval time.Duration

	mu      sync.Mutex
	clients map[string]*client
	done    chan struct{}
	closed  bool
}

var _ ClientLimiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates a limiter allowing requestsPerMinute per client
// with the given burst, and starts its eviction loop.
func NewMemoryLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration) *MemoryLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}

	m := &MemoryLimiter{
		rate:            rate.Limit(float64(requestsPerMinute) / 60),
		burst:           burst,
		limit:           requestsPerMinute,
		cleanupInterval: cleanupInterval,
		clients:         make(map[string]*client),
		done:            make(chan struct{}),
	}
	go m.cleanup()
	return m
}

// NewMemoryLimiterFromConfig builds the inbound limiter from configuration.
func NewMemoryLimiterFromConfig(cfg models.InboundRateLimitConfig) *MemoryLimiter {
	return NewMemoryLimiter(cfg.RequestsPerMinute, cfg.BurstSize, cfg.CleanupInterval)
}

func (m *MemoryLimiter) clientFor(key string, now time.Time) *client {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.clients[key] = c
	}
	c.lastSeen = now
	return c
}

// Allow checks whether a request from the given client should be allowed.
func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	now := time.Now()
	c := m.clientFor(key, now)

	allowed := c.limiter.AllowN(now, 1)
	tokens := c.limiter.TokensAt(now)

	info := Info{
		Limit:     m.limit,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now,
	}
	if missing := float64(m.burst) - tokens; missing > 0 {
		info.ResetAt = now.Add(time.Duration(missing / float64(m.rate) * float64(time.Second)))
	}
	if !allowed {
		// Time until the next whole token.
		info.RetryAfter = time.Duration((1 - tokens) / float64(m.rate) * float64(time.Second))
	}

	return allowed, info
}

// Len returns the number of tracked clients.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Close stops the background cleanup goroutine.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

// evictIdle drops clients not seen within twice the cleanup interval.
func (m *MemoryLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-2 * m.cleanupInterval)
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.clients {
		if c.lastSeen.Before(cutoff) {
			delete(m.clients, key)
		}
	}
}
