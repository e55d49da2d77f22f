package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storefront/internal/models"
)

func TestMemoryLimiter_AllowUnderLimit(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 5*time.Minute)
	defer limiter.Close()

	allowed, info := limiter.Allow("192.168.1.1")
	assert.True(t, allowed)
	assert.Equal(t, 60, info.Limit)
	assert.Equal(t, 9, info.Remaining)
	assert.True(t, info.ResetAt.After(time.Now()))
	assert.Zero(t, info.RetryAfter)
}

func TestMemoryLimiter_ExceedsBurst(t *testing.T) {
	limiter := NewMemoryLimiter(60, 3, 5*time.Minute)
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("192.168.1.1")
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, info := limiter.Allow("192.168.1.1")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, info.RetryAfter, time.Second)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(60, 2, 5*time.Minute)
	defer limiter.Close()

	limiter.Allow("key1")
	limiter.Allow("key1")
	denied, _ := limiter.Allow("key1")
	assert.False(t, denied, "key1 should be denied")

	allowed, _ := limiter.Allow("key2")
	assert.True(t, allowed, "key2 should be allowed")
	assert.Equal(t, 2, limiter.Len())
}

func TestNewMemoryLimiterFromConfig(t *testing.T) {
	limiter := NewMemoryLimiterFromConfig(models.InboundRateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 120,
		BurstSize:         1,
		CleanupInterval:   time.Minute,
	})
	defer limiter.Close()

	allowed, info := limiter.Allow("client")
	assert.True(t, allowed)
	assert.Equal(t, 120, info.Limit)

	allowed, _ = limiter.Allow("client")
	assert.False(t, allowed)
}

func TestMemoryLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewMemoryLimiter(1000, 100, 5*time.Minute)
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", id%5)
			for j := 0; j < 20; j++ {
				limiter.Allow(key)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, limiter.Len())
}

func TestMemoryLimiter_DoubleClose(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 100*time.Millisecond)
	limiter.Close()
	limiter.Close()
}

func TestMemoryLimiter_EvictIdle(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, time.Minute)
	defer limiter.Close()

	limiter.Allow("ephemeral")
	assert.Equal(t, 1, limiter.Len())

	limiter.evictIdle(time.Now().Add(time.Minute))
	assert.Equal(t, 1, limiter.Len(), "client seen within two intervals is kept")

	limiter.evictIdle(time.Now().Add(3 * time.Minute))
	assert.Equal(t, 0, limiter.Len())
}

func TestMemoryLimiter_CleanupLoop(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 20*time.Millisecond)
	defer limiter.Close()

	limiter.Allow("ephemeral")
	assert.Eventually(t, func() bool { return limiter.Len() == 0 },
		time.Second, 10*time.Millisecond)
}
