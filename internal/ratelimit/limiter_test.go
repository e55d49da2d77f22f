package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func drain(t *testing.T, l *Limiter, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero max tokens", Config{MaxTokens: 0, RefillRate: 1}},
		{"negative max tokens", Config{MaxTokens: -3, RefillRate: 1}},
		{"zero refill rate", Config{MaxTokens: 1, RefillRate: 0}},
		{"negative refill rate", Config{MaxTokens: 1, RefillRate: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_DefaultsRefillInterval(t *testing.T) {
	l, err := New(Config{MaxTokens: 3, RefillRate: 1})
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, time.Second, l.Config().RefillInterval)
	assert.Equal(t, 3.0, l.State().AvailableTokens)
}

func TestLimiter_RefillIsBounded(t *testing.T) {
	clock := newFakeClock()
	l, err := New(Config{MaxTokens: 5, RefillRate: 2, RefillInterval: time.Second}, WithClock(clock.Now))
	require.NoError(t, err)
	defer l.Close()

	drain(t, l, 5)
	assert.Equal(t, 0.0, l.State().AvailableTokens)
	assert.True(t, l.WouldBeRateLimited())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, 0.0, l.State().AvailableTokens, "no refill before a whole interval")

	clock.Advance(time.Millisecond)
	assert.Equal(t, 2.0, l.State().AvailableTokens)
	assert.False(t, l.WouldBeRateLimited())

	clock.Advance(time.Hour)
	assert.Equal(t, 5.0, l.State().AvailableTokens, "refill never exceeds capacity")
}

func TestLimiter_RefillKeepsPartialInterval(t *testing.T) {
	clock := newFakeClock()
	l, err := New(Config{MaxTokens: 10, RefillRate: 1, RefillInterval: time.Second}, WithClock(clock.Now))
	require.NoError(t, err)
	defer l.Close()

	drain(t, l, 10)

	clock.Advance(1500 * time.Millisecond)
	state := l.State()
	assert.Equal(t, 1.0, state.AvailableTokens)
	assert.Equal(t, 500*time.Millisecond, state.TimeUntilNextRefill)

	// The half interval already elapsed counts toward the next token.
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 2.0, l.State().AvailableTokens)
}

func TestLimiter_FractionalRefillRate(t *testing.T) {
	clock := newFakeClock()
	l, err := New(Config{MaxTokens: 1, RefillRate: 0.5, RefillInterval: time.Second}, WithClock(clock.Now))
	require.NoError(t, err)
	defer l.Close()

	drain(t, l, 1)

	clock.Advance(time.Second)
	assert.Equal(t, 0.5, l.State().AvailableTokens)
	assert.True(t, l.WouldBeRateLimited(), "half a token does not admit a call")

	clock.Advance(time.Second)
	assert.False(t, l.WouldBeRateLimited())
	drain(t, l, 1)
	assert.Equal(t, 0.0, l.State().AvailableTokens)
}

func TestLimiter_TokensStayInBounds(t *testing.T) {
	l, err := New(Config{MaxTokens: 3, RefillRate: 1, RefillInterval: 5 * time.Millisecond})
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_ = l.Wait(ctx)
				s := l.State()
				assert.GreaterOrEqual(t, s.AvailableTokens, 0.0)
				assert.LessOrEqual(t, s.AvailableTokens, 3.0)
			}
		}()
	}
	wg.Wait()
}

func TestLimiter_FIFOOrder(t *testing.T) {
	l, err := New(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: 30 * time.Millisecond})
	require.NoError(t, err)
	defer l.Close()

	drain(t, l, 1)

	const callers = 5
	order := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := l.Execute(context.Background(), func(context.Context) error {
				order <- id
				return nil
			})
			assert.NoError(t, err)
		}(i)

		// Make sure caller i is queued before caller i+1 arrives.
		want := i + 1
		require.Eventually(t, func() bool {
			return l.State().QueuedRequests+len(order) >= want
		}, time.Second, time.Millisecond)
	}

	wg.Wait()
	close(order)

	got := make([]int, 0, callers)
	for id := range order {
		got = append(got, id)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLimiter_DelaysInsteadOfDropping(t *testing.T) {
	l, err := New(Config{MaxTokens: 2, RefillRate: 2, RefillInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	defer l.Close()

	var (
		mu    sync.Mutex
		calls int
		wg    sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Execute(context.Background(), func(context.Context) error {
				mu.Lock()
				calls++
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, calls)
	assert.Equal(t, 0, l.State().QueuedRequests)
}

func TestLimiter_ExecutePropagatesError(t *testing.T) {
	l, err := New(DefaultConfig())
	require.NoError(t, err)
	defer l.Close()

	boom := errors.New("boom")
	runs := 0
	err = l.Execute(context.Background(), func(context.Context) error {
		runs++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, runs)
}

func TestDo(t *testing.T) {
	l, err := New(DefaultConfig())
	require.NoError(t, err)
	defer l.Close()

	v, err := Do(context.Background(), l, func(context.Context) (string, error) {
		return "posts", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "posts", v)
	assert.Equal(t, 9.0, l.State().AvailableTokens)
}

// queueOne consumes the only token and parks one caller in the queue.
func queueOne(t *testing.T, l *Limiter, ctx context.Context) <-chan error {
	t.Helper()
	drain(t, l, 1)

	result := make(chan error, 1)
	go func() {
		result <- l.Execute(ctx, func(context.Context) error {
			t.Error("queued function must not run")
			return nil
		})
	}()
	require.Eventually(t, func() bool { return l.State().QueuedRequests == 1 },
		time.Second, time.Millisecond)
	return result
}

func TestLimiter_ResetReleasesQueuedCallers(t *testing.T) {
	l, err := New(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)
	defer l.Close()

	result := queueOne(t, l, context.Background())
	l.Reset()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrReset)
	case <-time.After(time.Second):
		t.Fatal("queued caller was not released by Reset")
	}

	state := l.State()
	assert.Equal(t, 1.0, state.AvailableTokens)
	assert.Equal(t, 0, state.QueuedRequests)
}

func TestLimiter_ContextCancelDequeues(t *testing.T) {
	l, err := New(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	result := queueOne(t, l, ctx)
	cancel()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller was not released")
	}
	assert.Equal(t, 0, l.State().QueuedRequests)
	assert.Equal(t, 0.0, l.State().AvailableTokens, "a dequeued caller consumes nothing")
}

func TestLimiter_CanceledContextIsRejectedUpFront(t *testing.T) {
	l, err := New(DefaultConfig())
	require.NoError(t, err)
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
	assert.Equal(t, 10.0, l.State().AvailableTokens)
}

func TestLimiter_Close(t *testing.T) {
	l, err := New(Config{MaxTokens: 1, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	result := queueOne(t, l, context.Background())
	l.Close()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("queued caller was not released by Close")
	}

	ran := false
	err = l.Execute(context.Background(), func(context.Context) error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, ran)

	l.Close()
}
