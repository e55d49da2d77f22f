// Package ratelimit provides token bucket rate limiting in two directions.
//
// Outbound, Limiter and Manager admit calls to upstream endpoints: a caller
// that finds the bucket empty is queued and admitted in FIFO order as tokens
// refill, so requests are delayed rather than dropped.
//
// Inbound, MemoryLimiter and Middleware protect the HTTP surface per client
// IP and answer 429 with standard rate limit headers.
package ratelimit

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

var (
	// ErrReset is returned to queued callers released by Reset.
	ErrReset = errors.New("rate limiter reset")

	// ErrClosed is returned by a limiter that has been closed.
	ErrClosed = errors.New("rate limiter closed")
)

// Config describes one token bucket.
type Config struct {
	// MaxTokens is the bucket capacity.
	MaxTokens int
	// RefillRate is the number of tokens added per RefillInterval.
	RefillRate float64
	// RefillInterval defaults to one second.
	RefillInterval time.Duration
}

// DefaultConfig is the bucket used for endpoints without an override.
func DefaultConfig() Config {
	return Config{MaxTokens: 10, RefillRate: 2, RefillInterval: time.Second}
}

func (c Config) withDefaults() Config {
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	return c
}

func (c Config) validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.RefillRate <= 0 || math.IsNaN(c.RefillRate) || math.IsInf(c.RefillRate, 0) {
		return fmt.Errorf("refill rate must be a positive number, got %v", c.RefillRate)
	}
	return nil
}

// State is a point-in-time snapshot of a limiter.
type State struct {
	AvailableTokens     float64       `json:"available_tokens"`
	MaxTokens           int           `json:"max_tokens"`
	QueuedRequests      int           `json:"queued_requests"`
	TimeUntilNextRefill time.Duration `json:"time_until_next_refill"`
}

// Option configures a Limiter or Manager.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock replaces time.Now for refill arithmetic.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for queueing diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

type waiter struct {
	ready chan struct{}
	err   error
}

// Limiter is a token bucket with a FIFO wait queue.
//
// Tokens refill lazily in whole intervals. A caller that finds less than one
// token, or finds others already queued, waits in line. Queued callers are
// admitted by a drain that runs whenever state changes and, while the queue
// is non-empty, from a single timer armed for the next refill.
type Limiter struct {
	name   string
	cfg    Config
	now    func() time.Time
	logger *slog.Logger

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	queue      *list.List // of *waiter
	timer      *time.Timer
	closed     bool
}

// New creates a full token bucket.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return &Limiter{
		cfg:        cfg,
		now:        o.now,
		logger:     o.logger,
		tokens:     float64(cfg.MaxTokens),
		lastRefill: o.now(),
		queue:      list.New(),
	}, nil
}

// Config returns the bucket configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Wait blocks until the caller is admitted and one token has been consumed.
// It returns ctx.Err() if the context ends first, ErrReset if the limiter
// is reset while the caller is queued and ErrClosed once the limiter is closed.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.refillLocked()
	if l.queue.Len() == 0 && l.tokens >= 1 {
		l.tokens--
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	elem := l.queue.PushBack(w)
	l.logger.Debug("rate limit reached, queueing request",
		"endpoint", l.name,
		"queued", l.queue.Len(),
	)
	l.drainLocked()
	l.mu.Unlock()

	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case <-w.ready:
		if w.err != nil {
			return w.err
		}
		// Admitted while the context ended; hand the token back.
		l.tokens = math.Min(float64(l.cfg.MaxTokens), l.tokens+1)
		l.drainLocked()
	default:
		l.queue.Remove(elem)
	}
	return ctx.Err()
}

// Execute waits for admission and then runs fn in the caller's goroutine.
// fn runs at most once and is never run if admission fails.
func (l *Limiter) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}

// Do is Execute for functions that produce a value.
func Do[T any](ctx context.Context, l *Limiter, fn func(context.Context) (T, error)) (T, error) {
	if err := l.Wait(ctx); err != nil {
		var zero T
		return zero, err
	}
	return fn(ctx)
}

// WouldBeRateLimited reports whether a call made now would have to wait.
func (l *Limiter) WouldBeRateLimited() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	l.drainLocked()
	return l.tokens < 1
}

// State returns a snapshot after applying any pending refill.
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	l.drainLocked()

	until := l.cfg.RefillInterval - l.now().Sub(l.lastRefill)
	if until < 0 {
		until = 0
	}
	return State{
		AvailableTokens:     l.tokens,
		MaxTokens:           l.cfg.MaxTokens,
		QueuedRequests:      l.queue.Len(),
		TimeUntilNextRefill: until,
	}
}

// Reset refills the bucket and releases every queued caller with ErrReset.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = float64(l.cfg.MaxTokens)
	l.lastRefill = l.now()
	l.releaseLocked(ErrReset)
}

// Close releases queued callers with ErrClosed and rejects later calls.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.releaseLocked(ErrClosed)
}

func (l *Limiter) releaseLocked(err error) {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	for e := l.queue.Front(); e != nil; e = l.queue.Front() {
		w := l.queue.Remove(e).(*waiter)
		w.err = err
		close(w.ready)
	}
}

// refillLocked adds whole intervals' worth of tokens. lastRefill advances by
// whole intervals so fractional progress toward the next refill is kept.
func (l *Limiter) refillLocked() {
	elapsed := l.now().Sub(l.lastRefill)
	if elapsed < l.cfg.RefillInterval {
		return
	}
	intervals := elapsed / l.cfg.RefillInterval
	l.tokens = math.Min(float64(l.cfg.MaxTokens), l.tokens+float64(intervals)*l.cfg.RefillRate)
	l.lastRefill = l.lastRefill.Add(intervals * l.cfg.RefillInterval)
}

// drainLocked admits queued callers in order while whole tokens remain and
// arms the drain timer if anyone is still waiting.
func (l *Limiter) drainLocked() {
	for l.queue.Len() > 0 && l.tokens >= 1 {
		w := l.queue.Remove(l.queue.Front()).(*waiter)
		l.tokens--
		close(w.ready)
	}
	if l.queue.Len() == 0 || l.timer != nil || l.closed {
		return
	}

	delay := l.cfg.RefillInterval - l.now().Sub(l.lastRefill)
	if delay <= 0 {
		delay = l.cfg.RefillInterval
	}
	l.timer = time.AfterFunc(delay, l.onTimer)
}

func (l *Limiter) onTimer() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.timer = nil
	if l.closed {
		return
	}
	l.refillLocked()
	l.drainLocked()
}
