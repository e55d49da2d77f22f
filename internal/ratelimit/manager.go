package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/models"
)

// Manager owns one Limiter per endpoint key. Limiters are created on first
// use from the endpoint's override, or the default bucket otherwise.
type Manager struct {
	defaults  Config
	overrides map[string]Config
	opts      []Option

	mu       sync.Mutex
	limiters map[string]*Limiter
	closed   bool
}

// NewManager validates every bucket configuration up front. A zero defaults
// value selects DefaultConfig.
func NewManager(defaults Config, overrides map[string]Config, opts ...Option) (*Manager, error) {
	if defaults == (Config{}) {
		defaults = DefaultConfig()
	}
	defaults = defaults.withDefaults()
	if err := defaults.validate(); err != nil {
		return nil, fmt.Errorf("default bucket: %w", err)
	}

	ov := make(map[string]Config, len(overrides))
	for endpoint, cfg := range overrides {
		cfg = cfg.withDefaults()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("bucket for %s: %w", endpoint, err)
		}
		ov[endpoint] = cfg
	}

	return &Manager{
		defaults:  defaults,
		overrides: ov,
		opts:      opts,
		limiters:  make(map[string]*Limiter),
	}, nil
}

// NewManagerFromConfig builds a Manager from the rate_limit config section.
func NewManagerFromConfig(cfg models.RateLimitConfig, opts ...Option) (*Manager, error) {
	overrides := make(map[string]Config, len(cfg.Endpoints))
	for endpoint, b := range cfg.Endpoints {
		overrides[endpoint] = fromBucketConfig(b)
	}
	return NewManager(fromBucketConfig(cfg.Default), overrides, opts...)
}

func fromBucketConfig(b models.BucketConfig) Config {
	return Config{
		MaxTokens:      b.MaxTokens,
		RefillRate:     b.RefillRate,
		RefillInterval: b.RefillInterval,
	}
}

// Limiter returns the limiter for endpoint, creating it if needed.
func (m *Manager) Limiter(endpoint string) (*Limiter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if l, ok := m.limiters[endpoint]; ok {
		return l, nil
	}

	cfg, ok := m.overrides[endpoint]
	if !ok {
		cfg = m.defaults
	}
	l, err := New(cfg, m.opts...)
	if err != nil {
		return nil, err
	}
	l.name = endpoint
	m.limiters[endpoint] = l
	return l, nil
}

// Execute routes fn through the endpoint's limiter.
func (m *Manager) Execute(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	l, err := m.Limiter(endpoint)
	if err != nil {
		return err
	}
	return l.Execute(ctx, fn)
}

// DoEndpoint is Manager.Execute for functions that produce a value.
func DoEndpoint[T any](ctx context.Context, m *Manager, endpoint string, fn func(context.Context) (T, error)) (T, error) {
	l, err := m.Limiter(endpoint)
	if err != nil {
		var zero T
		return zero, err
	}
	return Do(ctx, l, fn)
}

func (m *Manager) lookup(endpoint string) (*Limiter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[endpoint]
	return l, ok
}

// WouldBeRateLimited is false for endpoints that have never been used.
func (m *Manager) WouldBeRateLimited(endpoint string) bool {
	l, ok := m.lookup(endpoint)
	if !ok {
		return false
	}
	return l.WouldBeRateLimited()
}

// Endpoints lists the endpoints that currently have a limiter, sorted.
func (m *Manager) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.limiters))
	for name := range m.limiters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) snapshot() map[string]*Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*Limiter, len(m.limiters))
	for k, v := range m.limiters {
		out[k] = v
	}
	return out
}

// States returns a snapshot of every live limiter.
func (m *Manager) States() map[string]State {
	limiters := m.snapshot()
	states := make(map[string]State, len(limiters))
	for endpoint, l := range limiters {
		states[endpoint] = l.State()
	}
	return states
}

// Reset resets one endpoint's limiter. It reports false if the endpoint has
// no limiter.
func (m *Manager) Reset(endpoint string) bool {
	l, ok := m.lookup(endpoint)
	if !ok {
		return false
	}
	l.Reset()
	return true
}

func (m *Manager) ResetAll() {
	for _, l := range m.snapshot() {
		l.Reset()
	}
}

// Close closes every limiter; later calls fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	limiters := m.limiters
	m.limiters = make(map[string]*Limiter)
	m.mu.Unlock()

	for _, l := range limiters {
		l.Close()
	}
}
