// Package cache provides a two-tier TTL cache: an in-process map in front of
// a persistent storage.Store.
//
// Reads try the memory tier first and fall back to the persistent tier,
// copying fresh persistent hits back into memory. Writes go to every selected
// tier. The tiers are not kept transactionally consistent; every entry is
// bounded by its TTL so divergence is temporary.
//
// Persistent entries are stored as JSON of the form
//
//	{"data": <value>, "timestamp": <unix ms>, "ttl": <ms>}
//
// under the key prefix "cache_".
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/storage"
)

const (
	// DefaultTTL applies when Set is called without WithTTL.
	DefaultTTL = 5 * time.Minute
	// DefaultSweepInterval is how often Start's sweeper runs ClearExpired.
	DefaultSweepInterval = 5 * time.Minute
	// DefaultKeyPrefix namespaces persistent keys.
	DefaultKeyPrefix = "cache_"
)

// Storage selects which tiers an operation touches.
type Storage string

const (
	StorageMemory     Storage = "memory"
	StoragePersistent Storage = "persistent"
	StorageBoth       Storage = "both"
)

// ParseStorage converts a flag or query value into a Storage.
func ParseStorage(s string) (Storage, error) {
	switch Storage(s) {
	case StorageMemory, StoragePersistent, StorageBoth:
		return Storage(s), nil
	case "":
		return StorageBoth, nil
	}
	return "", fmt.Errorf("unknown cache storage %q (want memory, persistent or both)", s)
}

func (s Storage) memory() bool     { return s == StorageMemory || s == StorageBoth }
func (s Storage) persistent() bool { return s == StoragePersistent || s == StorageBoth }

// Entry is one cached value with its freshness metadata.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	TTL       int64           `json:"ttl"`       // milliseconds
}

// Fresh reports whether the entry's age is below its TTL at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.UnixMilli()-e.Timestamp < e.TTL
}

// EntryOption adjusts a single cache operation.
type EntryOption func(*entryOptions)

type entryOptions struct {
	ttl     time.Duration
	storage Storage
}

// WithTTL sets the lifetime of entries written by Set.
func WithTTL(ttl time.Duration) EntryOption {
	return func(o *entryOptions) { o.ttl = ttl }
}

// WithStorage restricts an operation to the given tiers.
func WithStorage(s Storage) EntryOption {
	return func(o *entryOptions) { o.storage = s }
}

// Stats counts stored entries per tier, fresh or not.
type Stats struct {
	MemoryEntries     int `json:"memory_entries"`
	PersistentEntries int `json:"persistent_entries"`
}

// Manager is the two-tier cache. It is safe for concurrent use.
type Manager struct {
	store         storage.Store
	logger        *slog.Logger
	now           func() time.Time
	defaultTTL    time.Duration
	sweepInterval time.Duration
	prefix        string

	mu     sync.RWMutex
	memory map[string]Entry

	lifecycle sync.Mutex
	done      chan struct{}
	wg        sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for timestamps and freshness checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.defaultTTL = ttl
		}
	}
}

// WithSweepInterval overrides DefaultSweepInterval.
func WithSweepInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// New creates a cache over store. A nil store disables the persistent tier.
func New(store storage.Store, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		logger:        slog.Default(),
		now:           time.Now,
		defaultTTL:    DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		prefix:        DefaultKeyPrefix,
		memory:        make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewFromConfig creates a cache from the cache config section.
func NewFromConfig(store storage.Store, cfg models.CacheConfig, opts ...Option) *Manager {
	base := []Option{
		WithDefaultTTL(cfg.DefaultTTL),
		WithSweepInterval(cfg.SweepInterval),
		WithKeyPrefix(cfg.KeyPrefix),
	}
	return New(store, append(base, opts...)...)
}

func resolve(opts []EntryOption) entryOptions {
	o := entryOptions{storage: StorageBoth}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (m *Manager) hasPersistent(o entryOptions) bool {
	return m.store != nil && o.storage.persistent()
}

// Get looks key up and decodes the cached value into dst, which must be a
// pointer. It returns false on a miss, on stale data and when the value
// cannot be decoded into dst; such a value is removed from the selected
// tiers.
func (m *Manager) Get(ctx context.Context, key string, dst any, opts ...EntryOption) bool {
	o := resolve(opts)
	now := m.now()

	if o.storage.memory() {
		if e, ok := m.memoryGet(key, now); ok {
			if err := json.Unmarshal(e.Data, dst); err != nil {
				m.logger.Warn("removing cached value that does not match destination", "key", key, "error", err)
				m.Remove(ctx, key, opts...)
				return false
			}
			m.logger.Debug("cache hit", "key", key, "tier", StorageMemory)
			return true
		}
	}

	if !m.hasPersistent(o) {
		m.logger.Debug("cache miss", "key", key)
		return false
	}

	e, ok := m.persistentGet(ctx, key, now)
	if !ok {
		m.logger.Debug("cache miss", "key", key)
		return false
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		m.logger.Warn("removing cached value that does not match destination", "key", key, "error", err)
		m.Remove(ctx, key, opts...)
		return false
	}

	if o.storage.memory() {
		m.mu.Lock()
		m.memory[key] = e
		m.mu.Unlock()
	}
	m.logger.Debug("cache hit", "key", key, "tier", StoragePersistent)
	return true
}

// GetAs is Get for callers that prefer a typed return value.
func GetAs[T any](ctx context.Context, m *Manager, key string, opts ...EntryOption) (T, bool) {
	var v T
	if !m.Get(ctx, key, &v, opts...) {
		var zero T
		return zero, false
	}
	return v, true
}

// memoryGet returns a fresh memory entry and evicts a stale one.
func (m *Manager) memoryGet(key string, now time.Time) (Entry, bool) {
	m.mu.RLock()
	e, ok := m.memory[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if e.Fresh(now) {
		return e, true
	}

	m.mu.Lock()
	// Only evict if nobody replaced the entry in the meantime.
	if cur, ok := m.memory[key]; ok && cur.Timestamp == e.Timestamp {
		delete(m.memory, key)
	}
	m.mu.Unlock()
	return Entry{}, false
}

// persistentGet returns a fresh persistent entry. Stale and undecodable
// entries are deleted; backend errors count as a miss.
func (m *Manager) persistentGet(ctx context.Context, key string, now time.Time) (Entry, bool) {
	pkey := m.prefix + key
	raw, err := m.store.Get(ctx, pkey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("failed to read persistent cache", "key", key, "error", err)
		}
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		m.logger.Warn("removing malformed persistent cache entry", "key", key, "error", err)
		m.deletePersistent(ctx, pkey)
		return Entry{}, false
	}
	if !e.Fresh(now) {
		m.deletePersistent(ctx, pkey)
		return Entry{}, false
	}
	return e, true
}

func (m *Manager) deletePersistent(ctx context.Context, pkey string) {
	if err := m.store.Delete(ctx, pkey); err != nil {
		m.logger.Warn("failed to delete persistent cache entry", "key", pkey, "error", err)
	}
}

// Set stores data under key in every selected tier. It fails only when data
// cannot be encoded as JSON; persistent write failures, such as a full
// quota, are logged and the memory tier still holds the entry.
func (m *Manager) Set(ctx context.Context, key string, data any, opts ...EntryOption) error {
	o := resolve(opts)

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}

	ttl := o.ttl
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	// Entries are stored with millisecond resolution.
	ttlMillis := max(ttl.Milliseconds(), 1)
	e := Entry{Data: raw, Timestamp: m.now().UnixMilli(), TTL: ttlMillis}

	if o.storage.memory() {
		m.mu.Lock()
		m.memory[key] = e
		m.mu.Unlock()
	}

	if m.hasPersistent(o) {
		encoded, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode cache entry for %s: %w", key, err)
		}
		if err := m.store.Set(ctx, m.prefix+key, string(encoded)); err != nil {
			m.logger.Warn("failed to write persistent cache",
				"key", key,
				"quota_exceeded", errors.Is(err, storage.ErrQuotaExceeded),
				"error", err,
			)
		}
	}
	return nil
}

// Remove deletes key from the selected tiers.
func (m *Manager) Remove(ctx context.Context, key string, opts ...EntryOption) {
	o := resolve(opts)
	if o.storage.memory() {
		m.mu.Lock()
		delete(m.memory, key)
		m.mu.Unlock()
	}
	if m.hasPersistent(o) {
		m.deletePersistent(ctx, m.prefix+key)
	}
}

// ClearAll empties the selected tiers. Only prefixed keys are removed from
// the persistent store.
func (m *Manager) ClearAll(ctx context.Context, opts ...EntryOption) {
	o := resolve(opts)
	if o.storage.memory() {
		m.mu.Lock()
		m.memory = make(map[string]Entry)
		m.mu.Unlock()
	}
	if !m.hasPersistent(o) {
		return
	}

	keys, err := m.store.Keys(ctx, m.prefix)
	if err != nil {
		m.logger.Warn("failed to list persistent cache keys", "error", err)
		return
	}
	for _, k := range keys {
		m.deletePersistent(ctx, k)
	}
}

// ClearExpired removes stale entries from both tiers and returns how many
// were removed. Malformed persistent entries count as stale.
func (m *Manager) ClearExpired(ctx context.Context) int {
	now := m.now()
	removed := 0

	m.mu.Lock()
	for k, e := range m.memory {
		if !e.Fresh(now) {
			delete(m.memory, k)
			removed++
		}
	}
	m.mu.Unlock()

	if m.store == nil {
		return removed
	}

	keys, err := m.store.Keys(ctx, m.prefix)
	if err != nil {
		m.logger.Warn("failed to list persistent cache keys", "error", err)
		return removed
	}
	for _, k := range keys {
		raw, err := m.store.Get(ctx, k)
		if err != nil {
			continue
		}
		var e Entry
		if json.Unmarshal([]byte(raw), &e) == nil && e.Fresh(now) {
			continue
		}
		if err := m.store.Delete(ctx, k); err != nil {
			m.logger.Warn("failed to delete persistent cache entry", "key", k, "error", err)
			continue
		}
		removed++
	}
	return removed
}

// Stats counts entries per tier without modifying either.
func (m *Manager) Stats(ctx context.Context) Stats {
	m.mu.RLock()
	s := Stats{MemoryEntries: len(m.memory)}
	m.mu.RUnlock()

	if m.store != nil {
		keys, err := m.store.Keys(ctx, m.prefix)
		if err != nil {
			m.logger.Warn("failed to list persistent cache keys", "error", err)
		} else {
			s.PersistentEntries = len(keys)
		}
	}
	return s
}

// GenerateKey derives a cache key from input. Strings are used as-is; other
// values are JSON-encoded, which orders map keys deterministically.
func GenerateKey(input any) string {
	if s, ok := input.(string); ok {
		return s
	}
	b, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%v", input)
	}
	return string(b)
}

// Start launches the background sweeper. Calling Start on a running
// manager does nothing.
func (m *Manager) Start() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.done != nil {
		return
	}
	m.done = make(chan struct{})
	m.wg.Add(1)
	go m.sweep(m.done)
}

// Close stops the sweeper and waits for it to exit. The manager stays usable.
func (m *Manager) Close() error {
	m.lifecycle.Lock()
	done := m.done
	m.done = nil
	m.lifecycle.Unlock()

	if done != nil {
		close(done)
		m.wg.Wait()
	}
	return nil
}

func (m *Manager) sweep(done <-chan struct{}) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if n := m.ClearExpired(context.Background()); n > 0 {
				m.logger.Debug("swept expired cache entries", "removed", n)
			}
		}
	}
}
