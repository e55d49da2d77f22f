package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/ratelimit"
	"storefront/internal/storage"
)

func newAdminHandlers(t *testing.T, now *time.Time) (*Handlers, *cache.Manager, *ratelimit.Manager) {
	t.Helper()
	store, err := storage.NewMemoryStore(storage.Config{})
	require.NoError(t, err)

	clock := func() time.Time { return *now }
	c := cache.New(store, cache.WithClock(clock))
	t.Cleanup(func() { c.Close() })

	limits, err := ratelimit.NewManager(ratelimit.Config{MaxTokens: 2, RefillRate: 1, RefillInterval: time.Hour}, nil)
	require.NoError(t, err)
	t.Cleanup(limits.Close)

	return NewHandlers(&MockProvider{}, WithCache(c), WithLimiters(limits), WithStorage(store)), c, limits
}

func TestAdmin_CacheStats(t *testing.T) {
	now := time.Now()
	h, c, _ := newAdminHandlers(t, &now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "posts", []string{"a"}))
	require.NoError(t, c.Set(ctx, "draft", "x", cache.WithStorage(cache.StorageMemory)))

	recorder := httptest.NewRecorder()
	h.CacheStats(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/admin/cache", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	var resp models.CacheStatsResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.MemoryEntries)
	assert.Equal(t, 1, resp.PersistentEntries)
}

func TestAdmin_ClearCache(t *testing.T) {
	now := time.Now()
	h, c, _ := newAdminHandlers(t, &now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", 1, cache.WithTTL(time.Second)))
	require.NoError(t, c.Set(ctx, "long", 2, cache.WithTTL(time.Hour)))
	now = now.Add(time.Minute)

	recorder := httptest.NewRecorder()
	h.ClearCache(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/cache/clear?expired=true", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp models.ActionResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "Removed 2 expired entries", resp.Message)

	stats := c.Stats(ctx)
	assert.Equal(t, 1, stats.MemoryEntries)
	assert.Equal(t, 1, stats.PersistentEntries)

	recorder = httptest.NewRecorder()
	h.ClearCache(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/cache/clear", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, cache.Stats{}, c.Stats(ctx))
}

func TestAdmin_ClearCache_BadFlag(t *testing.T) {
	now := time.Now()
	h, _, _ := newAdminHandlers(t, &now)

	recorder := httptest.NewRecorder()
	h.ClearCache(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/cache/clear?expired=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAdmin_LimiterStatesAndReset(t *testing.T) {
	now := time.Now()
	h, _, limits := newAdminHandlers(t, &now)
	ctx := context.Background()
	noop := func(context.Context) error { return nil }

	require.NoError(t, limits.Execute(ctx, "/posts", noop))
	require.NoError(t, limits.Execute(ctx, "/posts", noop))
	require.NoError(t, limits.Execute(ctx, "/contact", noop))

	recorder := httptest.NewRecorder()
	h.LimiterStates(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/admin/limits", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp models.ListResponse[models.LimiterStateResponse]
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.TotalCount)
	assert.Equal(t, "/contact", resp.Items[0].Endpoint)
	assert.Equal(t, "/posts", resp.Items[1].Endpoint)
	assert.Equal(t, 0.0, resp.Items[1].AvailableTokens)
	assert.Equal(t, 2, resp.Items[1].MaxTokens)

	recorder = httptest.NewRecorder()
	h.ResetLimits(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/limits/reset?endpoint=/posts", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 2.0, limits.States()["/posts"].AvailableTokens)
	assert.Equal(t, 1.0, limits.States()["/contact"].AvailableTokens)

	recorder = httptest.NewRecorder()
	h.ResetLimits(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/limits/reset?endpoint=/unknown", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = httptest.NewRecorder()
	h.ResetLimits(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/admin/limits/reset", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 2.0, limits.States()["/contact"].AvailableTokens)
}

func TestAdmin_NotConfigured(t *testing.T) {
	h := NewHandlers(&MockProvider{})

	for name, handler := range map[string]http.HandlerFunc{
		"cache stats":  h.CacheStats,
		"cache clear":  h.ClearCache,
		"limits":       h.LimiterStates,
		"limits reset": h.ResetLimits,
	} {
		t.Run(name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
		})
	}
}
