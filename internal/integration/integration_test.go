package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/api"
	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/content"
	"storefront/internal/models"
	"storefront/internal/ratelimit"
	"storefront/internal/storage"
)

// Integration tests that wire the whole stack: storage, cache, limiter,
// API client, content service and the HTTP router.

type upstream struct {
	server *httptest.Server
	mu     sync.Mutex
	hits   map[string]int
	arrive []time.Time
	fail   atomic.Bool
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{hits: make(map[string]int)}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.Method+" "+r.URL.Path]++
		if r.URL.Path == "/api/contact" {
			u.arrive = append(u.arrive, time.Now())
		}
		u.mu.Unlock()

		if u.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"message":"content API unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/posts":
			json.NewEncoder(w).Encode([]models.BlogPost{
				{ID: "10", Title: "Upstream Post", Category: "Development"},
			})
		case "/api/team":
			json.NewEncoder(w).Encode([]models.TeamMember{{ID: "t1", Name: "Jordan"}})
		case "/api/contact":
			json.NewEncoder(w).Encode(models.ContactResponse{Success: true, Message: "Thanks", ID: "c-1"})
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"not found"}`))
		}
	}))
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) count(key string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[key]
}

type stack struct {
	server *httptest.Server
	cache  *cache.Manager
	limits *ratelimit.Manager
	store  storage.Store
}

func newStack(t *testing.T, cfg *models.Config) *stack {
	t.Helper()

	store, err := storage.NewFactory().Create(cfg.Storage)
	require.NoError(t, err)

	c := cache.NewFromConfig(store, cfg.Cache)
	c.Start()

	limits, err := ratelimit.NewManagerFromConfig(cfg.RateLimit)
	require.NoError(t, err)

	noSleep := func(context.Context, time.Duration) error { return nil }
	client := apiclient.NewFromConfig(cfg.API,
		apiclient.WithRateLimiter(limits),
		apiclient.WithSleep(noSleep),
	)

	svc := content.NewService(c, client,
		content.WithMockAPI(cfg.App.MockAPI),
		content.WithTTL(cfg.Cache.ContentTTL),
	)
	handlers := api.NewHandlers(svc,
		api.WithCache(c),
		api.WithLimiters(limits),
		api.WithStorage(store),
		api.WithVersion(cfg.App.Version),
	)
	server := httptest.NewServer(api.SetupRoutes(handlers, cfg))

	t.Cleanup(func() {
		server.Close()
		limits.Close()
		c.Close()
		store.Close()
	})
	return &stack{server: server, cache: c, limits: limits, store: store}
}

func testConfig(t *testing.T, u *upstream) *models.Config {
	t.Helper()
	cfg := models.NewDefaultConfig()
	cfg.App.MockAPI = false
	cfg.API.BaseURL = u.server.URL + "/api"
	cfg.API.Retries = 1
	cfg.Storage.Type = models.StorageTypeJSON
	cfg.Storage.Path = filepath.Join(t.TempDir(), "cache.json")
	cfg.RateLimit.Endpoints = map[string]models.BucketConfig{
		content.EndpointContact: {MaxTokens: 1, RefillRate: 1, RefillInterval: time.Second},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postContact(t *testing.T, url string) (int, time.Duration) {
	t.Helper()
	body, err := json.Marshal(models.ContactForm{Name: "Ada", Email: "ada@example.com", Message: "Hello there"})
	require.NoError(t, err)

	start := time.Now()
	resp, err := http.Post(url+"/api/v1/contact", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, time.Since(start)
}

func TestIntegration_ContentIsCachedAcrossTiers(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(t, u)
	s := newStack(t, cfg)

	var posts models.ListResponse[models.BlogPost]
	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/posts", &posts))
	require.Equal(t, 1, posts.TotalCount)
	assert.Equal(t, "Upstream Post", posts.Items[0].Title)

	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/posts", &posts))
	assert.Equal(t, 1, u.count("GET /api/posts"), "second request must be served from cache")

	// A fresh stack over the same file only has the persistent tier.
	restarted := newStack(t, cfg)
	require.Equal(t, http.StatusOK, getJSON(t, restarted.server.URL+"/api/v1/posts", &posts))
	assert.Equal(t, 1, u.count("GET /api/posts"))
	assert.Equal(t, 1, restarted.cache.Stats(context.Background()).MemoryEntries, "persistent hit repopulates memory")
}

func TestIntegration_ContactLimiterAdmitsSecondCallAfterOneInterval(t *testing.T) {
	u := newUpstream(t)
	s := newStack(t, testConfig(t, u))

	status, first := postContact(t, s.server.URL)
	require.Equal(t, http.StatusOK, status)
	assert.Less(t, first, 500*time.Millisecond)

	status, second := postContact(t, s.server.URL)
	require.Equal(t, http.StatusOK, status)
	assert.GreaterOrEqual(t, second, 800*time.Millisecond)
	assert.Less(t, second, 3*time.Second)

	u.mu.Lock()
	defer u.mu.Unlock()
	require.Len(t, u.arrive, 2)
	assert.GreaterOrEqual(t, u.arrive[1].Sub(u.arrive[0]), 800*time.Millisecond)
	assert.Equal(t, 2, u.hits["POST /api/contact"], "submissions are never cached")
}

func TestIntegration_OtherEndpointsUnaffectedByContactLimit(t *testing.T) {
	u := newUpstream(t)
	s := newStack(t, testConfig(t, u))

	status, _ := postContact(t, s.server.URL)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, s.limits.WouldBeRateLimited(content.EndpointContact))

	start := time.Now()
	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/team", nil))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.False(t, s.limits.WouldBeRateLimited(content.EndpointTeam))
}

func TestIntegration_UpstreamFailureSurfaces(t *testing.T) {
	u := newUpstream(t)
	u.fail.Store(true)
	s := newStack(t, testConfig(t, u))

	var errResp models.ErrorResponse
	status := getJSON(t, s.server.URL+"/api/v1/team", &errResp)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, models.ErrorCodeUpstream, errResp.Code)
	assert.Equal(t, "content API unavailable", errResp.Message)
	assert.Equal(t, 2, u.count("GET /api/team"), "one retry after the first failure")

	// Failures are not cached; recovery is immediate.
	u.fail.Store(false)
	var team models.ListResponse[models.TeamMember]
	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/team", &team))
	assert.Equal(t, "Jordan", team.Items[0].Name)
}

func TestIntegration_UnknownItemIs404(t *testing.T) {
	u := newUpstream(t)
	s := newStack(t, testConfig(t, u))

	var errResp models.ErrorResponse
	status := getJSON(t, s.server.URL+"/api/v1/products/does-not-exist", &errResp)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.ErrorCodeNotFound, errResp.Code)
}

func TestIntegration_DiagnosticsAndHealth(t *testing.T) {
	u := newUpstream(t)
	s := newStack(t, testConfig(t, u))

	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/team", nil))

	var limits models.ListResponse[models.LimiterStateResponse]
	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/admin/limits", &limits))
	require.Equal(t, 1, limits.TotalCount)
	assert.Equal(t, content.EndpointTeam, limits.Items[0].Endpoint)
	assert.GreaterOrEqual(t, limits.Items[0].AvailableTokens, 9.0)

	var health models.HealthCheckResponse
	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/health", &health))
	assert.Equal(t, models.StatusHealthy, health.Status)
	assert.Equal(t, models.StatusHealthy, health.Components["storage"].Status)

	resp, err := http.Post(s.server.URL+"/api/v1/admin/cache/clear", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, cache.Stats{}, s.cache.Stats(context.Background()))
}

func TestIntegration_ConfigFileDrivesStack(t *testing.T) {
	u := newUpstream(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "storefront.yaml")
	yaml := fmt.Sprintf(`
app:
  environment: test
  mock_api: false
api:
  base_url: %s/api
  retries: 0
storage:
  type: sqlite
  database:
    dsn: %s
rate_limit:
  endpoints:
    /contact:
      max_tokens: 1
      refill_rate: 1
      refill_interval: 1s
`, u.server.URL, filepath.Join(dir, "cache.db"))
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	s := newStack(t, cfg)

	var team models.ListResponse[models.TeamMember]
	require.Equal(t, http.StatusOK, getJSON(t, s.server.URL+"/api/v1/team", &team))
	assert.Equal(t, 1, team.TotalCount)

	keys, err := s.store.Keys(context.Background(), cfg.Cache.KeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.Cache.KeyPrefix + content.KeyTeam}, keys)
}
