package observability

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"storefront/internal/version"
)

func findFamily(families []*dto.MetricFamily, prefix string) *dto.MetricFamily {
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), prefix) {
			return f
		}
	}
	return nil
}

func TestMetricsServer_ServesPrometheus(t *testing.T) {
	cfg := testConfig(true, false)
	provider, err := Setup(cfg, version.Info{})
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	counter, err := otel.Meter("storefront/test").Int64Counter("storefront_test_requests")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	family := findFamily(families, "storefront_test_requests")
	require.NotNil(t, family)
	require.NotEmpty(t, family.GetMetric())
	assert.Equal(t, 3.0, family.GetMetric()[0].GetCounter().GetValue())

	ms := NewMetricsServer(cfg.Metrics, provider, nil)
	rec := httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, cfg.Metrics.Path, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_test_requests")
}

func TestMetricsServer_NilProvider(t *testing.T) {
	cfg := testConfig(true, false)
	ms := NewMetricsServer(cfg.Metrics, nil, nil)

	rec := httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsServer_ServeAndShutdown(t *testing.T) {
	ms := NewMetricsServer(testConfig(true, false).Metrics, nil, nil)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ms.Serve(l)
	}()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ms.Shutdown(ctx))
	assert.Equal(t, http.ErrServerClosed, <-errCh)
}
