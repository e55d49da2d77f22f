package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"storefront/internal/cache"
	"storefront/internal/ratelimit"
)

// RegisterLimiterMetrics exposes every outbound limiter's available tokens
// and queue depth as observable gauges labelled by endpoint.
func RegisterLimiterMetrics(m *ratelimit.Manager, opts ...Option) (metric.Registration, error) {
	meter := resolveInstruments(opts).meter("ratelimit")

	tokens, err := meter.Float64ObservableGauge(
		"ratelimit.tokens.available",
		metric.WithDescription("Tokens currently available in the endpoint bucket"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, err
	}

	queued, err := meter.Int64ObservableGauge(
		"ratelimit.requests.queued",
		metric.WithDescription("Requests waiting for a token"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		for endpoint, state := range m.States() {
			attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
			o.ObserveFloat64(tokens, state.AvailableTokens, attrs)
			o.ObserveInt64(queued, int64(state.QueuedRequests), attrs)
		}
		return nil
	}, tokens, queued)
}

// RegisterCacheMetrics exposes the entry count of each cache tier.
func RegisterCacheMetrics(c *cache.Manager, opts ...Option) (metric.Registration, error) {
	meter := resolveInstruments(opts).meter("cache")

	entries, err := meter.Int64ObservableGauge(
		"cache.entries",
		metric.WithDescription("Entries held by each cache tier, fresh or stale"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		stats := c.Stats(ctx)
		o.ObserveInt64(entries, int64(stats.MemoryEntries), metric.WithAttributes(attribute.String("tier", string(cache.StorageMemory))))
		o.ObserveInt64(entries, int64(stats.PersistentEntries), metric.WithAttributes(attribute.String("tier", string(cache.StoragePersistent))))
		return nil
	}, entries)
}
