package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/storage"
)

// InstrumentedStore wraps a storage.Store with OpenTelemetry tracing and
// metrics. A missing key is not counted as an error.
type InstrumentedStore struct {
	inner    storage.Store
	backend  string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

var _ storage.Store = (*InstrumentedStore)(nil)

// NewInstrumentedStore creates a store wrapper that records trace spans,
// operation latency histograms, and error counters for every call.
// backend labels the measurements, e.g. "redis".
func NewInstrumentedStore(inner storage.Store, backend string, opts ...Option) (*InstrumentedStore, error) {
	inst := resolveInstruments(opts)
	meter := inst.meter("storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of persistent cache storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of persistent cache storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStore{
		inner:    inner,
		backend:  backend,
		tracer:   inst.tracer("storage"),
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStore) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "storage."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
			attribute.String("storage.backend", s.backend),
		}, attrs...)...),
	)
}

func (s *InstrumentedStore) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("backend", s.backend),
	)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) (string, error) {
	ctx, span := s.startSpan(ctx, "Get", attribute.String("key", key))
	start := time.Now()
	value, err := s.inner.Get(ctx, key)
	span.SetAttributes(attribute.Bool("hit", err == nil))
	s.record(ctx, span, "Get", start, err)
	return value, err
}

func (s *InstrumentedStore) Set(ctx context.Context, key, value string) error {
	ctx, span := s.startSpan(ctx, "Set",
		attribute.String("key", key),
		attribute.Int("value.size", len(value)),
	)
	start := time.Now()
	err := s.inner.Set(ctx, key, value)
	s.record(ctx, span, "Set", start, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.startSpan(ctx, "Delete", attribute.String("key", key))
	start := time.Now()
	err := s.inner.Delete(ctx, key)
	s.record(ctx, span, "Delete", start, err)
	return err
}

func (s *InstrumentedStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := s.startSpan(ctx, "Keys", attribute.String("prefix", prefix))
	start := time.Now()
	keys, err := s.inner.Keys(ctx, prefix)
	span.SetAttributes(attribute.Int("count", len(keys)))
	s.record(ctx, span, "Keys", start, err)
	return keys, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
