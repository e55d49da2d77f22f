package observability

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedTransport is an http.RoundTripper that traces outbound API
// calls, propagates the trace context and records latency per status.
type InstrumentedTransport struct {
	base     http.RoundTripper
	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// NewInstrumentedTransport wraps base, or http.DefaultTransport when nil.
func NewInstrumentedTransport(base http.RoundTripper, opts ...Option) (*InstrumentedTransport, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	inst := resolveInstruments(opts)
	meter := inst.meter("apiclient")

	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of upstream API requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"http.client.requests",
		metric.WithDescription("Number of upstream API requests by status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedTransport{
		base:     base,
		tracer:   inst.tracer("apiclient"),
		duration: duration,
		requests: requests,
	}, nil
}

func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := t.tracer.Start(req.Context(), "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.URL.Path),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Seconds()

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	attrs := metric.WithAttributes(
		attribute.String("method", req.Method),
		attribute.String("path", req.URL.Path),
		attribute.String("status", status),
	)
	t.duration.Record(ctx, elapsed, attrs)
	t.requests.Add(ctx, 1, attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}
