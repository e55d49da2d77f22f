// Package apiclient is the HTTP client for the upstream content API.
//
// Every request is admitted by a per-endpoint rate limiter, each attempt
// runs under its own timeout, and server errors and transport failures are
// retried with exponential backoff. Client errors (4xx) are returned at once.
// All failures surface as *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/ratelimit"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultRetries     = 3
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 10 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 10 << 20
)

// Response is a successful API response. Data holds the raw JSON body and
// is nil when the server sent no body.
type Response struct {
	Data    json.RawMessage
	Status  int
	Headers http.Header
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return newDecodeError(errors.New("empty response body"))
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return newDecodeError(err)
	}
	return nil
}

// Client talks to one API base URL.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *ratelimit.Manager
	logger      *slog.Logger
	headers     http.Header
	retries     int
	timeout     time.Duration
	backoffBase time.Duration
	backoffMax  time.Duration
	sleep       func(context.Context, time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimiter routes every request through m, keyed by endpoint path.
func WithRateLimiter(m *ratelimit.Manager) Option {
	return func(c *Client) { c.limiter = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

func WithDefaultRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithBackoff sets the first retry delay and the cap on later delays.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.backoffBase = base
		}
		if max > 0 {
			c.backoffMax = max
		}
	}
}

// WithSleep replaces the wait between retries.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		logger:      slog.Default(),
		headers:     make(http.Header),
		retries:     DefaultRetries,
		timeout:     DefaultTimeout,
		backoffBase: DefaultBackoffBase,
		backoffMax:  DefaultBackoffMax,
		sleep:       sleepContext,
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the api config section.
func NewFromConfig(cfg models.APIConfig, opts ...Option) *Client {
	base := []Option{
		WithDefaultRetries(cfg.Retries),
		WithDefaultTimeout(cfg.Timeout),
		WithBackoff(cfg.BackoffBase, cfg.BackoffMax),
	}
	for k, v := range cfg.Headers {
		base = append(base, WithDefaultHeader(k, v))
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	headers    http.Header
	retries    int
	timeout    time.Duration
	limiterKey string
}

// WithHeader sets a header on one request, overriding the defaults.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) { o.headers.Set(key, value) }
}

// WithRetries sets how many times a failed attempt is retried.
func WithRetries(n int) RequestOption {
	return func(o *requestOptions) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithTimeout bounds each attempt, not the request as a whole.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLimiterKey admits the request through the limiter for key instead of
// the request path. Item lookups use it to share their collection's bucket.
func WithLimiterKey(key string) RequestOption {
	return func(o *requestOptions) { o.limiterKey = key }
}

func (c *Client) Get(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, endpoint, nil, opts...)
}

func (c *Client) Delete(ctx context.Context, endpoint string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, opts...)
}

func (c *Client) Post(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, endpoint, body, opts...)
}

func (c *Client) Put(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, endpoint, body, opts...)
}

func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, endpoint, body, opts...)
}

// Do sends a request to baseURL+endpoint. body, when non-nil, is sent as JSON.
// The returned error is always an *Error.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any, opts ...RequestOption) (*Response, error) {
	ro := requestOptions{
		headers: c.headers.Clone(),
		retries: c.retries,
		timeout: c.timeout,
	}
	ro.headers.Set("X-Request-ID", uuid.NewString())
	for _, opt := range opts {
		opt(&ro)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, newUnknownError("failed to encode request body", err)
		}
	}

	var resp *Response
	run := func(ctx context.Context) error {
		r, err := c.request(ctx, method, endpoint, payload, ro)
		resp = r
		return err
	}

	key := endpoint
	if ro.limiterKey != "" {
		key = ro.limiterKey
	}

	var err error
	if c.limiter != nil {
		err = c.limiter.Execute(ctx, key, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, normalize(err)
	}
	return resp, nil
}

// normalize turns anything that escaped the request path into *Error.
func normalize(err error) error {
	if apiErr, ok := AsError(err); ok {
		return apiErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return contextError(err)
	}
	return newUnknownError("", err)
}

func (c *Client) request(ctx context.Context, method, endpoint string, payload []byte, ro requestOptions) (*Response, error) {
	url := c.baseURL + endpoint

	raw, err := c.fetchWithRetry(ctx, method, url, payload, ro)
	if err != nil {
		return nil, err
	}

	if raw.status < 200 || raw.status > 299 {
		apiErr := newStatusError(raw.status, raw.body)
		c.logger.Error("API request failed",
			"method", method,
			"url", url,
			"status", raw.status,
			"message", apiErr.Message,
		)
		return nil, apiErr
	}

	resp := &Response{Status: raw.status, Headers: raw.header}
	if len(bytes.TrimSpace(raw.body)) > 0 {
		if !json.Valid(raw.body) {
			return nil, newDecodeError(errors.New("response body is not valid JSON"))
		}
		resp.Data = json.RawMessage(raw.body)
	}
	return resp, nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

// fetchWithRetry makes up to retries+1 attempts. A 4xx response is final;
// a 5xx response or a transport failure is retried after a backoff delay.
func (c *Client) fetchWithRetry(ctx context.Context, method, url string, payload []byte, ro requestOptions) (*rawResponse, error) {
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     c.backoffBase,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         c.backoffMax,
	}
	policy.Reset()

	for attempt := 0; attempt <= ro.retries; attempt++ {
		raw, err := c.attempt(ctx, method, url, payload, ro)
		last := attempt == ro.retries

		switch {
		case err != nil:
			if err.Kind == KindCanceled || last || ctx.Err() != nil {
				return nil, err
			}
			c.logger.Warn("API request failed, retrying",
				"method", method,
				"url", url,
				"attempt", attempt+1,
				"error", err.Message,
			)
		case raw.status >= 500 && !last:
			c.logger.Warn("API server error, retrying",
				"method", method,
				"url", url,
				"attempt", attempt+1,
				"status", raw.status,
			)
		default:
			return raw, nil
		}

		if serr := c.sleep(ctx, policy.NextBackOff()); serr != nil {
			return nil, contextError(serr)
		}
	}

	return nil, newUnknownError("max retries exceeded", nil)
}

// attempt performs one HTTP exchange under its own timeout and reads the
// whole body before the timeout is released.
func (c *Client) attempt(ctx context.Context, method, url string, payload []byte, ro requestOptions) (*rawResponse, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, url, body)
	if err != nil {
		return nil, newUnknownError("failed to build request", err)
	}
	req.Header = ro.headers.Clone()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.transportError(ctx, attemptCtx, err)
	}

	c.logger.Debug("API request completed",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// transportError distinguishes caller cancellation, attempt timeout and
// plain network failure.
func (c *Client) transportError(ctx, attemptCtx context.Context, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contextError(ctxErr)
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return newTimeoutError(err)
	}
	return newNetworkError(err)
}
