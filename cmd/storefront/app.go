package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/content"
	"storefront/internal/logger"
	"storefront/internal/models"
	"storefront/internal/observability"
	"storefront/internal/ratelimit"
	"storefront/internal/storage"
	"storefront/internal/version"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg     *models.Config
	logger  *slog.Logger
	otel    *observability.Provider
	store   storage.Store
	cache   *cache.Manager
	limits  *ratelimit.Manager
	client  *apiclient.Client
	content *content.Service
	cart    *cart.Service

	closers []func(context.Context) error
}

type appOptions struct {
	configPath string
	verbose    bool
	mock       bool
	mockSet    bool
	// server enables observability, the sweeper and stdout logging.
	server bool
}

// loadConfig applies command line overrides on top of config.Load.
func loadConfig(o appOptions) (*models.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.mockSet {
		cfg.App.MockAPI = o.mock
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	// One-shot commands print results on stdout.
	if !o.server && cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	return cfg, nil
}

func newApp(o appOptions) (*app, error) {
	cfg, err := loadConfig(o)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	log, closer, err := logger.Setup(logger.ForApp(cfg.App, cfg.Logging), version.GetInfo())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if closer != nil {
		a.closers = append(a.closers, func(context.Context) error { return closer.Close() })
	}
	slog.SetDefault(log)
	a.logger = log

	instrumented := o.server && (cfg.Metrics.Enabled || cfg.Observability.Tracing.Enabled)
	if o.server {
		a.otel, err = observability.Setup(cfg, version.GetInfo())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize observability: %w", err)
		}
		a.closers = append(a.closers, a.otel.Shutdown)
	}

	store, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.store = store
	if instrumented {
		wrapped, err := observability.NewInstrumentedStore(store, cfg.Storage.Type)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to instrument storage: %w", err)
		}
		a.store = wrapped
	}
	a.closers = append(a.closers, func(context.Context) error { return a.store.Close() })

	a.cache = cache.NewFromConfig(a.store, cfg.Cache, cache.WithLogger(log))
	if o.server {
		a.cache.Start()
	}
	a.closers = append(a.closers, func(context.Context) error { return a.cache.Close() })

	a.limits, err = ratelimit.NewManagerFromConfig(cfg.RateLimit, ratelimit.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { a.limits.Close(); return nil })

	clientOpts := []apiclient.Option{
		apiclient.WithRateLimiter(a.limits),
		apiclient.WithLogger(log),
	}
	if instrumented {
		transport, err := observability.NewInstrumentedTransport(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to instrument transport: %w", err)
		}
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(&http.Client{Transport: transport}))

		if err := a.registerGauges(); err != nil {
			return nil, err
		}
	}
	a.client = apiclient.NewFromConfig(cfg.API, clientOpts...)

	a.content = content.NewService(a.cache, a.client,
		content.WithLogger(log),
		content.WithMockAPI(cfg.App.MockAPI),
		content.WithTTL(cfg.Cache.ContentTTL),
	)
	a.cart = cart.NewService(a.store, a.content, cart.WithLogger(log))

	ok = true
	return a, nil
}

func (a *app) registerGauges() error {
	limiterReg, err := observability.RegisterLimiterMetrics(a.limits)
	if err != nil {
		return fmt.Errorf("failed to register limiter metrics: %w", err)
	}
	cacheReg, err := observability.RegisterCacheMetrics(a.cache)
	if err != nil {
		limiterReg.Unregister()
		return fmt.Errorf("failed to register cache metrics: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		return errors.Join(limiterReg.Unregister(), cacheReg.Unregister())
	})
	return nil
}

// Close releases components in reverse construction order.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
