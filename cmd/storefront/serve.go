package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"storefront/internal/api"
	"storefront/internal/observability"
	"storefront/internal/ratelimit"
	"storefront/internal/version"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd)
			opts.server = true
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := a.Close(ctx); err != nil {
					a.logger.Error("Failed to release resources", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
			l, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			return runServer(ctx, a, l)
		},
	}
}

// newRouter wires the HTTP surface. The returned func releases the inbound
// limiter.
func newRouter(a *app) (*mux.Router, func()) {
	cfg := a.cfg
	handlers := api.NewHandlers(a.content,
		api.WithStorage(a.store),
		api.WithCache(a.cache),
		api.WithCart(a.cart),
		api.WithLimiters(a.limits),
		api.WithLogger(a.logger),
		api.WithVersion(version.GetInfo().Version),
	)

	var routeOpts []api.RouteOption
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	cleanup := func() {}
	if cfg.RateLimit.Inbound.Enabled {
		inbound := ratelimit.NewMemoryLimiterFromConfig(cfg.RateLimit.Inbound)
		cleanup = inbound.Close
		routeOpts = append(routeOpts, api.WithRateLimiter(ratelimit.Middleware(inbound, a.logger)))
	}

	return api.SetupRoutes(handlers, cfg, routeOpts...), cleanup
}

// runServer serves on l until ctx is done, then shuts down gracefully.
func runServer(ctx context.Context, a *app, l net.Listener) error {
	cfg := a.cfg
	router, cleanup := newRouter(a)
	defer cleanup()

	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics, a.otel, a.logger)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server",
			"addr", l.Addr().String(),
			"environment", cfg.App.Environment,
			"mock_api", cfg.App.MockAPI,
			"storage", cfg.Storage.Type,
		)
		errCh <- server.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("Server shutdown complete")
	return nil
}
