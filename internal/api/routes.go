package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"storefront/internal/models"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/metrics"
			}),
		))
	}
}

// WithRateLimiter adds rate limiting middleware to the router.
func WithRateLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(r *mux.Router) {
		r.Use(middleware)
	}
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, config *models.Config, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	// Request IDs come first so every later middleware and handler can log them.
	router.Use(requestIDMiddleware)

	for _, opt := range opts {
		opt(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// categories must be registered ahead of the {id} route.
	api.HandleFunc("/posts", handlers.ListPosts).Methods("GET")
	api.HandleFunc("/posts/categories", handlers.ListCategories).Methods("GET")
	api.HandleFunc("/posts/{id}", handlers.GetPost).Methods("GET")
	api.HandleFunc("/portfolio", handlers.ListPortfolio).Methods("GET")
	api.HandleFunc("/products", handlers.ListProducts).Methods("GET")
	api.HandleFunc("/products/{id}", handlers.GetProduct).Methods("GET")
	api.HandleFunc("/team", handlers.ListTeam).Methods("GET")
	api.HandleFunc("/services", handlers.ListServices).Methods("GET")
	api.HandleFunc("/contact", handlers.SubmitContact).Methods("POST")
	api.HandleFunc("/contact", methodNotAllowedHandler).Methods("GET", "PUT", "DELETE", "PATCH")

	api.HandleFunc("/cart", handlers.CreateCart).Methods("POST")
	api.HandleFunc("/cart/{cartID}", handlers.GetCart).Methods("GET")
	api.HandleFunc("/cart/{cartID}", handlers.ClearCart).Methods("DELETE")
	api.HandleFunc("/cart/{cartID}/items", handlers.AddCartItem).Methods("POST")
	api.HandleFunc("/cart/{cartID}/items/{productID}", handlers.RemoveCartItem).Methods("DELETE")
	api.HandleFunc("/checkout", handlers.Checkout).Methods("POST")
	api.HandleFunc("/orders/{orderID}", handlers.GetOrder).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/cache", handlers.CacheStats).Methods("GET")
	admin.HandleFunc("/cache/clear", handlers.ClearCache).Methods("POST")
	admin.HandleFunc("/limits", handlers.LimiterStates).Methods("GET")
	admin.HandleFunc("/limits/reset", handlers.ResetLimits).Methods("POST")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	router.Use(loggingMiddleware(handlers.logger, config.App.Debug))
	router.Use(recoveryMiddleware(handlers.logger))

	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	router.NotFoundHandler = http.HandlerFunc(notFoundHandler)

	return router
}

// methodNotAllowedHandler handles requests with invalid HTTP methods
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeBareError(w, r, http.StatusMethodNotAllowed, "Method not allowed", models.ErrorCodeBadRequest)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeBareError(w, r, http.StatusNotFound, "Route not found", models.ErrorCodeNotFound)
}

func writeBareError(w http.ResponseWriter, r *http.Request, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	errorResp := models.NewErrorResponse(message, code)
	errorResp.RequestID = RequestID(r.Context())
	json.NewEncoder(w).Encode(errorResp)
}
