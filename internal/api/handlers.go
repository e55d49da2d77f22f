package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/cart"
	"storefront/internal/content"
	"storefront/internal/models"
	"storefront/internal/ratelimit"
	"storefront/internal/storage"
)

const maxContactBody = 64 * 1024

// Handlers contains HTTP handlers for the storefront API
type Handlers struct {
	content content.Provider
	cache   *cache.Manager
	cart    *cart.Service
	limits  *ratelimit.Manager
	storage storage.Store
	logger  *slog.Logger
	version string
	started time.Time
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithStorage enables the storage component of the health check.
func WithStorage(s storage.Store) HandlerOption {
	return func(h *Handlers) { h.storage = s }
}

// WithCache enables the cache diagnostics endpoints.
func WithCache(c *cache.Manager) HandlerOption {
	return func(h *Handlers) { h.cache = c }
}

// WithCart enables the cart and checkout endpoints.
func WithCart(c *cart.Service) HandlerOption {
	return func(h *Handlers) { h.cart = c }
}

// WithLimiters enables the outbound limiter diagnostics endpoints.
func WithLimiters(m *ratelimit.Manager) HandlerOption {
	return func(h *Handlers) { h.limits = m }
}

func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithVersion sets the version reported by the health check.
func WithVersion(v string) HandlerOption {
	return func(h *Handlers) { h.version = v }
}

// NewHandlers creates a new handlers instance
func NewHandlers(provider content.Provider, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		content: provider,
		logger:  slog.Default(),
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ListPosts handles GET /api/v1/posts
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.Posts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(posts))
}

// GetPost handles GET /api/v1/posts/{id}
func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.Post(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, post)
}

// ListCategories handles GET /api/v1/posts/categories
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.content.Categories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(categories))
}

// ListPortfolio handles GET /api/v1/portfolio
func (h *Handlers) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	projects, err := h.content.Portfolio(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(projects))
}

// ListProducts handles GET /api/v1/products
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.content.Products(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(products))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.content.Product(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, product)
}

// ListTeam handles GET /api/v1/team
func (h *Handlers) ListTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.content.Team(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(team))
}

// ListServices handles GET /api/v1/services
func (h *Handlers) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.content.Services(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(services))
}

// SubmitContact handles POST /api/v1/contact
func (h *Handlers) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var form models.ContactForm
	dec := json.NewDecoder(io.LimitReader(r.Body, maxContactBody))
	if err := dec.Decode(&form); err != nil {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON in request body")
		return
	}

	resp, err := h.content.SubmitContact(r.Context(), &form)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("contact form submitted", "id", resp.ID, "request_id", RequestID(r.Context()))
	h.writeJSONResponse(w, http.StatusOK, resp)
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.version
	response.Uptime = time.Since(h.started).Round(time.Second).String()

	response.AddComponent("api", models.StatusHealthy, "API is operational")

	if h.storage != nil {
		if err := h.storage.Ping(r.Context()); err != nil {
			// The memory tier keeps serving, so a broken store only degrades.
			response.Status = models.StatusDegraded
			response.AddComponent("storage", models.StatusUnhealthy, err.Error())
		} else {
			response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
		}
	}

	if h.cache != nil {
		stats := h.cache.Stats(r.Context())
		response.AddMetric("cache_memory_entries", stats.MemoryEntries)
		response.AddMetric("cache_persistent_entries", stats.PersistentEntries)
	}
	if h.limits != nil {
		response.AddMetric("rate_limited_endpoints", len(h.limits.Endpoints()))
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeServiceError maps content and upstream errors onto HTTP responses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *content.ValidationError
	if errors.As(err, &validation) {
		resp := h.newErrorResponse(r, "Validation failed", models.ErrorCodeValidation)
		resp.Details = validation.Problems
		h.writeJSONResponse(w, http.StatusUnprocessableEntity, resp)
		return
	}

	var checkout *cart.ValidationError
	if errors.As(err, &checkout) {
		resp := h.newErrorResponse(r, "Validation failed", models.ErrorCodeValidation)
		resp.Details = checkout.Problems
		h.writeJSONResponse(w, http.StatusUnprocessableEntity, resp)
		return
	}

	if errors.Is(err, cart.ErrInvalidCartID) {
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid cart id")
		return
	}
	if errors.Is(err, cart.ErrEmptyCart) {
		h.writeErrorResponse(w, r, http.StatusConflict, models.ErrorCodeBadRequest, "Cart is empty")
		return
	}

	if errors.Is(err, content.ErrNotFound) {
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound, err.Error())
		return
	}

	if apiErr, ok := apiclient.AsError(err); ok {
		code := models.ErrorCodeUpstream
		if apiErr.Kind == apiclient.KindTimeout {
			code = models.ErrorCodeTimeout
		}
		h.logger.Warn("upstream request failed",
			"path", r.URL.Path,
			"kind", apiErr.Kind.String(),
			"status", apiErr.Status,
			"error", apiErr.Message)

		resp := h.newErrorResponse(r, apiErr.Message, code)
		resp.Details = upstreamDetails(apiErr.Details)
		h.writeJSONResponse(w, apiErr.Status, resp)
		return
	}

	h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
}

// upstreamDetails keeps upstream error details when they are a flat string map.
func upstreamDetails(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var details map[string]string
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil
	}
	return details
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing more can be sent.
		h.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (h *Handlers) newErrorResponse(r *http.Request, message, code string) *models.ErrorResponse {
	resp := models.NewErrorResponse(message, code)
	resp.RequestID = RequestID(r.Context())
	return resp
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, h.newErrorResponse(r, message, errorCode))
}
