package api

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"storefront/internal/models"
)

// CacheStats handles GET /api/v1/admin/cache
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Cache is not configured")
		return
	}

	stats := h.cache.Stats(r.Context())
	h.writeJSONResponse(w, http.StatusOK, &models.CacheStatsResponse{
		MemoryEntries:     stats.MemoryEntries,
		PersistentEntries: stats.PersistentEntries,
		Timestamp:         time.Now(),
	})
}

// ClearCache handles POST /api/v1/admin/cache/clear
// With ?expired=true only stale entries are removed.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Cache is not configured")
		return
	}

	expiredOnly := false
	if raw := r.URL.Query().Get("expired"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "expired must be a boolean")
			return
		}
		expiredOnly = v
	}

	var message string
	if expiredOnly {
		removed := h.cache.ClearExpired(r.Context())
		message = fmt.Sprintf("Removed %d expired entries", removed)
	} else {
		h.cache.ClearAll(r.Context())
		message = "Cache cleared"
	}

	h.logger.Info("cache cleared", "expired_only", expiredOnly, "request_id", RequestID(r.Context()))
	h.writeJSONResponse(w, http.StatusOK, &models.ActionResponse{Message: message, Timestamp: time.Now()})
}

// LimiterStates handles GET /api/v1/admin/limits
func (h *Handlers) LimiterStates(w http.ResponseWriter, r *http.Request) {
	if h.limits == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Rate limiter is not configured")
		return
	}

	states := h.limits.States()
	out := make([]models.LimiterStateResponse, 0, len(states))
	for endpoint, s := range states {
		out = append(out, models.LimiterStateResponse{
			Endpoint:              endpoint,
			AvailableTokens:       s.AvailableTokens,
			MaxTokens:             s.MaxTokens,
			QueuedRequests:        s.QueuedRequests,
			TimeUntilNextRefillMs: s.TimeUntilNextRefill.Milliseconds(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })

	h.writeJSONResponse(w, http.StatusOK, models.NewListResponse(out))
}

// ResetLimits handles POST /api/v1/admin/limits/reset
// ?endpoint= resets a single limiter; without it every limiter is reset.
func (h *Handlers) ResetLimits(w http.ResponseWriter, r *http.Request) {
	if h.limits == nil {
		h.writeErrorResponse(w, r, http.StatusServiceUnavailable, models.ErrorCodeServiceUnavailable, "Rate limiter is not configured")
		return
	}

	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		h.limits.ResetAll()
		h.writeJSONResponse(w, http.StatusOK, &models.ActionResponse{Message: "All limiters reset", Timestamp: time.Now()})
		return
	}

	if !h.limits.Reset(endpoint) {
		h.writeErrorResponse(w, r, http.StatusNotFound, models.ErrorCodeNotFound,
			fmt.Sprintf("no limiter for endpoint '%s'", endpoint))
		return
	}
	h.writeJSONResponse(w, http.StatusOK, &models.ActionResponse{
		Message:   fmt.Sprintf("Limiter for %s reset", endpoint),
		Timestamp: time.Now(),
	})
}
