// Package models - API response types and error handling.
// This file defines all outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Rich error information with codes and details for debugging
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// ListResponse wraps collection endpoints so clients can rely on a count.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
}

func NewListResponse[T any](items []T) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResponse[T]{Items: items, TotalCount: len(items)}
}

// ErrorResponse provides structured error information with debugging context.
//
// Error Handling Design:
// - Consistent error structure across all endpoints
// - Machine-readable error codes for programmatic handling
// - Human-readable messages for user interfaces
// - Details map for field-specific validation errors
// - Request ID for distributed tracing and support
//
// Error Categories:
// - Validation errors: Input format/constraint violations
// - Not found errors: Resource doesn't exist
// - Upstream errors: the content API failed or timed out
// - Internal errors: Server-side issues
type ErrorResponse struct {
	Error     string            `json:"error"`                // Error type (always "error")
	Message   string            `json:"message"`              // Human-readable error description
	Code      string            `json:"code,omitempty"`       // Machine-readable error code
	Details   map[string]string `json:"details,omitempty"`    // Field-specific error details
	Timestamp time.Time         `json:"timestamp"`            // Error occurrence time
	RequestID string            `json:"request_id,omitempty"` // Unique request identifier
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// CacheStatsResponse reports entry counts per cache tier.
type CacheStatsResponse struct {
	MemoryEntries     int       `json:"memory_entries"`
	PersistentEntries int       `json:"persistent_entries"`
	Timestamp         time.Time `json:"timestamp"`
}

// LimiterStateResponse is one outbound endpoint's token bucket snapshot.
type LimiterStateResponse struct {
	Endpoint              string  `json:"endpoint"`
	AvailableTokens       float64 `json:"available_tokens"`
	MaxTokens             int     `json:"max_tokens"`
	QueuedRequests        int     `json:"queued_requests"`
	TimeUntilNextRefillMs int64   `json:"time_until_next_refill_ms"`
}

type ActionResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Health Status Constants
//
// Health Monitoring:
// - Healthy: All systems operational
// - Degraded: Partial functionality (persistent cache tier unavailable)
// - Unhealthy: Major issues affecting core functionality
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
	StatusUnknown   = "unknown"
)

// Standard HTTP Error Codes
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Resource doesn't exist
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeValidation         = "VALIDATION_ERROR"    // 422: Input validation failed
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeRateLimited        = "RATE_LIMIT_EXCEEDED" // 429: Too many requests
	ErrorCodeUpstream           = "UPSTREAM_ERROR"      // Content API failed
	ErrorCodeTimeout            = "UPSTREAM_TIMEOUT"    // 408: Content API timed out
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
