package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/alex-user-go/stayscout/internal/middleware"
	"github.com/alex-user-go/stayscout/internal/obs"
	"github.com/alex-user-go/stayscout/internal/ratelimit"
	"github.com/alex-user-go/stayscout/internal/search"
	"github.com/alex-user-go/stayscout/internal/search/types"
	"github.com/alex-user-go/stayscout/internal/stream"
)

// Handler handles HTTP requests.
type Handler struct {
	orchestrator *search.Orchestrator
	rateLimiter  *ratelimit.Limiter
	metrics      *obs.Metrics
	logger       *slog.Logger
}

// New creates a new Handler.
func New(
	orchestrator *search.Orchestrator,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		rateLimiter:  rateLimiter,
		metrics:      metrics,
		logger:       logger,
	}
}

// SearchHandler handles POST /search requests. The response is a
// server-sent event stream: progress events while the pipeline works, at
// most one results event, and always a terminal complete event.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncSearches()
	requestID := middleware.RequestID(r.Context())

	ip := ExtractIP(r)
	if !h.rateLimiter.Allow(ip) {
		h.logger.Warn("rate limit exceeded", "request_id", requestID, "ip", ip)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var criteria types.SearchCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		h.logger.Debug("invalid request body", "request_id", requestID, "error", err, "ip", ip)
		writeError(w, http.StatusBadRequest, "invalid search criteria")
		return
	}
	if strings.TrimSpace(criteria.Destination) == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}

	sink, err := stream.NewSSEWriter(w)
	if err != nil {
		h.logger.Error("streaming unsupported", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	h.logger.Info("search started",
		"request_id", requestID,
		"destination", criteria.Destination,
		"ip", ip,
	)

	results := h.orchestrator.Run(r.Context(), criteria, sink)

	h.logger.Info("search finished",
		"request_id", requestID,
		"destination", criteria.Destination,
		"results", len(results),
	)
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
