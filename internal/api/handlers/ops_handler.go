package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// AnalyticsService defines the search analytics reads used by the handler.
type AnalyticsService interface {
	GetPopularQueries(ctx context.Context, days, limit int) ([]*entities.PopularQuery, error)
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
}

// CacheWarmer defines the cache maintenance operations used by the handler.
type CacheWarmer interface {
	WarmCache(ctx context.Context) (int, error)
	InvalidateCache(ctx context.Context) error
}

// OpsHandler serves health, analytics and cache maintenance endpoints.
type OpsHandler struct {
	checks       map[string]HealthCheck
	analytics    AnalyticsService
	warmer       CacheWarmer
	invalidators []func(ctx context.Context) error
	streams      *SSEHandler
}

// NewOpsHandler creates a new ops handler. analytics and warmer may be nil
// when the process runs without them.
func NewOpsHandler(analytics AnalyticsService, warmer CacheWarmer) *OpsHandler {
	return &OpsHandler{
		checks:    make(map[string]HealthCheck),
		analytics: analytics,
		warmer:    warmer,
	}
}

// WithCheck registers a named dependency probe.
func (h *OpsHandler) WithCheck(name string, check HealthCheck) *OpsHandler {
	h.checks[name] = check
	return h
}

// WithInvalidator adds an extra step run by InvalidateCache, such as
// dropping cached HTTP responses.
func (h *OpsHandler) WithInvalidator(fn func(ctx context.Context) error) *OpsHandler {
	h.invalidators = append(h.invalidators, fn)
	return h
}

// WithStreams reports the number of connected SSE clients in /health.
func (h *OpsHandler) WithStreams(streams *SSEHandler) *OpsHandler {
	h.streams = streams
	return h
}

// Health handles GET /health
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Str("check", name).Msg("health check failed")
			checks[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	body := map[string]interface{}{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC(),
	}
	if h.streams != nil {
		body["sse_clients"] = h.streams.GetClientCount()
	}
	respondWithJSON(w, code, body)
}

// PopularSearches handles GET /api/analytics/searches/popular?days=&limit=
func (h *OpsHandler) PopularSearches(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		respondWithError(w, http.StatusServiceUnavailable, "search analytics disabled")
		return
	}
	days, err := queryInt(r, "days", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	queries, err := h.analytics.GetPopularQueries(r.Context(), days, limit)
	if err != nil {
		respondWithAppError(w, r, err, "failed to load popular searches")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": queries,
		"count":   len(queries),
	})
}

// ZeroResultSearches handles GET /api/analytics/searches/zero-results?limit=
func (h *OpsHandler) ZeroResultSearches(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		respondWithError(w, http.StatusServiceUnavailable, "search analytics disabled")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.analytics.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err, "failed to load zero result searches")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"queries": events,
		"count":   len(events),
	})
}

// WarmCache handles POST /api/cache/warm
func (h *OpsHandler) WarmCache(w http.ResponseWriter, r *http.Request) {
	if h.warmer == nil {
		respondWithError(w, http.StatusServiceUnavailable, "cache disabled")
		return
	}
	warmed, err := h.warmer.WarmCache(r.Context())
	if err != nil {
		respondWithAppError(w, r, err, "failed to warm cache")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status": "warmed",
		"warmed": warmed,
	})
}

// InvalidateCache handles POST /api/cache/invalidate
func (h *OpsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.warmer == nil {
		respondWithError(w, http.StatusServiceUnavailable, "cache disabled")
		return
	}
	if err := h.warmer.InvalidateCache(r.Context()); err != nil {
		respondWithAppError(w, r, err, "failed to invalidate cache")
		return
	}
	for _, fn := range h.invalidators {
		if err := fn(r.Context()); err != nil {
			respondWithAppError(w, r, err, "failed to invalidate cache")
			return
		}
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}
