package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/providers"
)

// HTTPCachePattern matches every cached HTTP response.
const HTTPCachePattern = "http:cache:*"

// CacheConfig holds cache configuration for specific routes
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
	// BypassParams lists query parameters that send the request past the
	// cache when set, so the handler still sees every search.
	BypassParams []string
}

// DirectoryCacheRoutes are the read-only directory endpoints worth caching.
// Keys are matched exactly and as a path prefix.
var DirectoryCacheRoutes = map[string]CacheConfig{
	"/api/search":    {TTLSeconds: 120, Enabled: true, BypassParams: []string{"q"}},
	"/api/medicines": {TTLSeconds: 600, Enabled: true, BypassParams: []string{"q"}},
	"/api/doctors":   {TTLSeconds: 600, Enabled: true, BypassParams: []string{"q"}},
	"/api/hospitals": {TTLSeconds: 600, Enabled: true, BypassParams: []string{"q"}},
}

// CacheMiddleware caches successful GET responses of configured routes
type CacheMiddleware struct {
	cache        providers.CacheProvider
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a cache middleware for the directory routes
func NewCacheMiddleware(cache providers.CacheProvider) *CacheMiddleware {
	return &CacheMiddleware{
		cache:        cache,
		routeConfigs: DirectoryCacheRoutes,
	}
}

// CacheMiddlewareWithConfig creates a cache middleware with custom routes
func CacheMiddlewareWithConfig(cache providers.CacheProvider, configs map[string]CacheConfig) *CacheMiddleware {
	return &CacheMiddleware{
		cache:        cache,
		routeConfigs: configs,
	}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.getRouteConfig(r.URL.Path)
		if !config.Enabled || hasAnyParam(r, config.BypassParams) {
			next.ServeHTTP(w, r)
			return
		}

		cacheKey := generateCacheKey(r)
		if cached, err := m.cache.Get(r.Context(), cacheKey); err == nil {
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(r.Context(), cacheKey, recorder.body.Bytes(), config.TTLSeconds); err != nil {
				log.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

func (m *CacheMiddleware) getRouteConfig(path string) CacheConfig {
	if config, exists := m.routeConfigs[path]; exists {
		return config
	}
	for pattern, config := range m.routeConfigs {
		if strings.HasPrefix(path, pattern+"/") {
			return config
		}
	}
	return CacheConfig{Enabled: false}
}

func hasAnyParam(r *http.Request, params []string) bool {
	if len(params) == 0 || r.URL.RawQuery == "" {
		return false
	}
	query := r.URL.Query()
	for _, p := range params {
		if strings.TrimSpace(query.Get(p)) != "" {
			return true
		}
	}
	return false
}

// generateCacheKey hashes method, path and raw query.
func generateCacheKey(r *http.Request) string {
	key := r.Method + ":" + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return "http:cache:" + hex.EncodeToString(hash[:])
}

// InvalidateCache drops cached responses matching pattern, or all of them
// when pattern is empty.
func (m *CacheMiddleware) InvalidateCache(ctx context.Context, pattern string) error {
	if m.cache == nil {
		return nil
	}
	if pattern == "" {
		pattern = HTTPCachePattern
	}
	return m.cache.DeletePattern(ctx, pattern)
}

// responseRecorder tees the response into a buffer
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
