package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
)

const (
	feedbackRateLimit   = 5
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour
)

// FeedbackService defines the feedback operations used by the handler.
type FeedbackService interface {
	Create(ctx context.Context, feedback *entities.Feedback) error
}

// FeedbackHandler handles feedback submissions. Each client IP may send
// feedbackRateLimit ratings per window and identical ratings are ignored
// for a day.
type FeedbackHandler struct {
	service FeedbackService
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService, cache providers.CacheProvider) *FeedbackHandler {
	return &FeedbackHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

type feedbackRequest struct {
	Feature string `json:"feature"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackRequest
	if err := decodeJSON(w, r, maxJSONBody, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.Feature = strings.TrimSpace(payload.Feature)
	payload.Comment = strings.TrimSpace(payload.Comment)

	ip := clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), "feedback:rate:"+ip)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	feedback := &entities.Feedback{
		Feature:   entities.FeedbackFeature(payload.Feature),
		Rating:    payload.Rating,
		Comment:   payload.Comment,
		UserAgent: r.UserAgent(),
	}
	if !feedback.Feature.Valid() {
		respondWithError(w, http.StatusBadRequest, "feature must be one of symptoms, blood_report, ai_search, directory")
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		respondWithError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	dupKey := "feedback:dup:" + feedbackFingerprint(payload, ip)
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	if err := h.service.Create(r.Context(), feedback); err != nil {
		respondWithAppError(w, r, err, "failed to submit feedback")
		return
	}
	h.markSubmitted(r.Context(), dupKey)

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "received",
		"id":     feedback.ID,
	})
}

func (h *FeedbackHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}

	if counter, ok := h.cache.(providers.Counter); ok {
		count, ttl, err := counter.Incr(ctx, key, int(feedbackRateWindow.Seconds()))
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("feedback rate limiter unavailable, using local window")
			return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
		}
		if count > feedbackRateLimit {
			if ttl <= 0 {
				ttl = feedbackRateWindow
			}
			return false, ttl
		}
		return true, 0
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= feedbackRateLimit {
		return false, feedbackRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(feedbackRateWindow.Seconds()))
	return true, 0
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *FeedbackHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key)
	}

	exists, err := h.cache.Exists(ctx, key)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("feedback dedupe lookup failed")
		return false
	}
	return exists
}

// markSubmitted records a stored rating so identical resubmissions are
// ignored. Only ratings that reached the repository are marked.
func (h *FeedbackHandler) markSubmitted(ctx context.Context, key string) {
	if h.cache == nil {
		h.deduper.mark(key, feedbackDedupWindow)
		return
	}
	if err := h.cache.Set(ctx, key, []byte("1"), int(feedbackDedupWindow.Seconds())); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to record feedback fingerprint")
	}
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	expiresAt, ok := d.entries[key]
	if !ok {
		return false
	}
	if time.Now().Before(expiresAt) {
		return true
	}
	delete(d.entries, key)
	return false
}

func (d *localDeduper) mark(key string, window time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = time.Now().Add(window)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func feedbackFingerprint(payload feedbackRequest, ip string) string {
	normalized := []string{
		strings.ToLower(payload.Feature),
		strconv.Itoa(payload.Rating),
		normalizeFeedback(payload.Comment),
		ip,
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeFeedback(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
