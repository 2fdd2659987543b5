package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/adapters/cache"
	"github.com/medisearch-pro/backend/internal/api/handlers"
	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
)

type stubFeedbackService struct {
	created  []*entities.Feedback
	failures int
	calls    int
}

func (s *stubFeedbackService) Create(ctx context.Context, feedback *entities.Feedback) error {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("connection reset")
	}
	if feedback.ID == "" {
		feedback.ID = "test-id"
	}
	s.created = append(s.created, feedback)
	return nil
}

func postFeedback(handler *handlers.FeedbackHandler, body, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	handler.SubmitFeedback(w, req)
	return w
}

func TestFeedbackHandler_SubmitFeedback_Success(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	w := postFeedback(handler, `{"feature":"symptoms","rating":5,"comment":"Clear answer"}`, "10.0.0.1:1234")

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, service.created, 1)
	assert.Equal(t, entities.FeedbackFeatureSymptoms, service.created[0].Feature)
	assert.Equal(t, "Clear answer", service.created[0].Comment)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "received", response["status"])
	assert.NotEmpty(t, response["id"])
}

func TestFeedbackHandler_SubmitFeedback_Validation(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	for _, body := range []string{
		`{"feature":"pricing","rating":3}`,
		`{"feature":"directory","rating":0}`,
		`{"feature":"directory","rating":9}`,
		`not json`,
	} {
		w := postFeedback(handler, body, "10.0.0.3:1234")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, service.created)
}

func TestFeedbackHandler_SubmitFeedback_RateLimit(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	for i := 0; i < 5; i++ {
		body := `{"feature":"ai_search","rating":4,"comment":"ok-` + strconv.Itoa(i) + `"}`
		w := postFeedback(handler, body, "10.0.0.2:1234")
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := postFeedback(handler, `{"feature":"ai_search","rating":4,"comment":"one more"}`, "10.0.0.2:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestFeedbackHandler_SubmitFeedback_RateLimitWithCache(t *testing.T) {
	memory, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, memory)

	for i := 0; i < 5; i++ {
		body := `{"feature":"directory","rating":3,"comment":"c-` + strconv.Itoa(i) + `"}`
		w := postFeedback(handler, body, "10.0.0.4:1234")
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := postFeedback(handler, `{"feature":"directory","rating":3,"comment":"c-5"}`, "10.0.0.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retry, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.InDelta(t, 3600, retry, 5)

	// other clients are unaffected
	w = postFeedback(handler, `{"feature":"directory","rating":3}`, "10.0.0.5:1234")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestFeedbackHandler_SubmitFeedback_Duplicate(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	w := postFeedback(handler, `{"feature":"blood_report","rating":5,"comment":"Great  flow"}`, "10.0.0.9:1234")
	assert.Equal(t, http.StatusCreated, w.Code)

	// same content after whitespace and case folding
	w2 := postFeedback(handler, `{"feature":"blood_report","rating":5,"comment":" great flow "}`, "10.0.0.9:1234")
	assert.Equal(t, http.StatusAccepted, w2.Code)
	assert.Len(t, service.created, 1)
}

func TestFeedbackHandler_SubmitFeedback_RetryAfterStoreFailure(t *testing.T) {
	memory, err := cache.NewMemoryAdapter(64)
	require.NoError(t, err)

	for name, store := range map[string]providers.CacheProvider{"local": nil, "cache": memory} {
		t.Run(name, func(t *testing.T) {
			service := &stubFeedbackService{failures: 1}
			handler := handlers.NewFeedbackHandler(service, store)
			body := `{"feature":"symptoms","rating":4,"comment":"retry me ` + name + `"}`

			w := postFeedback(handler, body, "10.0.0.20:1234")
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			w = postFeedback(handler, body, "10.0.0.20:1234")
			assert.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, 2, service.calls)
			assert.Len(t, service.created, 1)

			w = postFeedback(handler, body, "10.0.0.20:1234")
			assert.Equal(t, http.StatusAccepted, w.Code)
		})
	}
}

func TestFeedbackHandler_ClientIPFromForwardedHeader(t *testing.T) {
	service := &stubFeedbackService{}
	handler := handlers.NewFeedbackHandler(service, nil)

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/feedback",
			strings.NewReader(`{"feature":"symptoms","rating":2,"comment":"n`+strconv.Itoa(i)+`"}`))
		req.RemoteAddr = "10.0.0.1:" + strconv.Itoa(2000+i)
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i)+", 10.0.0.1")
		w := httptest.NewRecorder()
		handler.SubmitFeedback(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}
}
