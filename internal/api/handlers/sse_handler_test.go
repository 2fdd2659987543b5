package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/adapters/events"
	"github.com/medisearch-pro/backend/internal/api/handlers"
	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
)

// streamRecorder is a flushable ResponseWriter safe to read while the
// handler is still writing.
type streamRecorder struct {
	mu     sync.Mutex
	header http.Header
	code   int
	body   bytes.Buffer
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{header: make(http.Header)}
}

func (s *streamRecorder) Header() http.Header { return s.header }

func (s *streamRecorder) WriteHeader(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

func (s *streamRecorder) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.Write(p)
}

func (s *streamRecorder) Flush() {}

func (s *streamRecorder) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.body.String()
}

func runStream(t *testing.T, fn http.HandlerFunc, req *http.Request, w http.ResponseWriter) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		fn(w, req.WithContext(ctx))
		close(done)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}
	}
}

func TestSSEHandler_StreamReminders(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	handler := handlers.NewSSEHandler(bus)

	w := newStreamRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/reminders", nil)
	stop := runStream(t, handler.StreamReminders, req, w)

	require.Eventually(t, func() bool { return handler.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)

	reminder := &entities.Reminder{ID: "r-1", DoctorName: "Dr. Okafor"}
	event := entities.NewReminderEvent(entities.ReminderEventCreated, reminder.ID, reminder)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelReminderUpdates, event))

	assert.Eventually(t, func() bool {
		return strings.Contains(w.String(), "event: reminder_created")
	}, time.Second, 5*time.Millisecond)

	stop()
	assert.Equal(t, 0, handler.GetClientCount())
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.True(t, strings.HasPrefix(w.String(), "event: connected\n"))
	assert.Contains(t, w.String(), `"doctorName":"Dr. Okafor"`)
}

func TestSSEHandler_StreamReminder(t *testing.T) {
	bus := events.NewMemoryEventBus()
	defer bus.Close()
	handler := handlers.NewSSEHandler(bus).WithHeartbeat(10 * time.Millisecond)

	t.Run("filters by reminder and sends heartbeats", func(t *testing.T) {
		w := newStreamRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/stream/reminders/r-2", nil)
		req.SetPathValue("id", "r-2")
		stop := runStream(t, handler.StreamReminder, req, w)

		require.Eventually(t, func() bool { return handler.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
		require.NoError(t, bus.Publish(context.Background(), providers.GetReminderChannel("r-2"),
			entities.NewReminderEvent(entities.ReminderEventDue, "r-2", nil)))

		assert.Eventually(t, func() bool {
			out := w.String()
			return strings.Contains(out, "event: reminder_due") && strings.Contains(out, "event: heartbeat")
		}, time.Second, 5*time.Millisecond)
		stop()
		assert.Contains(t, w.String(), `"reminder_id":"r-2"`)
	})

	t.Run("missing id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stream/reminders/", nil)
		w := httptest.NewRecorder()
		handler.StreamReminder(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSSEHandler_EndsWhenBusCloses(t *testing.T) {
	bus := events.NewMemoryEventBus()
	handler := handlers.NewSSEHandler(bus)

	w := newStreamRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stream/reminders", nil)
	done := make(chan struct{})
	go func() {
		handler.StreamReminders(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool { return handler.GetClientCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the bus closed")
	}
	assert.Equal(t, 0, handler.GetClientCount())
}
