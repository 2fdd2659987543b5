package routes

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/medisearch-pro/backend/internal/api/handlers"
	"github.com/medisearch-pro/backend/internal/api/middleware"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	directoryHandler *handlers.DirectoryHandler
	assistantHandler *handlers.AssistantHandler
	reminderHandler  *handlers.ReminderHandler
	feedbackHandler  *handlers.FeedbackHandler
	sseHandler       *handlers.SSEHandler
	opsHandler       *handlers.OpsHandler

	cacheMiddleware *middleware.CacheMiddleware
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Handlers groups the handlers the router mounts. A nil handler leaves its
// routes unregistered.
type Handlers struct {
	Directory *handlers.DirectoryHandler
	Assistant *handlers.AssistantHandler
	Reminder  *handlers.ReminderHandler
	Feedback  *handlers.FeedbackHandler
	SSE       *handlers.SSEHandler
	Ops       *handlers.OpsHandler
}

// NewRouter creates a new router
func NewRouter(h Handlers, cacheMiddleware *middleware.CacheMiddleware, allowedOrigins []string, metrics *observability.Metrics) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		directoryHandler: h.Directory,
		assistantHandler: h.Assistant,
		reminderHandler:  h.Reminder,
		feedbackHandler:  h.Feedback,
		sseHandler:       h.SSE,
		opsHandler:       h.Ops,
		cacheMiddleware:  cacheMiddleware,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	if r.opsHandler != nil {
		r.mux.HandleFunc("GET /health", r.opsHandler.Health)
		r.mux.HandleFunc("GET /api/analytics/searches/popular", r.opsHandler.PopularSearches)
		r.mux.HandleFunc("GET /api/analytics/searches/zero-results", r.opsHandler.ZeroResultSearches)
		r.mux.HandleFunc("POST /api/cache/warm", r.opsHandler.WarmCache)
		r.mux.HandleFunc("POST /api/cache/invalidate", r.opsHandler.InvalidateCache)
	} else {
		r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
	}

	// Directory endpoints
	if r.directoryHandler != nil {
		r.mux.HandleFunc("GET /api/medicines", r.directoryHandler.ListMedicines)
		r.mux.HandleFunc("GET /api/medicines/{id}", r.directoryHandler.GetMedicine)
		r.mux.HandleFunc("GET /api/doctors", r.directoryHandler.ListDoctors)
		r.mux.HandleFunc("GET /api/doctors/{id}", r.directoryHandler.GetDoctor)
		r.mux.HandleFunc("GET /api/hospitals", r.directoryHandler.ListHospitals)
		r.mux.HandleFunc("GET /api/hospitals/{id}", r.directoryHandler.GetHospital)
		r.mux.HandleFunc("GET /api/search", r.directoryHandler.SearchAll)
	}

	// Assistant endpoints
	if r.assistantHandler != nil {
		r.mux.HandleFunc("POST /api/assistant/symptoms", r.assistantHandler.SuggestConditions)
		r.mux.HandleFunc("POST /api/assistant/blood-report", r.assistantHandler.AnalyzeBloodReport)
		r.mux.HandleFunc("POST /api/assistant/blood-report/pdf", r.assistantHandler.ExportBloodReportPDF)
		r.mux.HandleFunc("POST /api/assistant/search", r.assistantHandler.Search)
	}

	// Reminder endpoints
	if r.reminderHandler != nil {
		r.mux.HandleFunc("GET /api/reminders", r.reminderHandler.ListReminders)
		r.mux.HandleFunc("POST /api/reminders", r.reminderHandler.CreateReminder)
		r.mux.HandleFunc("DELETE /api/reminders", r.reminderHandler.DeleteReminderLegacy)
		r.mux.HandleFunc("GET /api/reminders/{id}", r.reminderHandler.GetReminder)
		r.mux.HandleFunc("PUT /api/reminders/{id}", r.reminderHandler.UpdateReminder)
		r.mux.HandleFunc("DELETE /api/reminders/{id}", r.reminderHandler.DeleteReminder)
	}

	if r.feedbackHandler != nil {
		r.mux.HandleFunc("POST /api/feedback", r.feedbackHandler.SubmitFeedback)
	}

	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/reminders", r.sseHandler.StreamReminders)
		r.mux.HandleFunc("GET /api/stream/reminders/{id}", r.sseHandler.StreamReminder)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so cached responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	handler = chimw.Recoverer(handler)
	handler = chimw.RealIP(handler)
	handler = chimw.RequestID(handler)

	return handler
}
