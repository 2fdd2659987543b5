package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const (
	MsgSuggestionsOK = "Suggestions generated successfully."
	MsgReportOK      = "Report analyzed successfully."
	MsgSearchOK      = "Search complete."

	msgInvalidPayload = "invalid request payload"
)

// Retry-After values sent with 429 and 503 assistant failures.
const (
	rateLimitedRetryAfter = "60"
	unavailableRetryAfter = "30"
)

// AssistantService defines the LLM flows used by the handler.
type AssistantService interface {
	SuggestConditions(ctx context.Context, input entities.SymptomInput) (*entities.SymptomSuggestion, error)
	AnalyzeBloodReport(ctx context.Context, input entities.BloodReportInput) (*entities.BloodReportAnalysis, error)
	Search(ctx context.Context, input entities.AISearchInput) (*entities.AISearchResult, error)
	ExportBloodReportPDF(ctx context.Context, analysis *entities.BloodReportAnalysis) ([]byte, error)
}

// AssistantHandler exposes the assistant flows. Every response uses the
// {success, message, data} envelope the web client expects.
type AssistantHandler struct {
	service AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(service AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

type assistantResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuggestConditions handles POST /api/assistant/symptoms
func (h *AssistantHandler) SuggestConditions(w http.ResponseWriter, r *http.Request) {
	var input entities.SymptomInput
	if err := decodeJSON(w, r, maxJSONBody, &input); err != nil {
		respondWithJSON(w, http.StatusBadRequest, assistantResponse{Message: msgInvalidPayload})
		return
	}
	res, err := h.service.SuggestConditions(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assistantResponse{Success: true, Message: MsgSuggestionsOK, Data: res})
}

// AnalyzeBloodReport handles POST /api/assistant/blood-report
func (h *AssistantHandler) AnalyzeBloodReport(w http.ResponseWriter, r *http.Request) {
	var input entities.BloodReportInput
	if err := decodeJSON(w, r, maxReportBody, &input); err != nil {
		respondWithJSON(w, http.StatusBadRequest, assistantResponse{Message: msgInvalidPayload})
		return
	}
	res, err := h.service.AnalyzeBloodReport(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assistantResponse{Success: true, Message: MsgReportOK, Data: res})
}

// Search handles POST /api/assistant/search
func (h *AssistantHandler) Search(w http.ResponseWriter, r *http.Request) {
	var input entities.AISearchInput
	if err := decodeJSON(w, r, maxJSONBody, &input); err != nil {
		respondWithJSON(w, http.StatusBadRequest, assistantResponse{Message: msgInvalidPayload})
		return
	}
	res, err := h.service.Search(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assistantResponse{Success: true, Message: MsgSearchOK, Data: res})
}

// ExportBloodReportPDF handles POST /api/assistant/blood-report/pdf. The
// body is an analysis previously returned by AnalyzeBloodReport.
func (h *AssistantHandler) ExportBloodReportPDF(w http.ResponseWriter, r *http.Request) {
	var analysis entities.BloodReportAnalysis
	if err := decodeJSON(w, r, maxJSONBody, &analysis); err != nil {
		respondWithJSON(w, http.StatusBadRequest, assistantResponse{Message: msgInvalidPayload})
		return
	}
	pdf, err := h.service.ExportBloodReportPDF(r.Context(), &analysis)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="blood-report-analysis.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to write pdf")
	}
}

func (h *AssistantHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	message := "An unexpected error occurred. Please try again later."
	if appErr, ok := apperrors.As(err); ok && appErr.Type != apperrors.ErrorTypeInternal {
		message = appErr.Message
	}

	switch status {
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", rateLimitedRetryAfter)
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", unavailableRetryAfter)
	}
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("assistant request failed")
	}
	respondWithJSON(w, status, assistantResponse{Message: message})
}
