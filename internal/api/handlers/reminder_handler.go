package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

// ReminderService defines the reminder operations used by the handler.
type ReminderService interface {
	List(ctx context.Context) ([]*entities.Reminder, error)
	Split(ctx context.Context) (*entities.ReminderSplit, error)
	Get(ctx context.Context, id string) (*entities.Reminder, error)
	Create(ctx context.Context, input entities.ReminderInput) (*entities.Reminder, error)
	Update(ctx context.Context, id string, input entities.ReminderInput) (*entities.Reminder, error)
	Delete(ctx context.Context, id string) error
}

// ReminderHandler serves the checkup reminder CRUD.
type ReminderHandler struct {
	service ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(service ReminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// ListReminders handles GET /api/reminders. ?view=split groups the list
// into upcoming and past.
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("view") == "split" {
		split, err := h.service.Split(r.Context())
		if err != nil {
			h.fail(w, r, err, "Failed to fetch reminders")
			return
		}
		respondWithJSON(w, http.StatusOK, split)
		return
	}

	reminders, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to fetch reminders")
		return
	}
	respondWithJSON(w, http.StatusOK, reminders)
}

// GetReminder handles GET /api/reminders/{id}
func (h *ReminderHandler) GetReminder(w http.ResponseWriter, r *http.Request) {
	reminder, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err, "Failed to fetch reminders")
		return
	}
	respondWithJSON(w, http.StatusOK, reminder)
}

// CreateReminder handles POST /api/reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var input entities.ReminderInput
	if err := decodeJSON(w, r, maxJSONBody, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	reminder, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err, "Failed to insert reminder")
		return
	}
	respondWithJSON(w, http.StatusCreated, reminder)
}

// UpdateReminder handles PUT /api/reminders/{id}
func (h *ReminderHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	var input entities.ReminderInput
	if err := decodeJSON(w, r, maxJSONBody, &input); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	reminder, err := h.service.Update(r.Context(), r.PathValue("id"), input)
	if err != nil {
		h.fail(w, r, err, "Failed to update reminder")
		return
	}
	respondWithJSON(w, http.StatusOK, reminder)
}

// DeleteReminder handles DELETE /api/reminders/{id}
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, r.PathValue("id"))
}

// DeleteReminderLegacy handles DELETE /api/reminders with a {"id": ...}
// body, the form older web clients send.
func (h *ReminderHandler) DeleteReminderLegacy(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID flexibleID `json:"id"`
	}
	if err := decodeJSON(w, r, maxJSONBody, &body); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	h.delete(w, r, string(body.ID))
}

func (h *ReminderHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "Failed to delete reminder")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// fail answers validation and not-found errors with their own message and
// everything else with the fixed message for the operation.
func (h *ReminderHandler) fail(w http.ResponseWriter, r *http.Request, err error, message string) {
	if appErr, ok := apperrors.As(err); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		}
	}
	log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	respondWithError(w, http.StatusInternalServerError, message)
}

// flexibleID accepts a JSON string or number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number")
	}
	*f = flexibleID(n.String())
	return nil
}
