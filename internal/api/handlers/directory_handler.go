package handlers

import (
	"context"
	"net/http"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
)

// DirectoryService defines the directory operations used by the handler.
type DirectoryService interface {
	ListMedicines(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Medicine, int, error)
	ListDoctors(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Doctor, int, error)
	ListHospitals(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Hospital, int, error)
	GetMedicine(ctx context.Context, id string) (*entities.Medicine, error)
	GetDoctor(ctx context.Context, id string) (*entities.Doctor, error)
	GetHospital(ctx context.Context, id string) (*entities.Hospital, error)
	SearchAll(ctx context.Context, query string, perDirectory int) (*entities.DirectorySearchResult, error)
}

// DirectoryHandler serves the medicines, doctors and hospitals directories.
type DirectoryHandler struct {
	service DirectoryService
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(service DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

func parseFilter(r *http.Request) (repositories.DirectoryFilter, error) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return repositories.DirectoryFilter{}, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return repositories.DirectoryFilter{}, err
	}
	return repositories.DirectoryFilter{
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}, nil
}

// ListMedicines handles GET /api/medicines
func (h *DirectoryHandler) ListMedicines(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := h.service.ListMedicines(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err, "failed to list medicines")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"medicines": items,
		"total":     total,
		"count":     len(items),
	})
}

// ListDoctors handles GET /api/doctors
func (h *DirectoryHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := h.service.ListDoctors(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err, "failed to list doctors")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": items,
		"total":   total,
		"count":   len(items),
	})
}

// ListHospitals handles GET /api/hospitals
func (h *DirectoryHandler) ListHospitals(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, total, err := h.service.ListHospitals(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err, "failed to list hospitals")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"hospitals": items,
		"total":     total,
		"count":     len(items),
	})
}

// GetMedicine handles GET /api/medicines/{id}
func (h *DirectoryHandler) GetMedicine(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetMedicine(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err, "failed to get medicine")
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// GetDoctor handles GET /api/doctors/{id}
func (h *DirectoryHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetDoctor(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err, "failed to get doctor")
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// GetHospital handles GET /api/hospitals/{id}
func (h *DirectoryHandler) GetHospital(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetHospital(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err, "failed to get hospital")
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// SearchAll handles GET /api/search?q=&limit=
// limit applies per directory.
func (h *DirectoryHandler) SearchAll(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.service.SearchAll(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondWithAppError(w, r, err, "failed to search directories")
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
