package providers

import (
	"context"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// DirectoryIndex is a full-text index over the three directories.
type DirectoryIndex interface {
	IndexMedicines(ctx context.Context, items []*entities.Medicine) error
	IndexDoctors(ctx context.Context, items []*entities.Doctor) error
	IndexHospitals(ctx context.Context, items []*entities.Hospital) error
	// Search returns up to perDirectory hits from each directory.
	Search(ctx context.Context, query string, perDirectory int) (*entities.DirectorySearchResult, error)
}
