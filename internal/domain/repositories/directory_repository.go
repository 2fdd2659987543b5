package repositories

import (
	"context"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// DirectoryFilter narrows a directory listing. Query is matched as a
// case-insensitive substring; an empty query lists everything.
type DirectoryFilter struct {
	Query  string
	Limit  int
	Offset int
}

// MedicineRepository reads the medicines directory.
type MedicineRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Medicine, error)
	// List matches Query against name and generic name.
	List(ctx context.Context, filter DirectoryFilter) ([]*entities.Medicine, int, error)
}

// DoctorRepository reads the doctors directory.
type DoctorRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Doctor, error)
	// List matches Query against name, specialty and location.
	List(ctx context.Context, filter DirectoryFilter) ([]*entities.Doctor, int, error)
}

// HospitalRepository reads the hospitals directory.
type HospitalRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Hospital, error)
	// List matches Query against name and location.
	List(ctx context.Context, filter DirectoryFilter) ([]*entities.Hospital, int, error)
}

// DirectoryWriter bulk loads directory records. Used by the seeder.
type DirectoryWriter interface {
	UpsertMedicines(ctx context.Context, items []*entities.Medicine) error
	UpsertDoctors(ctx context.Context, items []*entities.Doctor) error
	UpsertHospitals(ctx context.Context, items []*entities.Hospital) error
}
