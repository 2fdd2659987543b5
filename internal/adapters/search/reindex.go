package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
)

// ReindexStats counts the documents pushed per directory.
type ReindexStats struct {
	Medicines int
	Doctors   int
	Hospitals int
}

// Reindex copies every record of the three repositories into index.
func Reindex(
	ctx context.Context,
	index providers.DirectoryIndex,
	medicines repositories.MedicineRepository,
	doctors repositories.DoctorRepository,
	hospitals repositories.HospitalRepository,
) (ReindexStats, error) {
	var stats ReindexStats
	all := repositories.DirectoryFilter{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, _, err := medicines.List(gctx, all)
		if err != nil {
			return fmt.Errorf("list medicines: %w", err)
		}
		stats.Medicines = len(items)
		return index.IndexMedicines(gctx, items)
	})
	g.Go(func() error {
		items, _, err := doctors.List(gctx, all)
		if err != nil {
			return fmt.Errorf("list doctors: %w", err)
		}
		stats.Doctors = len(items)
		return index.IndexDoctors(gctx, items)
	})
	g.Go(func() error {
		items, _, err := hospitals.List(gctx, all)
		if err != nil {
			return fmt.Errorf("list hospitals: %w", err)
		}
		stats.Hospitals = len(items)
		return index.IndexHospitals(gctx, items)
	})
	if err := g.Wait(); err != nil {
		return stats, err
	}

	log.Ctx(ctx).Info().
		Int("medicines", stats.Medicines).
		Int("doctors", stats.Doctors).
		Int("hospitals", stats.Hospitals).
		Msg("Directory reindexed")
	return stats, nil
}
