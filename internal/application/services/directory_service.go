package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
	"github.com/medisearch-pro/backend/pkg/utils"
)

const (
	// SourceCatalog marks results read from the directory repositories.
	SourceCatalog = "catalog"

	DefaultSearchPerDirectory = 10
	MaxSearchPerDirectory     = 50
)

// DirectoryService serves the medicines, doctors and hospitals directories.
type DirectoryService struct {
	medicines repositories.MedicineRepository
	doctors   repositories.DoctorRepository
	hospitals repositories.HospitalRepository
	index     providers.DirectoryIndex
	analytics *SearchAnalyticsService
}

// NewDirectoryService creates a directory service. analytics may be nil.
func NewDirectoryService(
	medicines repositories.MedicineRepository,
	doctors repositories.DoctorRepository,
	hospitals repositories.HospitalRepository,
	analytics *SearchAnalyticsService,
) *DirectoryService {
	return &DirectoryService{
		medicines: medicines,
		doctors:   doctors,
		hospitals: hospitals,
		analytics: analytics,
	}
}

// WithIndex makes SearchAll query the full-text index first.
func (s *DirectoryService) WithIndex(index providers.DirectoryIndex) *DirectoryService {
	s.index = index
	return s
}

func validateFilter(filter repositories.DirectoryFilter) (repositories.DirectoryFilter, error) {
	if filter.Limit < 0 {
		return filter, apperrors.NewValidationError("limit must not be negative")
	}
	if filter.Offset < 0 {
		return filter, apperrors.NewValidationError("offset must not be negative")
	}
	filter.Query = utils.NormalizeQuery(filter.Query)
	return filter, nil
}

func (s *DirectoryService) ListMedicines(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Medicine, int, error) {
	raw := filter.Query
	filter, err := validateFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	items, total, err := s.medicines.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	s.track(ctx, raw, filter.Query, entities.DirectoryMedicines, total, SourceCatalog, start)
	return items, total, nil
}

func (s *DirectoryService) ListDoctors(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Doctor, int, error) {
	raw := filter.Query
	filter, err := validateFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	items, total, err := s.doctors.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	s.track(ctx, raw, filter.Query, entities.DirectoryDoctors, total, SourceCatalog, start)
	return items, total, nil
}

func (s *DirectoryService) ListHospitals(ctx context.Context, filter repositories.DirectoryFilter) ([]*entities.Hospital, int, error) {
	raw := filter.Query
	filter, err := validateFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	items, total, err := s.hospitals.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	s.track(ctx, raw, filter.Query, entities.DirectoryHospitals, total, SourceCatalog, start)
	return items, total, nil
}

func (s *DirectoryService) GetMedicine(ctx context.Context, id string) (*entities.Medicine, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	return s.medicines.GetByID(ctx, id)
}

func (s *DirectoryService) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	return s.doctors.GetByID(ctx, id)
}

func (s *DirectoryService) GetHospital(ctx context.Context, id string) (*entities.Hospital, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("id is required")
	}
	return s.hospitals.GetByID(ctx, id)
}

// SearchAll returns up to perDirectory matches from each directory. The
// index answers when configured; any index error falls back to the
// repositories.
func (s *DirectoryService) SearchAll(ctx context.Context, query string, perDirectory int) (*entities.DirectorySearchResult, error) {
	if perDirectory < 0 {
		return nil, apperrors.NewValidationError("limit must not be negative")
	}
	if perDirectory == 0 {
		perDirectory = DefaultSearchPerDirectory
	}
	if perDirectory > MaxSearchPerDirectory {
		perDirectory = MaxSearchPerDirectory
	}
	q := utils.NormalizeQuery(query)
	start := time.Now()

	if s.index != nil {
		res, err := s.index.Search(ctx, q, perDirectory)
		if err == nil {
			res.Query = q
			s.track(ctx, query, q, entities.DirectoryAll, res.Total(), res.Source, start)
			return res, nil
		}
		log.Ctx(ctx).Warn().Err(err).Str("query", q).Msg("Directory index search failed, falling back to catalog")
	}

	res := &entities.DirectorySearchResult{Query: q, Source: SourceCatalog}
	filter := repositories.DirectoryFilter{Query: q, Limit: perDirectory}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, total, err := s.medicines.List(gctx, filter)
		res.Medicines, res.TotalMedicines = items, total
		return err
	})
	g.Go(func() error {
		items, total, err := s.doctors.List(gctx, filter)
		res.Doctors, res.TotalDoctors = items, total
		return err
	})
	g.Go(func() error {
		items, total, err := s.hospitals.List(gctx, filter)
		res.Hospitals, res.TotalHospitals = items, total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.track(ctx, query, q, entities.DirectoryAll, res.Total(), SourceCatalog, start)
	return res, nil
}

func (s *DirectoryService) track(ctx context.Context, raw, normalized string, dir entities.DirectoryKind, count int, source string, start time.Time) {
	if s.analytics == nil || normalized == "" {
		return
	}
	s.analytics.TrackSearch(ctx, &entities.SearchEvent{
		Query:           strings.TrimSpace(raw),
		NormalizedQuery: normalized,
		Directory:       dir,
		ResultCount:     count,
		LatencyMs:       int(time.Since(start).Milliseconds()),
		Source:          source,
	})
}
