package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
)

const (
	warmPopularDays    = 7
	warmPopularQueries = 20
	warmConcurrency    = 4
)

// CacheWarmingService preloads the cached directory repositories with the
// landing pages and the most searched queries.
type CacheWarmingService struct {
	medicines repositories.MedicineRepository
	doctors   repositories.DoctorRepository
	hospitals repositories.HospitalRepository
	analytics *SearchAnalyticsService
	cache     providers.CacheProvider
}

// NewCacheWarmingService creates a new cache warming service. The
// repositories must be the cache decorated ones for warming to have an
// effect. analytics may be nil, which warms the landing pages only.
func NewCacheWarmingService(
	medicines repositories.MedicineRepository,
	doctors repositories.DoctorRepository,
	hospitals repositories.HospitalRepository,
	analytics *SearchAnalyticsService,
	cache providers.CacheProvider,
) *CacheWarmingService {
	return &CacheWarmingService{
		medicines: medicines,
		doctors:   doctors,
		hospitals: hospitals,
		analytics: analytics,
		cache:     cache,
	}
}

type warmTarget struct {
	kind   entities.DirectoryKind
	filter repositories.DirectoryFilter
}

// WarmCache loads every target and returns how many were warmed.
func (s *CacheWarmingService) WarmCache(ctx context.Context) (int, error) {
	targets := s.targets(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	results := make([]bool, len(targets))
	for i, t := range targets {
		g.Go(func() error {
			if err := s.warm(gctx, t); err != nil {
				log.Warn().Err(err).Str("directory", string(t.kind)).Str("query", t.filter.Query).Msg("Failed to warm directory cache")
				return nil
			}
			results[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	warmed := 0
	for _, ok := range results {
		if ok {
			warmed++
		}
	}
	log.Info().Int("warmed", warmed).Int("targets", len(targets)).Msg("Cache warming completed")
	return warmed, ctx.Err()
}

func (s *CacheWarmingService) targets(ctx context.Context) []warmTarget {
	all := []entities.DirectoryKind{entities.DirectoryMedicines, entities.DirectoryDoctors, entities.DirectoryHospitals}

	targets := make([]warmTarget, 0, len(all))
	for _, kind := range all {
		targets = append(targets, warmTarget{kind: kind})
	}
	if s.analytics == nil {
		return targets
	}

	popular, err := s.analytics.GetPopularQueries(ctx, warmPopularDays, warmPopularQueries)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load popular queries, warming landing pages only")
		return targets
	}
	for _, p := range popular {
		if p.NormalizedQuery == "" {
			continue
		}
		if p.Directory == entities.DirectoryAll {
			// SearchAll reads each directory with the per-directory limit
			for _, kind := range all {
				targets = append(targets, warmTarget{kind: kind, filter: repositories.DirectoryFilter{
					Query: p.NormalizedQuery, Limit: DefaultSearchPerDirectory,
				}})
			}
			continue
		}
		targets = append(targets, warmTarget{kind: p.Directory, filter: repositories.DirectoryFilter{Query: p.NormalizedQuery}})
	}
	return targets
}

func (s *CacheWarmingService) warm(ctx context.Context, t warmTarget) error {
	var err error
	switch t.kind {
	case entities.DirectoryMedicines:
		_, _, err = s.medicines.List(ctx, t.filter)
	case entities.DirectoryDoctors:
		_, _, err = s.doctors.List(ctx, t.filter)
	case entities.DirectoryHospitals:
		_, _, err = s.hospitals.List(ctx, t.filter)
	}
	return err
}

// StartPeriodicWarming warms once and then on every tick until ctx is done.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	if _, err := s.WarmCache(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial cache warming failed")
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					log.Warn().Err(err).Msg("Periodic cache warming failed")
				}
			}
		}
	}()
	log.Info().Dur("interval", interval).Msg("Started periodic cache warming")
}

// InvalidateCache drops every cached directory entry, e.g. after the
// catalog was reloaded or reseeded.
func (s *CacheWarmingService) InvalidateCache(ctx context.Context) error {
	if err := s.cache.DeletePattern(ctx, providers.DirectoryCachePattern); err != nil {
		return err
	}
	log.Info().Msg("Directory cache invalidated")
	return nil
}
