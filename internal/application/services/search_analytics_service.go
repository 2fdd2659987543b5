package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const (
	trackTimeout       = 5 * time.Second
	defaultPopularDays = 7
	maxPopularDays     = 90
)

type SearchAnalyticsService struct {
	repo repositories.SearchAnalyticsRepository
	wg   sync.WaitGroup
	now  func() time.Time
}

func NewSearchAnalyticsService(repo repositories.SearchAnalyticsRepository) *SearchAnalyticsService {
	return &SearchAnalyticsService{repo: repo, now: time.Now}
}

// TrackSearch stores the event in the background. Failures are logged and
// never reach the caller.
func (s *SearchAnalyticsService) TrackSearch(ctx context.Context, event *entities.SearchEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// the request context is usually cancelled by the time this runs
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackTimeout)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			log.Warn().Err(err).Str("query", event.NormalizedQuery).Msg("Failed to log search event")
		}
	}()
}

// Wait blocks until every pending TrackSearch call has finished.
func (s *SearchAnalyticsService) Wait() {
	s.wg.Wait()
}

func (s *SearchAnalyticsService) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	return s.repo.GetZeroResultQueries(ctx, limit)
}

// GetPopularQueries aggregates the searches of the last days days. Zero
// selects the default window.
func (s *SearchAnalyticsService) GetPopularQueries(ctx context.Context, days, limit int) ([]*entities.PopularQuery, error) {
	if days < 0 || days > maxPopularDays {
		return nil, apperrors.NewValidationError("days must be between 1 and 90")
	}
	if limit < 0 {
		return nil, apperrors.NewValidationError("limit must not be negative")
	}
	if days == 0 {
		days = defaultPopularDays
	}
	since := s.now().UTC().AddDate(0, 0, -days)
	return s.repo.GetPopularQueries(ctx, since, limit)
}
