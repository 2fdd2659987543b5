package repositories

import (
	"context"
	"time"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// SearchAnalyticsRepository stores directory search events.
type SearchAnalyticsRepository interface {
	LogEvent(ctx context.Context, event *entities.SearchEvent) error
	GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error)
	GetPopularQueries(ctx context.Context, since time.Time, limit int) ([]*entities.PopularQuery, error)
}
