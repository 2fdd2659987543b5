package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const searchEventsTable = "search_events"

type SearchAnalyticsAdapter struct {
	client SQLClient
	db     *goqu.Database
}

func NewSearchAnalyticsAdapter(client SQLClient) repositories.SearchAnalyticsRepository {
	return &SearchAnalyticsAdapter{client: client, db: newQueryBuilder(client)}
}

func (a *SearchAnalyticsAdapter) LogEvent(ctx context.Context, event *entities.SearchEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query, args, err := a.db.Insert(searchEventsTable).Prepared(true).Rows(goqu.Record{
		"id":               event.ID,
		"query":            event.Query,
		"normalized_query": event.NormalizedQuery,
		"directory":        string(event.Directory),
		"result_count":     event.ResultCount,
		"latency_ms":       event.LatencyMs,
		"source":           event.Source,
		"created_at":       event.CreatedAt.UTC(),
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}
	return nil
}

func (a *SearchAnalyticsAdapter) GetZeroResultQueries(ctx context.Context, limit int) ([]*entities.SearchEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query, args, err := a.db.Select(
		"id", "query", "normalized_query", "directory", "result_count", "latency_ms", "source", "created_at",
	).From(searchEventsTable).
		Where(goqu.C("result_count").Eq(0)).
		Order(goqu.I("created_at").Desc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	events := make([]*entities.SearchEvent, 0)
	for rows.Next() {
		e := &entities.SearchEvent{}
		var directory string
		err := rows.Scan(
			&e.ID,
			&e.Query,
			&e.NormalizedQuery,
			&directory,
			&e.ResultCount,
			&e.LatencyMs,
			&e.Source,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		e.Directory = entities.DirectoryKind(directory)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	return events, nil
}

// GetPopularQueries counts non-empty queries per directory since the given time.
func (a *SearchAnalyticsAdapter) GetPopularQueries(ctx context.Context, since time.Time, limit int) ([]*entities.PopularQuery, error) {
	if limit <= 0 {
		limit = 10
	}

	query, args, err := a.db.Select(
		"normalized_query", "directory", goqu.COUNT("*").As("count"),
	).From(searchEventsTable).
		Where(
			goqu.C("created_at").Gte(since.UTC()),
			goqu.C("normalized_query").Neq(""),
		).
		GroupBy("normalized_query", "directory").
		Order(goqu.I("count").Desc(), goqu.I("normalized_query").Asc()).
		Limit(uint(limit)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get popular queries", err)
	}
	defer rows.Close()

	popular := make([]*entities.PopularQuery, 0)
	for rows.Next() {
		p := &entities.PopularQuery{}
		var directory string
		if err := rows.Scan(&p.NormalizedQuery, &directory, &p.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan popular query", err)
		}
		p.Directory = entities.DirectoryKind(directory)
		popular = append(popular, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to get popular queries", err)
	}
	return popular, nil
}
