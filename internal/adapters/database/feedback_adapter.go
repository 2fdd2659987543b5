package database

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

// FeedbackAdapter stores feature ratings.
type FeedbackAdapter struct {
	client SQLClient
	db     *goqu.Database
}

// NewFeedbackAdapter creates a new feedback adapter.
func NewFeedbackAdapter(client SQLClient) repositories.FeedbackRepository {
	return &FeedbackAdapter{
		client: client,
		db:     newQueryBuilder(client),
	}
}

// Create inserts a feedback record.
func (a *FeedbackAdapter) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewInternalError("feedback is nil", fmt.Errorf("feedback is nil"))
	}

	record := goqu.Record{
		"id":         feedback.ID,
		"feature":    string(feedback.Feature),
		"rating":     feedback.Rating,
		"comment":    nullString(feedback.Comment),
		"user_agent": nullString(feedback.UserAgent),
		"created_at": feedback.CreatedAt.UTC(),
	}

	query, args, err := a.db.Insert("feedback").Prepared(true).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build feedback insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create feedback", err)
	}
	return nil
}
