package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

const maxFeedbackComment = 2000

// FeedbackService handles feedback submissions.
type FeedbackService struct {
	repo repositories.FeedbackRepository
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo repositories.FeedbackRepository) *FeedbackService {
	return &FeedbackService{repo: repo}
}

// Create validates and stores feedback.
func (s *FeedbackService) Create(ctx context.Context, feedback *entities.Feedback) error {
	if feedback == nil {
		return apperrors.NewValidationError("feedback is required")
	}
	if !feedback.Feature.Valid() {
		return apperrors.NewValidationError("feature must be one of symptoms, blood_report, ai_search, directory")
	}
	if feedback.Rating < 1 || feedback.Rating > 5 {
		return apperrors.NewValidationError("rating must be between 1 and 5")
	}
	feedback.Comment = strings.TrimSpace(feedback.Comment)
	if utf8.RuneCountInString(feedback.Comment) > maxFeedbackComment {
		return apperrors.NewValidationError("comment is too long")
	}

	if feedback.ID == "" {
		feedback.ID = uuid.New().String()
	}
	if feedback.CreatedAt.IsZero() {
		feedback.CreatedAt = time.Now().UTC()
	}
	return s.repo.Create(ctx, feedback)
}
