package assistant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/gemini"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/openai"
	"github.com/medisearch-pro/backend/pkg/config"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

// MsgNotConfigured is returned by every flow when no provider key is set.
const MsgNotConfigured = "The AI assistant is not configured on this server."

// NewFromConfig builds the provider selected by cfg.Provider and wraps it in
// a circuit breaker.
func NewFromConfig(ctx context.Context, cfg *config.AIConfig) (*BreakerProvider, error) {
	var inner providers.AssistantProvider
	switch cfg.Provider {
	case "openai":
		c, err := openai.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		inner = c
	case "gemini", "":
		c, err := gemini.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		inner = c
	default:
		return nil, fmt.Errorf("unsupported assistant provider %q", cfg.Provider)
	}

	log.Info().Str("provider", inner.Name()).Msg("Assistant provider initialized")
	return NewBreakerProvider(inner, DefaultBreakerSettings()), nil
}

// DisabledProvider answers every flow with an Unavailable error. It stands
// in when the API runs without an LLM key.
type DisabledProvider struct{}

var _ providers.AssistantProvider = DisabledProvider{}

func (DisabledProvider) Name() string { return "disabled" }

func (DisabledProvider) SuggestConditions(context.Context, string) (*entities.SymptomSuggestion, error) {
	return nil, apperrors.NewUnavailableError(MsgNotConfigured, nil)
}

func (DisabledProvider) AnalyzeBloodReport(context.Context, providers.ReportFile) (*entities.BloodReportAnalysis, error) {
	return nil, apperrors.NewUnavailableError(MsgNotConfigured, nil)
}

func (DisabledProvider) Search(context.Context, string) (*entities.AISearchResult, error) {
	return nil, apperrors.NewUnavailableError(MsgNotConfigured, nil)
}
