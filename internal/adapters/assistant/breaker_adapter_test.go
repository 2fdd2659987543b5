package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	"github.com/medisearch-pro/backend/pkg/config"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

type stubProvider struct {
	err   error
	calls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) SuggestConditions(context.Context, string) (*entities.SymptomSuggestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &entities.SymptomSuggestion{Conditions: []entities.Condition{{Name: "Common cold"}}}, nil
}

func (s *stubProvider) AnalyzeBloodReport(context.Context, providers.ReportFile) (*entities.BloodReportAnalysis, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &entities.BloodReportAnalysis{Summary: "ok"}, nil
}

func (s *stubProvider) Search(context.Context, string) (*entities.AISearchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &entities.AISearchResult{Summary: "ok"}, nil
}

func TestBreakerProvider_PassesThroughSuccess(t *testing.T) {
	p := NewBreakerProvider(&stubProvider{}, DefaultBreakerSettings())

	got, err := p.SuggestConditions(context.Background(), "cough")
	require.NoError(t, err)
	assert.Equal(t, "Common cold", got.Conditions[0].Name)
	assert.Equal(t, "stub", p.Name())
}

func TestBreakerProvider_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubProvider{err: errors.New("connection reset")}
	p := NewBreakerProvider(stub, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := p.Search(ctx, "q")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	_, err := p.Search(ctx, "q")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	assert.Equal(t, 2, stub.calls)
}

func TestBreakerProvider_EmptyOutputDoesNotTrip(t *testing.T) {
	stub := &stubProvider{err: fmt.Errorf("gemini search: %w", llm.ErrEmptyOutput)}
	p := NewBreakerProvider(stub, BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := p.Search(context.Background(), "q")
		assert.ErrorIs(t, err, llm.ErrEmptyOutput)
	}
	assert.Equal(t, gobreaker.StateClosed, p.State())
}

func TestBreakerProvider_RateLimited(t *testing.T) {
	stub := &stubProvider{err: fmt.Errorf("%w: 429", llm.ErrRateLimited)}
	p := NewBreakerProvider(stub, DefaultBreakerSettings())

	_, err := p.AnalyzeBloodReport(context.Background(), providers.ReportFile{MIMEType: "image/png", Data: []byte{1}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	p, err := NewFromConfig(ctx, &config.AIConfig{Provider: "openai", OpenAIAPIKey: "sk-test", RequestsPerMinute: 60})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, gobreaker.StateClosed, p.State())

	_, err = NewFromConfig(ctx, &config.AIConfig{Provider: "openai"})
	assert.Error(t, err)

	_, err = NewFromConfig(ctx, &config.AIConfig{Provider: "claude", OpenAIAPIKey: "x"})
	assert.ErrorContains(t, err, "unsupported")
}

func TestDisabledProvider(t *testing.T) {
	p := NewBreakerProvider(DisabledProvider{}, DefaultBreakerSettings())

	_, err := p.SuggestConditions(context.Background(), "cough")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeUnavailable, appErr.Type)
	assert.Equal(t, MsgNotConfigured, appErr.Message)
}
