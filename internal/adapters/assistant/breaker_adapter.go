package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
)

// User facing messages for provider failures.
const (
	MsgUnavailable = "The AI assistant is temporarily unavailable. Please try again in a moment."
	MsgRateLimited = "Too many requests to the AI assistant. Please wait a moment and try again."
	MsgUpstream    = "The AI assistant could not complete the request. Please try again."
)

// BreakerSettings configures the circuit breaker around a provider.
type BreakerSettings struct {
	// ConsecutiveFailures opens the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// DefaultBreakerSettings returns the production defaults.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second, HalfOpenRequests: 1}
}

// BreakerProvider guards an AssistantProvider with a circuit breaker and
// turns provider errors into typed application errors.
type BreakerProvider struct {
	inner providers.AssistantProvider
	cb    *gobreaker.CircuitBreaker
}

var _ providers.AssistantProvider = (*BreakerProvider)(nil)

// NewBreakerProvider wraps inner.
func NewBreakerProvider(inner providers.AssistantProvider, s BreakerSettings) *BreakerProvider {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	settings := gobreaker.Settings{
		Name:        "assistant-" + inner.Name(),
		MaxRequests: s.HalfOpenRequests,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}
	return &BreakerProvider{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

// countsAsSuccess keeps answers blocked by safety filters and caller
// cancellations from tripping the breaker. Only outages count.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, llm.ErrEmptyOutput) ||
		errors.Is(err, context.Canceled) ||
		apperrors.IsType(err, apperrors.ErrorTypeValidation)
}

func (p *BreakerProvider) Name() string { return p.inner.Name() }

// State exposes the breaker state for health checks.
func (p *BreakerProvider) State() gobreaker.State { return p.cb.State() }

func (p *BreakerProvider) SuggestConditions(ctx context.Context, symptoms string) (*entities.SymptomSuggestion, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.SuggestConditions(ctx, symptoms)
	})
	if err != nil {
		return nil, classify(err)
	}
	return res.(*entities.SymptomSuggestion), nil
}

func (p *BreakerProvider) AnalyzeBloodReport(ctx context.Context, report providers.ReportFile) (*entities.BloodReportAnalysis, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.AnalyzeBloodReport(ctx, report)
	})
	if err != nil {
		return nil, classify(err)
	}
	return res.(*entities.BloodReportAnalysis), nil
}

func (p *BreakerProvider) Search(ctx context.Context, query string) (*entities.AISearchResult, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.Search(ctx, query)
	})
	if err != nil {
		return nil, classify(err)
	}
	return res.(*entities.AISearchResult), nil
}

// classify leaves ErrEmptyOutput and AppErrors untouched so the service can
// pick a flow specific message.
func classify(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return apperrors.NewUnavailableError(MsgUnavailable, err)
	case errors.Is(err, llm.ErrRateLimited):
		return apperrors.NewRateLimitedError(MsgRateLimited)
	case errors.Is(err, llm.ErrEmptyOutput):
		return err
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewExternalError(MsgUpstream, err)
}
