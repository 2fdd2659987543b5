package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	"github.com/medisearch-pro/backend/pkg/config"
	"github.com/medisearch-pro/backend/pkg/retry"
)

// Client implements providers.AssistantProvider on the Gemini API.
type Client struct {
	client   *genai.Client
	model    string
	limiter  *rate.Limiter
	retryCfg retry.Config
}

// Option customises the underlying genai client config.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = url }
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg *config.AIConfig, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	model := cfg.GeminiModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	retryCfg := retry.UpstreamConfig(cfg.MaxRetries)
	retryCfg.Retryable = isRetryable

	return &Client{
		client:   client,
		model:    model,
		limiter:  llm.NewLimiter(cfg.RequestsPerMinute, 5),
		retryCfg: retryCfg,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return "gemini" }

// SuggestConditions runs the symptom checker prompt.
func (c *Client) SuggestConditions(ctx context.Context, symptoms string) (*entities.SymptomSuggestion, error) {
	text, err := c.generate(ctx, llm.FlowSymptoms, []*genai.Part{genai.NewPartFromText(llm.SymptomsUserPrompt(symptoms))})
	if err != nil {
		return nil, err
	}
	return llm.ParseSymptomSuggestion(text)
}

// AnalyzeBloodReport sends the report bytes inline with their MIME type.
func (c *Client) AnalyzeBloodReport(ctx context.Context, report providers.ReportFile) (*entities.BloodReportAnalysis, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(llm.BloodReportUserPrompt()),
		genai.NewPartFromBytes(report.Data, report.MIMEType),
	}
	text, err := c.generate(ctx, llm.FlowBloodReport, parts)
	if err != nil {
		return nil, err
	}
	return llm.ParseBloodReportAnalysis(text)
}

// Search runs the assistant search prompt.
func (c *Client) Search(ctx context.Context, query string) (*entities.AISearchResult, error) {
	text, err := c.generate(ctx, llm.FlowSearch, []*genai.Part{genai.NewPartFromText(llm.SearchUserPrompt(query))})
	if err != nil {
		return nil, err
	}
	return llm.ParseAISearchResult(text)
}

func (c *Client) generate(ctx context.Context, flow llm.Flow, parts []*genai.Part) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt(flow), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(flow),
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
		},
	}

	var text string
	err := retry.DoWithLog(ctx, c.retryCfg, "gemini", func() error {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, genCfg)
		if err != nil {
			return err
		}
		text = resp.Text()
		if text == "" {
			return retry.Permanent(fmt.Errorf("gemini %s: %w", flow, llm.ErrEmptyOutput))
		}
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().Err(err).Str("flow", string(flow)).Int("attempt", attempt).Dur("next_delay", nextDelay).Msg("Gemini request failed, retrying")
	})
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
	}
	return text, err
}

// isRetryable retries 429 and 5xx API errors and transport failures.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}
	return true
}
