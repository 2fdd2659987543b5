package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	"github.com/medisearch-pro/backend/pkg/config"
	"github.com/medisearch-pro/backend/pkg/retry"
	"github.com/medisearch-pro/backend/pkg/utils"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ErrUnauthorized is returned when the API key is rejected.
var ErrUnauthorized = errors.New("openai: unauthorized")

// StatusError carries a non-2xx response from the Responses API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("openai request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is lets callers match a 429 with errors.Is(err, llm.ErrRateLimited).
func (e *StatusError) Is(target error) bool {
	return target == llm.ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}

// Client implements providers.AssistantProvider on the OpenAI Responses API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryCfg   retry.Config
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.AIConfig, opts ...Option) (*Client, error) {
	if cfg == nil || cfg.OpenAIAPIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	retryCfg := retry.UpstreamConfig(cfg.MaxRetries)
	retryCfg.Retryable = isRetryable

	c := &Client{
		apiKey:     cfg.OpenAIAPIKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    llm.NewLimiter(cfg.RequestsPerMinute, 5),
		retryCfg:   retryCfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the provider name.
func (c *Client) Name() string { return "openai" }

// SuggestConditions runs the symptom checker prompt.
func (c *Client) SuggestConditions(ctx context.Context, symptoms string) (*entities.SymptomSuggestion, error) {
	text, err := c.respond(ctx, llm.FlowSymptoms, []inputContent{textContent(llm.SymptomsUserPrompt(symptoms))})
	if err != nil {
		return nil, err
	}
	return llm.ParseSymptomSuggestion(text)
}

// AnalyzeBloodReport sends the report as an image or file part.
func (c *Client) AnalyzeBloodReport(ctx context.Context, report providers.ReportFile) (*entities.BloodReportAnalysis, error) {
	parts := []inputContent{textContent(llm.BloodReportUserPrompt())}
	parts = append(parts, reportContent(report))

	text, err := c.respond(ctx, llm.FlowBloodReport, parts)
	if err != nil {
		return nil, err
	}
	return llm.ParseBloodReportAnalysis(text)
}

// Search runs the assistant search prompt.
func (c *Client) Search(ctx context.Context, query string) (*entities.AISearchResult, error) {
	text, err := c.respond(ctx, llm.FlowSearch, []inputContent{textContent(llm.SearchUserPrompt(query))})
	if err != nil {
		return nil, err
	}
	return llm.ParseAISearchResult(text)
}

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	Filename string `json:"filename,omitempty"`
	FileData string `json:"file_data,omitempty"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseOutput struct {
	Content []responseContent `json:"content"`
}

type responseEnvelope struct {
	Output []responseOutput `json:"output"`
	Usage  struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func textContent(text string) inputContent {
	return inputContent{Type: "input_text", Text: text}
}

func reportContent(report providers.ReportFile) inputContent {
	uri := utils.EncodeDataURI(report.MIMEType, report.Data)
	switch {
	case strings.HasPrefix(report.MIMEType, "image/"):
		return inputContent{Type: "input_image", ImageURL: uri}
	case strings.HasPrefix(report.MIMEType, "text/"):
		return textContent(string(report.Data))
	default:
		return inputContent{Type: "input_file", Filename: "report.pdf", FileData: uri}
	}
}

func (c *Client) respond(ctx context.Context, flow llm.Flow, userParts []inputContent) (string, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordOpenAIMetric(ctx, c.model, flow, 0, 0, err)
			return "", err
		}
		recordOpenAIRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	payload := map[string]interface{}{
		"model": c.model,
		"input": []inputMessage{
			{Role: "system", Content: []inputContent{textContent(llm.SystemPrompt(flow))}},
			{Role: "user", Content: userParts},
		},
		"temperature":       0.2,
		"max_output_tokens": 1500,
		"text": map[string]interface{}{
			"format": map[string]string{"type": "json_object"},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var text string
	err = retry.Do(ctx, c.retryCfg, func() error {
		var callErr error
		text, callErr = c.do(ctx, flow, body)
		return callErr
	})
	return text, err
}

func (c *Client) do(ctx context.Context, flow llm.Flow, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordOpenAIMetric(ctx, c.model, flow, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
		recordOpenAIMetric(ctx, c.model, flow, resp.StatusCode, time.Since(start), statusErr)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, statusErr)
		}
		return "", statusErr
	}

	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordOpenAIMetric(ctx, c.model, flow, resp.StatusCode, time.Since(start), err)
		return "", retry.Permanent(err)
	}

	text := outputText(envelope)
	if text == "" {
		err := fmt.Errorf("openai response missing output text: %w", llm.ErrEmptyOutput)
		recordOpenAIMetric(ctx, c.model, flow, resp.StatusCode, time.Since(start), err)
		return "", retry.Permanent(err)
	}

	recordOpenAIMetric(ctx, c.model, flow, resp.StatusCode, time.Since(start), nil)
	recordOpenAITokens(ctx, c.model, envelope.Usage.InputTokens, envelope.Usage.OutputTokens)
	return text, nil
}

func outputText(envelope responseEnvelope) string {
	for _, out := range envelope.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text
			}
		}
	}
	return ""
}

// isRetryable retries transport errors, 429 and 5xx responses.
func isRetryable(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}

type openAIMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
	tokens          metric.Int64Counter
}

var (
	openaiMetricsInit bool
	openaiMetrics     openAIMetrics
)

func ensureOpenAIMetrics() {
	if openaiMetricsInit {
		return
	}
	meter := otel.Meter("github.com/medisearch-pro/backend/openai")

	requestCount, err := meter.Int64Counter("ai.openai.request.count", metric.WithDescription("Number of OpenAI requests"))
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.openai.request.duration",
		metric.WithDescription("OpenAI request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter("ai.openai.request.errors", metric.WithDescription("Number of OpenAI request errors"))
	if err != nil {
		return
	}
	rateLimitWait, err := meter.Float64Histogram(
		"ai.openai.rate_limit.wait",
		metric.WithDescription("Time spent waiting for OpenAI rate limiter in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	tokens, err := meter.Int64Counter("ai.openai.tokens", metric.WithDescription("Tokens consumed by OpenAI requests"))
	if err != nil {
		return
	}

	openaiMetrics = openAIMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		rateLimitWait:   rateLimitWait,
		tokens:          tokens,
	}
	openaiMetricsInit = true
}

func recordOpenAIMetric(ctx context.Context, model string, flow llm.Flow, statusCode int, duration time.Duration, err error) {
	ensureOpenAIMetrics()
	if !openaiMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
		attribute.String("ai.flow", string(flow)),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	openaiMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	openaiMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		openaiMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordOpenAIRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	ensureOpenAIMetrics()
	if !openaiMetricsInit {
		return
	}
	openaiMetrics.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	))
}

func recordOpenAITokens(ctx context.Context, model string, input, output int) {
	ensureOpenAIMetrics()
	if !openaiMetricsInit {
		return
	}
	openaiMetrics.tokens.Add(ctx, int64(input), metric.WithAttributes(attribute.String("ai.model", model), attribute.String("ai.token_type", "input")))
	openaiMetrics.tokens.Add(ctx, int64(output), metric.WithAttributes(attribute.String("ai.model", model), attribute.String("ai.token_type", "output")))
}
