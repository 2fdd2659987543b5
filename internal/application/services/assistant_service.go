package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/internal/infrastructure/report"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
	"github.com/medisearch-pro/backend/pkg/utils"
)

// Messages shown to the user when input is rejected or the model gives
// nothing usable.
const (
	MsgEmptySymptoms  = "Please enter at least one symptom."
	MsgEmptyReport    = "Please upload a file."
	MsgUnreadableFile = "File could not be read. Please try uploading it again."
	MsgEmptyQuery     = "Please enter a search query."

	MsgNoSuggestions = "The AI could not generate suggestions. This may be due to safety policies or a vague query. Please try rephrasing with more detail."
	MsgNoAnalysis    = "The AI could not generate an analysis for this report. The content may be unclear or violate safety policies."
	MsgNoSearch      = "The AI could not generate a response. The query may be unclear or violate safety policies."

	MsgAssistantFailed = "The AI service returned an error. Please try again later."
	MsgNoAnalysisToPDF = "An analysis with a summary is required to export a PDF."
	MsgPDFUnavailable  = "PDF export is not available on this server."
)

// ReportRenderer renders an analysis to PDF.
type ReportRenderer interface {
	BloodReport(a *entities.BloodReportAnalysis) ([]byte, error)
}

// AssistantService validates assistant requests, calls the model and
// enforces the fixed disclaimers and enums on whatever comes back.
type AssistantService struct {
	provider providers.AssistantProvider
	renderer ReportRenderer
	metrics  *observability.Metrics
}

// NewAssistantService creates an assistant service. renderer and metrics may be nil.
func NewAssistantService(provider providers.AssistantProvider, renderer ReportRenderer, metrics *observability.Metrics) *AssistantService {
	return &AssistantService{provider: provider, renderer: renderer, metrics: metrics}
}

// SuggestConditions lists possible conditions for free-text symptoms.
func (s *AssistantService) SuggestConditions(ctx context.Context, input entities.SymptomInput) (*entities.SymptomSuggestion, error) {
	symptoms := strings.TrimSpace(input.Symptoms)
	if symptoms == "" {
		return nil, apperrors.NewValidationError(MsgEmptySymptoms)
	}

	ctx, span := observability.StartSpan(ctx, "assistant.SuggestConditions")
	defer span.End()

	start := time.Now()
	res, err := s.provider.SuggestConditions(ctx, symptoms)
	s.record(ctx, llm.FlowSymptoms, err, start)
	if err != nil {
		observability.RecordError(span, err)
		return nil, s.upstreamError(ctx, llm.FlowSymptoms, err, MsgNoSuggestions)
	}

	out := &entities.SymptomSuggestion{Conditions: []entities.Condition{}}
	if res != nil {
		for _, c := range res.Conditions {
			name := strings.TrimSpace(c.Name)
			if name == "" {
				continue
			}
			out.Conditions = append(out.Conditions, entities.Condition{
				Name:        name,
				Description: withConditionDisclaimer(c.Description),
			})
		}
	}
	if len(out.Conditions) == 0 {
		return nil, apperrors.NewExternalError(MsgNoSuggestions, llm.ErrEmptyOutput)
	}
	observability.SetSpanAttributes(span, attribute.Int("assistant.conditions", len(out.Conditions)))
	return out, nil
}

// withConditionDisclaimer makes sure description ends with the condition disclaimer.
func withConditionDisclaimer(description string) string {
	d := strings.TrimSpace(description)
	if strings.HasSuffix(d, entities.ConditionDisclaimer) {
		return d
	}
	if d == "" {
		return entities.ConditionDisclaimer
	}
	return d + " " + entities.ConditionDisclaimer
}

// AnalyzeBloodReport explains an uploaded blood report given as a data URI.
func (s *AssistantService) AnalyzeBloodReport(ctx context.Context, input entities.BloodReportInput) (*entities.BloodReportAnalysis, error) {
	uri := strings.TrimSpace(input.ReportDataURI)
	if uri == "" {
		return nil, apperrors.NewValidationError(MsgEmptyReport)
	}
	if !utils.IsDataURI(uri) {
		return nil, apperrors.NewValidationError(MsgUnreadableFile)
	}
	file, err := utils.ParseDataURI(uri)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("Rejected report data uri")
		return nil, apperrors.NewValidationError(MsgUnreadableFile)
	}

	ctx, span := observability.StartSpan(ctx, "assistant.AnalyzeBloodReport")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("report.mime_type", file.MIMEType),
		attribute.Int("report.bytes", len(file.Data)),
	)

	start := time.Now()
	res, err := s.provider.AnalyzeBloodReport(ctx, providers.ReportFile{MIMEType: file.MIMEType, Data: file.Data})
	s.record(ctx, llm.FlowBloodReport, err, start)
	if err != nil {
		observability.RecordError(span, err)
		return nil, s.upstreamError(ctx, llm.FlowBloodReport, err, MsgNoAnalysis)
	}
	if res == nil || strings.TrimSpace(res.Summary) == "" {
		return nil, apperrors.NewExternalError(MsgNoAnalysis, llm.ErrEmptyOutput)
	}

	return normalizeAnalysis(res), nil
}

// normalizeAnalysis coerces unknown enum values and pins the disclaimer.
func normalizeAnalysis(in *entities.BloodReportAnalysis) *entities.BloodReportAnalysis {
	out := &entities.BloodReportAnalysis{
		Summary:              strings.TrimSpace(in.Summary),
		Severity:             entities.SeverityModerate,
		KeyFindings:          make([]entities.KeyFinding, 0, len(in.KeyFindings)),
		SuggestedPrecautions: []string{},
		Disclaimer:           entities.ReportDisclaimer,
	}
	if sev, ok := entities.ParseSeverity(string(in.Severity)); ok {
		out.Severity = sev
	}
	for _, f := range in.KeyFindings {
		flag, ok := entities.ParseFindingFlag(string(f.Finding))
		if !ok {
			flag = entities.FindingAbnormal
		}
		f.Finding = flag
		out.KeyFindings = append(out.KeyFindings, f)
	}
	for _, p := range in.SuggestedPrecautions {
		if p = strings.TrimSpace(p); p != "" {
			out.SuggestedPrecautions = append(out.SuggestedPrecautions, p)
		}
	}
	return out
}

// Search answers a free-text health question and points at app pages.
func (s *AssistantService) Search(ctx context.Context, input entities.AISearchInput) (*entities.AISearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, apperrors.NewValidationError(MsgEmptyQuery)
	}

	ctx, span := observability.StartSpan(ctx, "assistant.Search")
	defer span.End()

	start := time.Now()
	res, err := s.provider.Search(ctx, query)
	s.record(ctx, llm.FlowSearch, err, start)
	if err != nil {
		observability.RecordError(span, err)
		return nil, s.upstreamError(ctx, llm.FlowSearch, err, MsgNoSearch)
	}
	if res == nil || strings.TrimSpace(res.Summary) == "" {
		return nil, apperrors.NewExternalError(MsgNoSearch, llm.ErrEmptyOutput)
	}

	out := &entities.AISearchResult{
		Summary:        strings.TrimSpace(res.Summary),
		SuggestedLinks: appLinks(res.SuggestedLinks),
		Disclaimer:     entities.SearchDisclaimer,
	}
	return out, nil
}

// appLinks keeps the first MaxSuggestedLinks distinct links to app pages.
func appLinks(links []entities.SuggestedLink) []entities.SuggestedLink {
	out := []entities.SuggestedLink{}
	seen := make(map[string]bool)
	for _, l := range links {
		href := strings.TrimSpace(l.Href)
		if !entities.IsAppPage(href) || seen[href] {
			continue
		}
		seen[href] = true
		l.Href = href
		out = append(out, l)
		if len(out) == entities.MaxSuggestedLinks {
			break
		}
	}
	return out
}

// ExportBloodReportPDF renders a previously returned analysis.
func (s *AssistantService) ExportBloodReportPDF(ctx context.Context, analysis *entities.BloodReportAnalysis) ([]byte, error) {
	if analysis == nil || strings.TrimSpace(analysis.Summary) == "" {
		return nil, apperrors.NewValidationError(MsgNoAnalysisToPDF)
	}
	if s.renderer == nil {
		return nil, apperrors.NewUnavailableError(MsgPDFUnavailable, nil)
	}

	_, span := observability.StartSpan(ctx, "assistant.ExportBloodReportPDF")
	defer span.End()

	pdf, err := s.renderer.BloodReport(normalizeAnalysis(analysis))
	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, report.ErrNoFont) {
			return nil, apperrors.NewUnavailableError(MsgPDFUnavailable, err)
		}
		return nil, apperrors.NewInternalError("failed to render PDF", err)
	}
	return pdf, nil
}

func (s *AssistantService) record(ctx context.Context, flow llm.Flow, err error, start time.Time) {
	observability.RecordAssistantMetric(ctx, s.metrics, string(flow), s.provider.Name(), err == nil, time.Since(start))
}

// upstreamError maps a provider failure to the error returned to handlers.
// Empty output becomes the flow's user-facing message.
func (s *AssistantService) upstreamError(ctx context.Context, flow llm.Flow, err error, emptyMsg string) error {
	log.Ctx(ctx).Warn().Err(err).Str("flow", string(flow)).Str("provider", s.provider.Name()).Msg("Assistant call failed")
	if errors.Is(err, llm.ErrEmptyOutput) {
		return apperrors.NewExternalError(emptyMsg, err)
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.NewExternalError(MsgAssistantFailed, err)
}
