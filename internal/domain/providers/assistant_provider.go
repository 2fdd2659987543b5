package providers

import (
	"context"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// ReportFile is an uploaded report decoded from its data URI.
type ReportFile struct {
	MIMEType string
	Data     []byte
}

// AssistantProvider runs the three prompt flows against an LLM. Implementations
// return the raw structured output; disclaimers and validation are applied by
// the caller.
type AssistantProvider interface {
	SuggestConditions(ctx context.Context, symptoms string) (*entities.SymptomSuggestion, error)
	AnalyzeBloodReport(ctx context.Context, report ReportFile) (*entities.BloodReportAnalysis, error)
	Search(ctx context.Context, query string) (*entities.AISearchResult, error)
	Name() string
}
