package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// ErrEmptyOutput is returned when the model produced no text, usually
// because a safety filter blocked the answer.
var ErrEmptyOutput = errors.New("model returned no output")

// ErrRateLimited marks upstream 429 responses that outlived the retries.
var ErrRateLimited = errors.New("model provider rate limit exceeded")

// StripCodeFences removes a surrounding markdown code block, which some
// models add even when asked for raw JSON.
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// rawReport mirrors BloodReportAnalysis with free-form enums so that an
// unexpected value does not fail the whole decode.
type rawReport struct {
	Summary     string `json:"summary"`
	Severity    string `json:"severity"`
	KeyFindings []struct {
		Test           string `json:"test"`
		Value          string `json:"value"`
		Interpretation string `json:"interpretation"`
		Finding        string `json:"finding"`
	} `json:"keyFindings"`
	SuggestedPrecautions []string `json:"suggestedPrecautions"`
	Disclaimer           string   `json:"disclaimer"`
}

// ParseSymptomSuggestion decodes the symptom checker output.
func ParseSymptomSuggestion(text string) (*entities.SymptomSuggestion, error) {
	var out entities.SymptomSuggestion
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse symptom suggestion: %w", err)
	}
	return &out, nil
}

// ParseBloodReportAnalysis decodes the analyzer output. Enum values are
// passed through as-is; callers normalise them.
func ParseBloodReportAnalysis(text string) (*entities.BloodReportAnalysis, error) {
	var raw rawReport
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse blood report analysis: %w", err)
	}
	out := &entities.BloodReportAnalysis{
		Summary:              raw.Summary,
		Severity:             entities.Severity(raw.Severity),
		SuggestedPrecautions: raw.SuggestedPrecautions,
		Disclaimer:           raw.Disclaimer,
	}
	for _, f := range raw.KeyFindings {
		out.KeyFindings = append(out.KeyFindings, entities.KeyFinding{
			Test:           f.Test,
			Value:          f.Value,
			Interpretation: f.Interpretation,
			Finding:        entities.FindingFlag(f.Finding),
		})
	}
	return out, nil
}

// ParseAISearchResult decodes the assistant search output.
func ParseAISearchResult(text string) (*entities.AISearchResult, error) {
	var out entities.AISearchResult
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse search result: %w", err)
	}
	return &out, nil
}
