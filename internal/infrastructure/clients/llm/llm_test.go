package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`  {"a":1} `))
}

func TestParseBloodReportAnalysis_KeepsUnknownEnums(t *testing.T) {
	raw := "```json\n" + `{
		"summary": "Mild anaemia.",
		"severity": "mild",
		"keyFindings": [{"test": "Hemoglobin", "value": "11.2 g/dL", "interpretation": "Slightly low", "finding": "slightly low"}],
		"suggestedPrecautions": ["Eat iron-rich foods"],
		"disclaimer": "x"
	}` + "\n```"

	out, err := ParseBloodReportAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, entities.Severity("mild"), out.Severity)
	require.Len(t, out.KeyFindings, 1)
	assert.Equal(t, entities.FindingFlag("slightly low"), out.KeyFindings[0].Finding)
	assert.Equal(t, []string{"Eat iron-rich foods"}, out.SuggestedPrecautions)
}

func TestParseSymptomSuggestion_Invalid(t *testing.T) {
	_, err := ParseSymptomSuggestion("I think you have a cold")
	assert.Error(t, err)
}

func TestParseAISearchResult(t *testing.T) {
	out, err := ParseAISearchResult(`{"summary":"s","suggestedLinks":[{"title":"Doctors","href":"/doctors","relevance":"r"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "/doctors", out.SuggestedLinks[0].Href)
}

func TestPrompts_MentionFixedTexts(t *testing.T) {
	assert.Contains(t, SymptomsSystemPrompt, entities.ConditionDisclaimer)
	assert.Contains(t, BloodReportSystemPrompt, `"Critical"`)
	assert.Contains(t, BloodReportSystemPrompt, `"Borderline"`)
	for _, page := range []string{"/medicines", "/symptoms", "/doctors", "/hospitals", "/summarizer"} {
		assert.Contains(t, SearchSystemPrompt, page)
	}
	assert.Equal(t, SearchSystemPrompt, SystemPrompt(FlowSearch))
	assert.Equal(t, "Symptoms: fever", SymptomsUserPrompt("  fever "))
}

func TestNewLimiter(t *testing.T) {
	defer goleak.VerifyNone(t)

	assert.Nil(t, NewLimiter(-1, 1))

	l := NewLimiter(0, 0)
	require.NotNil(t, l)
	assert.Equal(t, 5, l.Burst())
	assert.InDelta(t, float64(DefaultRequestsPerMinute)/60, float64(l.Limit()), 1e-9)

	fast := NewLimiter(60000, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, fast.Wait(ctx))
	require.NoError(t, fast.Wait(ctx))
}

func TestNewLimiter_WaitHonoursDeadline(t *testing.T) {
	l := NewLimiter(1, 1)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}
