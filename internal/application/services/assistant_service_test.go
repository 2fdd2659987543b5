package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medisearch-pro/backend/internal/application/services"
	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
	"github.com/medisearch-pro/backend/internal/infrastructure/report"
	apperrors "github.com/medisearch-pro/backend/pkg/errors"
	"github.com/medisearch-pro/backend/pkg/utils"
)

func requireAppError(t *testing.T, err error, typ apperrors.ErrorType, msg string) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, typ, appErr.Type)
	assert.Equal(t, msg, appErr.Message)
}

func TestAssistantService_Validation(t *testing.T) {
	provider := new(MockAssistantProvider)
	service := services.NewAssistantService(provider, nil, nil)
	ctx := context.Background()

	_, err := service.SuggestConditions(ctx, entities.SymptomInput{Symptoms: "  \n"})
	requireAppError(t, err, apperrors.ErrorTypeValidation, "Please enter at least one symptom.")

	_, err = service.AnalyzeBloodReport(ctx, entities.BloodReportInput{})
	requireAppError(t, err, apperrors.ErrorTypeValidation, "Please upload a file.")

	_, err = service.AnalyzeBloodReport(ctx, entities.BloodReportInput{ReportDataURI: "https://example.com/report.pdf"})
	requireAppError(t, err, apperrors.ErrorTypeValidation, "File could not be read. Please try uploading it again.")

	_, err = service.AnalyzeBloodReport(ctx, entities.BloodReportInput{ReportDataURI: "data:application/pdf;base64"})
	requireAppError(t, err, apperrors.ErrorTypeValidation, "File could not be read. Please try uploading it again.")

	_, err = service.Search(ctx, entities.AISearchInput{Query: ""})
	requireAppError(t, err, apperrors.ErrorTypeValidation, "Please enter a search query.")

	provider.AssertNotCalled(t, "SuggestConditions", mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "AnalyzeBloodReport", mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestAssistantService_SuggestConditions(t *testing.T) {
	t.Run("appends the disclaimer only when missing", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)

		provider.On("SuggestConditions", mock.Anything, "headache and fever").Return(&entities.SymptomSuggestion{
			Conditions: []entities.Condition{
				{Name: "Flu", Description: "A viral infection."},
				{Name: "Migraine", Description: "Recurring headaches. " + entities.ConditionDisclaimer},
				{Name: " ", Description: "dropped"},
			},
		}, nil)

		res, err := service.SuggestConditions(context.Background(), entities.SymptomInput{Symptoms: " headache and fever "})
		require.NoError(t, err)
		require.Len(t, res.Conditions, 2)
		assert.Equal(t, "A viral infection. "+entities.ConditionDisclaimer, res.Conditions[0].Description)
		assert.Equal(t, "Recurring headaches. "+entities.ConditionDisclaimer, res.Conditions[1].Description)
	})

	t.Run("no conditions", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)
		provider.On("SuggestConditions", mock.Anything, mock.Anything).Return(&entities.SymptomSuggestion{}, nil)

		_, err := service.SuggestConditions(context.Background(), entities.SymptomInput{Symptoms: "x"})
		requireAppError(t, err, apperrors.ErrorTypeExternal, services.MsgNoSuggestions)
	})

	t.Run("blocked output", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)
		provider.On("SuggestConditions", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("gemini: %w", llm.ErrEmptyOutput))

		_, err := service.SuggestConditions(context.Background(), entities.SymptomInput{Symptoms: "x"})
		requireAppError(t, err, apperrors.ErrorTypeExternal, services.MsgNoSuggestions)
	})

	t.Run("classified provider errors pass through", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)
		provider.On("SuggestConditions", mock.Anything, mock.Anything).Return(nil, apperrors.NewRateLimitedError("slow down"))

		_, err := service.SuggestConditions(context.Background(), entities.SymptomInput{Symptoms: "x"})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRateLimited))
	})

	t.Run("raw provider errors become external", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)
		provider.On("SuggestConditions", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		_, err := service.SuggestConditions(context.Background(), entities.SymptomInput{Symptoms: "x"})
		requireAppError(t, err, apperrors.ErrorTypeExternal, services.MsgAssistantFailed)
	})
}

func TestAssistantService_AnalyzeBloodReport(t *testing.T) {
	t.Run("decodes file and normalises output", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)

		uri := utils.EncodeDataURI("image/png", []byte("png-bytes"))
		provider.On("AnalyzeBloodReport", mock.Anything, providers.ReportFile{MIMEType: "image/png", Data: []byte("png-bytes")}).
			Return(&entities.BloodReportAnalysis{
				Summary:  "Mostly fine.",
				Severity: "unclear",
				KeyFindings: []entities.KeyFinding{
					{Test: "Hemoglobin", Value: "11 g/dL", Finding: "low"},
					{Test: "LDL", Value: "190 mg/dL", Finding: "very high"},
				},
				Disclaimer: "made up",
			}, nil)

		res, err := service.AnalyzeBloodReport(context.Background(), entities.BloodReportInput{ReportDataURI: uri})
		require.NoError(t, err)
		assert.Equal(t, entities.SeverityModerate, res.Severity)
		assert.Equal(t, entities.FindingLow, res.KeyFindings[0].Finding)
		assert.Equal(t, entities.FindingAbnormal, res.KeyFindings[1].Finding)
		assert.Equal(t, entities.ReportDisclaimer, res.Disclaimer)
		assert.NotNil(t, res.SuggestedPrecautions)
	})

	t.Run("empty summary", func(t *testing.T) {
		provider := new(MockAssistantProvider)
		service := services.NewAssistantService(provider, nil, nil)
		provider.On("AnalyzeBloodReport", mock.Anything, mock.Anything).Return(&entities.BloodReportAnalysis{Summary: "  "}, nil)

		_, err := service.AnalyzeBloodReport(context.Background(), entities.BloodReportInput{ReportDataURI: "data:text/plain,hb%2011"})
		requireAppError(t, err, apperrors.ErrorTypeExternal, services.MsgNoAnalysis)
	})
}

func TestAssistantService_Search(t *testing.T) {
	provider := new(MockAssistantProvider)
	service := services.NewAssistantService(provider, nil, nil)

	provider.On("Search", mock.Anything, "chest pain").Return(&entities.AISearchResult{
		Summary: "Call emergency services now.",
		SuggestedLinks: []entities.SuggestedLink{
			{Title: "External", Href: "https://example.com"},
			{Title: "Symptoms", Href: "/symptoms"},
			{Title: "Symptoms again", Href: "/symptoms"},
			{Title: "Doctors", Href: "/doctors"},
			{Title: "Hospitals", Href: " /hospitals "},
			{Title: "Medicines", Href: "/medicines"},
		},
		Disclaimer: "",
	}, nil)

	res, err := service.Search(context.Background(), entities.AISearchInput{Query: "chest pain"})
	require.NoError(t, err)
	assert.Equal(t, entities.SearchDisclaimer, res.Disclaimer)
	require.Len(t, res.SuggestedLinks, entities.MaxSuggestedLinks)
	hrefs := make([]string, 0, len(res.SuggestedLinks))
	for _, l := range res.SuggestedLinks {
		hrefs = append(hrefs, l.Href)
	}
	assert.Equal(t, "/symptoms,/doctors,/hospitals", strings.Join(hrefs, ","))

	provider2 := new(MockAssistantProvider)
	provider2.On("Search", mock.Anything, mock.Anything).Return(&entities.AISearchResult{}, nil)
	_, err = services.NewAssistantService(provider2, nil, nil).Search(context.Background(), entities.AISearchInput{Query: "x"})
	requireAppError(t, err, apperrors.ErrorTypeExternal, services.MsgNoSearch)
}

func TestAssistantService_ExportBloodReportPDF(t *testing.T) {
	analysis := &entities.BloodReportAnalysis{Summary: "Fine.", Severity: entities.SeverityNormal}

	t.Run("renders", func(t *testing.T) {
		renderer := new(MockRenderer)
		service := services.NewAssistantService(new(MockAssistantProvider), renderer, nil)
		renderer.On("BloodReport", mock.MatchedBy(func(a *entities.BloodReportAnalysis) bool {
			return a.Disclaimer == entities.ReportDisclaimer
		})).Return([]byte("%PDF-1.4"), nil)

		pdf, err := service.ExportBloodReportPDF(context.Background(), analysis)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), pdf)
	})

	t.Run("missing analysis", func(t *testing.T) {
		service := services.NewAssistantService(new(MockAssistantProvider), new(MockRenderer), nil)
		_, err := service.ExportBloodReportPDF(context.Background(), &entities.BloodReportAnalysis{})
		requireAppError(t, err, apperrors.ErrorTypeValidation, services.MsgNoAnalysisToPDF)
	})

	t.Run("no font installed", func(t *testing.T) {
		renderer := new(MockRenderer)
		service := services.NewAssistantService(new(MockAssistantProvider), renderer, nil)
		renderer.On("BloodReport", mock.Anything).Return(nil, report.ErrNoFont)

		_, err := service.ExportBloodReportPDF(context.Background(), analysis)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	})

	t.Run("no renderer", func(t *testing.T) {
		service := services.NewAssistantService(new(MockAssistantProvider), nil, nil)
		_, err := service.ExportBloodReportPDF(context.Background(), analysis)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
	})
}
