package gemini

import (
	"google.golang.org/genai"

	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/llm"
)

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

// ResponseSchema returns the structured output schema of a flow.
func ResponseSchema(flow llm.Flow) *genai.Schema {
	switch flow {
	case llm.FlowSymptoms:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"conditions": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name":        str("Name of the possible condition."),
							"description": str("Short plain-language description ending with the required disclaimer sentence."),
						},
						Required: []string{"name", "description"},
					},
				},
			},
			Required: []string{"conditions"},
		}

	case llm.FlowBloodReport:
		severities := make([]string, len(entities.Severities))
		for i, s := range entities.Severities {
			severities[i] = string(s)
		}
		flags := make([]string, len(entities.FindingFlags))
		for i, f := range entities.FindingFlags {
			flags[i] = string(f)
		}
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary":  str("Overall summary of the report."),
				"severity": {Type: genai.TypeString, Enum: severities},
				"keyFindings": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"test":           str("Name of the test."),
							"value":          str("Value with units as printed."),
							"interpretation": str("What the value means."),
							"finding":        {Type: genai.TypeString, Enum: flags},
						},
						Required: []string{"test", "value", "interpretation", "finding"},
					},
				},
				"suggestedPrecautions": {Type: genai.TypeArray, Items: str("")},
				"disclaimer":           str("The fixed disclaimer."),
			},
			Required: []string{"summary", "severity", "keyFindings", "suggestedPrecautions", "disclaimer"},
		}

	default:
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": str("Short factual answer."),
				"suggestedLinks": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"title":     str("Page title."),
							"href":      str("Relative app path."),
							"relevance": str("Why the page helps."),
						},
						Required: []string{"title", "href", "relevance"},
					},
				},
				"disclaimer": str("The fixed disclaimer."),
			},
			Required: []string{"summary", "suggestedLinks", "disclaimer"},
		}
	}
}
