package llm

import (
	"fmt"
	"strings"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

// Flow names one of the assistant prompt flows.
type Flow string

const (
	FlowSymptoms    Flow = "symptoms"
	FlowBloodReport Flow = "blood_report"
	FlowSearch      Flow = "ai_search"
)

// SymptomsSystemPrompt instructs the model for the symptom checker.
var SymptomsSystemPrompt = `You are a careful medical information assistant. Given a free-text description of symptoms, list between one and five possible medical conditions that could explain them, most likely first.
For every condition give a short name and a description of two or three plain-language sentences explaining the condition and why it fits the symptoms.
Every description MUST end with exactly this sentence: "` + entities.ConditionDisclaimer + `"
If the symptoms suggest an emergency (for example chest pain, difficulty breathing, stroke signs or heavy bleeding) the first condition's description must tell the user to contact emergency services immediately.
Respond with JSON only, shaped as {"conditions":[{"name":string,"description":string}]}.`

// BloodReportSystemPrompt instructs the model for the blood report analyzer.
var BloodReportSystemPrompt = `You are an assistant that explains blood test reports to patients in plain language.
Read the attached report and respond with JSON only, shaped as:
{"summary":string,"severity":one of ` + quotedList(severityStrings()) + `,"keyFindings":[{"test":string,"value":string,"interpretation":string,"finding":one of ` + quotedList(findingStrings()) + `}],"suggestedPrecautions":[string],"disclaimer":string}
The summary is two to four sentences describing the overall picture. Severity grades the report as a whole.
List only results that are outside or close to the reference range in keyFindings, each with the value and units exactly as printed.
suggestedPrecautions are general lifestyle or follow-up suggestions, never prescriptions or dosages.
Set disclaimer to: "` + entities.ReportDisclaimer + `"
If the file is not a blood test report, say so in the summary, use severity "Normal" and leave keyFindings empty.`

// SearchSystemPrompt instructs the model for the free-text assistant search.
var SearchSystemPrompt = `You are the search assistant of MediSearch Pro, a medical information app. Answer the user's health question in a short, factual summary of at most five sentences.
Then suggest up to three pages of the app that help the user continue, choosing only from this list:
` + pageList() + `
If the question describes an emergency, the summary must start by telling the user to contact their local emergency services immediately.
Never diagnose and never recommend prescription doses.
Respond with JSON only, shaped as {"summary":string,"suggestedLinks":[{"title":string,"href":string,"relevance":string}],"disclaimer":string}.
Set disclaimer to: "` + entities.SearchDisclaimer + `"`

// SymptomsUserPrompt renders the user turn of the symptom checker.
func SymptomsUserPrompt(symptoms string) string {
	return fmt.Sprintf("Symptoms: %s", strings.TrimSpace(symptoms))
}

// BloodReportUserPrompt is the text that accompanies the attached report.
func BloodReportUserPrompt() string {
	return "Analyze the attached blood test report."
}

// SearchUserPrompt renders the user turn of the assistant search.
func SearchUserPrompt(query string) string {
	return fmt.Sprintf("Question: %s", strings.TrimSpace(query))
}

// SystemPrompt returns the system prompt for a flow.
func SystemPrompt(flow Flow) string {
	switch flow {
	case FlowSymptoms:
		return SymptomsSystemPrompt
	case FlowBloodReport:
		return BloodReportSystemPrompt
	default:
		return SearchSystemPrompt
	}
}

func pageList() string {
	var b strings.Builder
	for _, p := range entities.AppPages {
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.Href, p.Title, p.Relevance)
	}
	return strings.TrimRight(b.String(), "\n")
}

func severityStrings() []string {
	out := make([]string, len(entities.Severities))
	for i, s := range entities.Severities {
		out[i] = string(s)
	}
	return out
}

func findingStrings() []string {
	out := make([]string, len(entities.FindingFlags))
	for i, f := range entities.FindingFlags {
		out[i] = string(f)
	}
	return out
}

func quotedList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + s + `"`
	}
	return "[" + strings.Join(quoted, ",") + "]"
}
