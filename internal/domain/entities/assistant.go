package entities

import "strings"

// Fixed texts attached to every assistant answer. The model is asked to
// produce them but the service always overwrites or appends them.
const (
	SearchDisclaimer = "This is for informational purposes only and not a substitute for professional medical advice, diagnosis, or treatment. ALWAYS consult with a qualified healthcare provider for any health concerns or before making any decisions related to your health."

	ReportDisclaimer = "This is an AI-generated analysis and is for informational purposes only. It is NOT a substitute for professional medical advice, diagnosis, or treatment. ALWAYS consult with a qualified healthcare provider for any health concerns or before making any decisions related to your health."

	ConditionDisclaimer = "This is for informational purposes and not a substitute for professional medical advice. Consult a healthcare provider for any health concerns."
)

// MaxSuggestedLinks caps the links returned by an AI search.
const MaxSuggestedLinks = 3

// SymptomInput is the request of the symptom checker.
type SymptomInput struct {
	Symptoms string `json:"symptoms"`
}

// Condition is one possible explanation for a set of symptoms.
type Condition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SymptomSuggestion is the symptom checker answer.
type SymptomSuggestion struct {
	Conditions []Condition `json:"conditions"`
}

// Severity grades a whole blood report.
type Severity string

const (
	SeverityNormal   Severity = "Normal"
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
	SeverityCritical Severity = "Critical"
)

// Severities lists the accepted severity values in ascending order.
var Severities = []Severity{SeverityNormal, SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical}

// ParseSeverity matches s case-insensitively against the known values.
func ParseSeverity(s string) (Severity, bool) {
	for _, v := range Severities {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, true
		}
	}
	return "", false
}

// FindingFlag classifies a single lab value.
type FindingFlag string

const (
	FindingNormal     FindingFlag = "Normal"
	FindingLow        FindingFlag = "Low"
	FindingHigh       FindingFlag = "High"
	FindingBorderline FindingFlag = "Borderline"
	FindingAbnormal   FindingFlag = "Abnormal"
)

// FindingFlags lists the accepted finding values.
var FindingFlags = []FindingFlag{FindingNormal, FindingLow, FindingHigh, FindingBorderline, FindingAbnormal}

// ParseFindingFlag matches s case-insensitively against the known values.
func ParseFindingFlag(s string) (FindingFlag, bool) {
	for _, v := range FindingFlags {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, true
		}
	}
	return "", false
}

// BloodReportInput carries the uploaded report as a data URI.
type BloodReportInput struct {
	ReportDataURI string `json:"reportDataUri"`
}

// KeyFinding is one notable lab result.
type KeyFinding struct {
	Test           string      `json:"test"`
	Value          string      `json:"value"`
	Interpretation string      `json:"interpretation"`
	Finding        FindingFlag `json:"finding"`
}

// BloodReportAnalysis is the blood report analyzer answer.
type BloodReportAnalysis struct {
	Summary              string       `json:"summary"`
	Severity             Severity     `json:"severity"`
	KeyFindings          []KeyFinding `json:"keyFindings"`
	SuggestedPrecautions []string     `json:"suggestedPrecautions"`
	Disclaimer           string       `json:"disclaimer"`
}

// AISearchInput is the request of the free-text assistant search.
type AISearchInput struct {
	Query string `json:"query"`
}

// SuggestedLink points at a page of the app.
type SuggestedLink struct {
	Title     string `json:"title"`
	Href      string `json:"href"`
	Relevance string `json:"relevance"`
}

// AISearchResult is the assistant search answer.
type AISearchResult struct {
	Summary        string          `json:"summary"`
	SuggestedLinks []SuggestedLink `json:"suggestedLinks"`
	Disclaimer     string          `json:"disclaimer"`
}

// AppPages are the in-app routes the assistant may link to.
var AppPages = []SuggestedLink{
	{Title: "Medicines", Href: "/medicines", Relevance: "Information about specific medications, their uses and side effects."},
	{Title: "Symptom Checker", Href: "/symptoms", Relevance: "Check symptoms and see possible conditions."},
	{Title: "Doctors", Href: "/doctors", Relevance: "Find doctors by specialty or location."},
	{Title: "Hospitals", Href: "/hospitals", Relevance: "Find hospitals and their services."},
	{Title: "Blood Report Analyzer", Href: "/summarizer", Relevance: "Upload a blood test report for a plain-language analysis."},
}

// IsAppPage reports whether href is one of AppPages.
func IsAppPage(href string) bool {
	for _, p := range AppPages {
		if p.Href == href {
			return true
		}
	}
	return false
}
