package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/medisearch-pro/backend/internal/domain/entities"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8f98"))
	badgeStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#ffffff"))
)

var severityColors = map[entities.Severity]lipgloss.Color{
	entities.SeverityNormal:   lipgloss.Color("#43a047"),
	entities.SeverityMild:     lipgloss.Color("#7cb342"),
	entities.SeverityModerate: lipgloss.Color("#fb8c00"),
	entities.SeveritySevere:   lipgloss.Color("#e53935"),
	entities.SeverityCritical: lipgloss.Color("#8e24aa"),
}

func severityBadge(s entities.Severity) string {
	color, ok := severityColors[s]
	if !ok {
		return ""
	}
	return badgeStyle.Background(color).Render("Severity: " + string(s))
}

func renderMarkdown(md string, plain bool, wrap int) (string, error) {
	if plain {
		return md, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}

func symptomsMarkdown(res *entities.SymptomSuggestion) string {
	var b strings.Builder
	b.WriteString("# Possible conditions\n\n")
	if len(res.Conditions) == 0 {
		b.WriteString("_No conditions suggested._\n")
		return b.String()
	}
	for _, c := range res.Conditions {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", c.Name, c.Description)
	}
	return b.String()
}

func reportMarkdown(res *entities.BloodReportAnalysis) string {
	var b strings.Builder
	b.WriteString("# Blood report analysis\n\n")
	fmt.Fprintf(&b, "%s\n\n", res.Summary)

	if len(res.KeyFindings) > 0 {
		b.WriteString("## Key findings\n\n| Test | Value | Finding | Interpretation |\n|---|---|---|---|\n")
		for _, f := range res.KeyFindings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(f.Test), cell(f.Value), f.Finding, cell(f.Interpretation))
		}
		b.WriteString("\n")
	}
	if len(res.SuggestedPrecautions) > 0 {
		b.WriteString("## Suggested precautions\n\n")
		for _, p := range res.SuggestedPrecautions {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}
	if res.Disclaimer != "" {
		fmt.Fprintf(&b, "> %s\n", res.Disclaimer)
	}
	return b.String()
}

func searchMarkdown(res *entities.AISearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", res.Summary)
	if len(res.SuggestedLinks) > 0 {
		b.WriteString("## See also\n\n")
		for _, l := range res.SuggestedLinks {
			fmt.Fprintf(&b, "- **%s** (`%s`): %s\n", l.Title, l.Href, l.Relevance)
		}
		b.WriteString("\n")
	}
	if res.Disclaimer != "" {
		fmt.Fprintf(&b, "> %s\n", res.Disclaimer)
	}
	return b.String()
}

// cell keeps a value from breaking the markdown table.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
