package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/medisearch-pro/backend/internal/application/services"
	"github.com/medisearch-pro/backend/internal/domain/entities"
	"github.com/medisearch-pro/backend/pkg/utils"
)

var pdfOutput string

var symptomsCmd = &cobra.Command{
	Use:   "symptoms [description]",
	Short: "Suggest possible conditions for a description of symptoms",
	Long: `Suggests possible conditions for free-text symptoms.

Example:
  medisearch symptoms "dry cough and mild fever for three days"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := entities.SymptomInput{Symptoms: strings.Join(args, " ")}
		return withService(cmd, func(ctx context.Context, svc *services.AssistantService) error {
			res, err := svc.SuggestConditions(ctx, input)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), res, symptomsMarkdown(res), "")
		})
	},
}

var analyzeReportCmd = &cobra.Command{
	Use:   "analyze-report <file>",
	Short: "Analyze a blood test report (PDF or image)",
	Long: `Reads a report file, sends it to the model as a data URI and prints
the analysis. Use --pdf to also write the analysis as a PDF.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read report: %w", err)
		}
		input := entities.BloodReportInput{
			ReportDataURI: utils.EncodeDataURI(utils.MIMETypeForFile(args[0]), raw),
		}
		return withService(cmd, func(ctx context.Context, svc *services.AssistantService) error {
			res, err := svc.AnalyzeBloodReport(ctx, input)
			if err != nil {
				return err
			}
			if err := output(cmd.OutOrStdout(), res, reportMarkdown(res), severityBadge(res.Severity)); err != nil {
				return err
			}
			if pdfOutput == "" {
				return nil
			}
			return writePDF(ctx, svc, res, pdfOutput)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Ask the assistant a general health question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := entities.AISearchInput{Query: strings.Join(args, " ")}
		return withService(cmd, func(ctx context.Context, svc *services.AssistantService) error {
			res, err := svc.Search(ctx, input)
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), res, searchMarkdown(res), "")
		})
	},
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <analysis.json>",
	Short: "Render a saved analysis (from analyze-report --json) to PDF",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read analysis: %w", err)
		}
		var analysis entities.BloodReportAnalysis
		if err := json.Unmarshal(raw, &analysis); err != nil {
			return fmt.Errorf("decode analysis: %w", err)
		}
		out := pdfOutput
		if out == "" {
			out = "blood-report-analysis.pdf"
		}
		return withService(cmd, func(ctx context.Context, svc *services.AssistantService) error {
			return writePDF(ctx, svc, &analysis, out)
		})
	},
}

func init() {
	analyzeReportCmd.Flags().StringVar(&pdfOutput, "pdf", "", "also write the analysis to this PDF file")
	pdfCmd.Flags().StringVarP(&pdfOutput, "output", "o", "", "PDF file to write (default blood-report-analysis.pdf)")
}

func writePDF(ctx context.Context, svc *services.AssistantService, analysis *entities.BloodReportAnalysis, path string) error {
	doc, err := svc.ExportBloodReportPDF(ctx, analysis)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	fmt.Fprintln(os.Stderr, mutedStyle.Render("PDF written to "+path))
	return nil
}

// output prints v as JSON with --json, otherwise the rendered markdown
// under an optional header line.
func output(w io.Writer, v interface{}, markdown, header string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if header != "" {
		fmt.Fprintln(w, header)
	}
	rendered, err := renderMarkdown(markdown, plain, width)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, rendered)
	return err
}
