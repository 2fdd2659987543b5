// Command medisearch runs the assistant flows from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/medisearch-pro/backend/internal/adapters/assistant"
	"github.com/medisearch-pro/backend/internal/application/services"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/internal/infrastructure/report"
	"github.com/medisearch-pro/backend/pkg/config"
)

var (
	providerName string
	timeout      time.Duration
	asJSON       bool
	plain        bool
	width        int
)

var rootCmd = &cobra.Command{
	Use:   "medisearch",
	Short: "MediSearch Pro assistant from the command line",
	Long: `Runs the symptom checker, blood report analyzer and assistant search
against the configured LLM provider. Configuration is read from the same
environment variables (and .env file) as the API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "LLM provider: gemini or openai (default from AI_PROVIDER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for one command")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print the raw JSON answer")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print markdown without terminal styling")
	rootCmd.PersistentFlags().IntVar(&width, "width", 100, "word wrap width")

	rootCmd.AddCommand(symptomsCmd, analyzeReportCmd, searchCmd, pdfCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// newService builds the assistant service from the environment. The
// returned func releases the provider.
func newService(ctx context.Context) (*services.AssistantService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout carries the answer
	observability.InitLoggerTo(os.Stderr, "medisearch-cli", cfg.Env)

	if providerName != "" {
		cfg.AI.Provider = providerName
	}
	provider, err := assistant.NewFromConfig(ctx, &cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("assistant provider: %w", err)
	}
	return services.NewAssistantService(provider, report.NewRenderer(cfg.Report.FontPaths), nil), nil
}

// withService runs fn with a service and a context bounded by --timeout.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *services.AssistantService) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}
