package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storelens/storelens/internal/analysis"
	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/internal/logger"
	"github.com/storelens/storelens/internal/output"
	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/pkg/insight"
	"github.com/storelens/storelens/pkg/scrape"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Analyze a brand's storefront",
	Long: `Scrape a brand's website, extract its public facts and, on Shopify
stores, collect the full product catalog. With an LLM API key configured
the report also carries generated brand and catalog insights.

Examples:
  # Basic analysis
  storelens analyze allbirds.com

  # Competitor comparison, YAML report to a file
  storelens analyze allbirds.com --competitors --format yaml -o report.yaml

  # Pin the LLM provider and model
  storelens analyze allbirds.com -p anthropic -m claude-3-5-haiku-20241022`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()

	// LLM settings
	flags.StringP("provider", "p", "", "LLM provider: openai, anthropic (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")

	// Output settings
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, yaml")

	// Analysis settings
	flags.Bool("competitors", false, "include competitor comparison")
	flags.Duration("timeout", 30*time.Second, "per-request timeout")
	flags.Int("max-retries", 3, "max fetch retries")
	flags.Duration("page-delay", 500*time.Millisecond, "delay between catalog pages")
	flags.IntP("concurrency", "c", 3, "concurrent competitor scrapes")

	// Bind to viper
	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("max_retries", flags.Lookup("max-retries"))
	_ = viper.BindPFlag("page_delay", flags.Lookup("page-delay"))
	_ = viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logError("invalid configuration: %v", err)
		return err
	}

	includeCompetitors, _ := cmd.Flags().GetBool("competitors")

	orchestrator := analysis.NewOrchestrator(analysis.Config{
		Store:       store.NewMemory(),
		Analyzer:    scrape.NewAnalyzer(scrape.AnalyzerConfig{Client: cfg.ClientConfig(), PageDelay: cfg.PageDelay}),
		Processor:   insight.NewProcessor(buildProvider(cfg)),
		Concurrency: cfg.Concurrency,
	})

	logInfo("Analyzing %s ...", args[0])

	run, err := orchestrator.AnalyzeBrand(ctx, args[0], includeCompetitors)
	if err != nil {
		logError("analysis failed: %v", err)
		return err
	}

	// Setup output
	outFile := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logError("failed to create output file %s: %v", outPath, err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	formatStr, _ := cmd.Flags().GetString("format")
	writer, err := output.NewWriter(outFile, output.Format(formatStr))
	if err != nil {
		logError("%v", err)
		return err
	}

	if err := writer.Write(run); err != nil {
		logError("failed to write report: %v", err)
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if run.Status == store.StatusFailed {
		logInfo("Analysis finished with status %q", run.Status)
	}
	return nil
}

// buildProvider creates the configured LLM provider, or nil when no
// usable credentials are present. Enrichment is best effort so a
// missing or broken provider never fails the command.
func buildProvider(cfg config.Config) insight.Provider {
	if cfg.Provider == "" || cfg.APIKey == "" {
		logger.Debug("no LLM provider configured, skipping enrichment")
		return nil
	}
	provider, err := insight.NewProvider(cfg.Provider, cfg.ProviderConfig())
	if err != nil {
		logger.Warn("LLM provider unavailable", "provider", cfg.Provider, "error", err)
		return nil
	}
	logger.Debug("LLM provider ready", "provider", provider.Name(), "model", provider.Model())
	return provider
}
