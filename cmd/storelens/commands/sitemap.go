package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/pkg/scrape"
)

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <url>",
	Short: "List a site's sitemap URLs",
	Long: `Walk a site's sitemap.xml (including sitemap indexes) and print the
page URLs it declares, one per line. Useful for checking what a brand
exposes before running a full analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: runSitemap,
}

func init() {
	rootCmd.AddCommand(sitemapCmd)
}

func runSitemap(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logError("invalid configuration: %v", err)
		return err
	}

	analyzer := scrape.NewAnalyzer(scrape.AnalyzerConfig{Client: cfg.ClientConfig(), PageDelay: cfg.PageDelay})

	urls, err := analyzer.SitemapURLs(ctx, args[0])
	if err != nil {
		logError("sitemap walk failed: %v", err)
		return err
	}

	for _, u := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), u)
	}
	logInfo("Found %d URLs", len(urls))
	return nil
}
