package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storelens/storelens/internal/analysis"
	"github.com/storelens/storelens/internal/api"
	"github.com/storelens/storelens/internal/config"
	"github.com/storelens/storelens/internal/logger"
	"github.com/storelens/storelens/internal/store"
	"github.com/storelens/storelens/pkg/insight"
	"github.com/storelens/storelens/pkg/scrape"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the brand analysis HTTP API",
	Long: `Start the HTTP API for submitting brand analyses and reading results.

With --database-url (or DATABASE_URL) results persist in Postgres;
without it the server keeps everything in memory.

Endpoints:
  POST   /api/analyze     submit a website for analysis
  GET    /api/brands      list analyzed brands
  GET    /api/brand/:id   full analysis for one brand
  DELETE /api/brand/:id   remove a brand and its data
  GET    /api/health      health check`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("listen", ":8080", "listen address")
	flags.String("database-url", "", "Postgres DSN (default: in-memory store)")

	_ = viper.BindPFlag("listen", flags.Lookup("listen"))
	_ = viper.BindPFlag("database_url", flags.Lookup("database-url"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logError("invalid configuration: %v", err)
		return err
	}

	st, err := buildStore(ctx, cfg)
	if err != nil {
		logError("store setup failed: %v", err)
		return err
	}

	orchestrator := analysis.NewOrchestrator(analysis.Config{
		Store:       st,
		Analyzer:    scrape.NewAnalyzer(scrape.AnalyzerConfig{Client: cfg.ClientConfig(), PageDelay: cfg.PageDelay}),
		Processor:   insight.NewProcessor(buildProvider(cfg)),
		Concurrency: cfg.Concurrency,
	})

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewServer(orchestrator, st).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logError("server failed: %v", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory store")
		return store.NewMemory(), nil
	}

	pg, err := store.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		return nil, err
	}
	logger.Info("using postgres store")
	return pg, nil
}
