package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ngocdv/vanban/internal/api"
	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/index"
	"github.com/ngocdv/vanban/internal/pipeline"
	"github.com/ngocdv/vanban/internal/retrieve"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingestion and search API",
	Long: `Serve starts the HTTP API: document upload with async parse
jobs, job polling, the parsed document catalog and semantic search.

Search requires INDEX_ENABLED=true plus an embeddings API key and a
reachable Qdrant instance; without it the search endpoint reports the
feature as unavailable.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, docs, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var (
		indexer  *index.Indexer
		searcher *retrieve.Searcher
	)
	if cfg.IndexEnabled {
		stack, err := buildVectorStack(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stack.Close()
		indexer = stack.indexer
		searcher = retrieve.NewSearcher(stack.embedder, stack.vectors, retrieve.Config{
			Collection: cfg.Collection,
			TopK:       cfg.SearchTopK,
			CacheTTL:   cfg.SearchCacheTTL,
		}, log)
	}

	rules, grammars, err := loadGrammars(cfg)
	if err != nil {
		return err
	}
	effective, err := loadEffectiveDates(cfg)
	if err != nil {
		return err
	}

	worker := pipeline.NewWorker(rules, grammars, effective, docs, indexer, log, cfg)
	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, docs, searcher, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting vanban API", "port", cfg.Port, "indexing", cfg.IndexEnabled)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
