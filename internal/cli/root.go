// Package cli implements the vanban command line interface.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngocdv/vanban/internal/classify"
	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/embed"
	"github.com/ngocdv/vanban/internal/index"
	"github.com/ngocdv/vanban/internal/meta"
	"github.com/ngocdv/vanban/internal/store"
	"github.com/ngocdv/vanban/internal/vectorstore"
)

var version = "0.1.0"

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vanban",
	Short: "Parse Vietnamese legal documents into structured, searchable chunks",
	Long: `vanban parses Vietnamese legal and administrative documents
(chỉ thị, nghị định, thông tư, quyết định) into a structured tree of
chapters, sections, clauses and points, then flattens that tree into
retrieval-ready chunks.

Parsed documents are registered in a local SQLite catalog. Chunks can
be embedded and indexed into Qdrant for semantic search, either from
the command line or through the HTTP API.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vanban v" + version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger. Logs go to stderr so stdout
// stays clean for command output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openRegistry opens the document catalog and applies migrations. The
// caller owns the returned handle.
func openRegistry(cfg config.Config) (*sql.DB, store.DocumentStore, error) {
	db, err := store.Open(cfg.RegistryPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate registry: %w", err)
	}
	return db, store.NewDocumentRepo(db), nil
}

// loadGrammars builds the classification rules and the per-type
// grammar registry, applying the override file when configured.
func loadGrammars(cfg config.Config) (*classify.RuleSet, *classify.Registry, error) {
	rules := classify.DefaultRules()
	registry := classify.DefaultRegistry()
	if cfg.GrammarOverrides != "" {
		if err := registry.ApplyOverridesFile(cfg.GrammarOverrides); err != nil {
			return nil, nil, fmt.Errorf("grammar overrides: %w", err)
		}
	}
	return rules, registry, nil
}

// loadEffectiveDates loads the effective date registry when
// configured; nil means no registry.
func loadEffectiveDates(cfg config.Config) (*meta.EffectiveDates, error) {
	if cfg.EffectiveDatesPath == "" {
		return nil, nil
	}
	dates, err := meta.LoadEffectiveDates(cfg.EffectiveDatesPath)
	if err != nil {
		return nil, fmt.Errorf("effective dates: %w", err)
	}
	return dates, nil
}

// vectorStack bundles the embeddings client, the vector store and the
// indexer built on top of them.
type vectorStack struct {
	embedder *embed.OpenAIEmbedder
	vectors  *vectorstore.QdrantIndex
	indexer  *index.Indexer
}

func (v *vectorStack) Close() {
	v.vectors.Close()
}

// buildVectorStack wires the embeddings client and Qdrant, then makes
// sure the chunk collection exists.
func buildVectorStack(ctx context.Context, cfg config.Config, log *slog.Logger) (*vectorStack, error) {
	embedder, err := embed.NewOpenAIEmbedder(embed.Config{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.EmbedModel,
		Dimension: cfg.EmbedDimension,
		RPS:       cfg.EmbedRPS,
		Burst:     cfg.EmbedBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings client: %w", err)
	}

	vectors, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantAPIKey, log)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}

	ix := index.New(embedder, vectors, index.Config{
		Collection: cfg.Collection,
		BatchSize:  cfg.IndexBatchSize,
	}, log)
	if err := ix.EnsureReady(ctx); err != nil {
		vectors.Close()
		return nil, fmt.Errorf("prepare collection: %w", err)
	}

	return &vectorStack{embedder: embedder, vectors: vectors, indexer: ix}, nil
}
