package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngocdv/vanban/internal/chunk"
	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/doctree"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the vector collection from the registry",
	Long: `Index re-embeds and re-indexes every parsed document in the
registry from its stored JSON output. Useful after switching the
embedding model, changing the collection or pointing at a fresh
Qdrant instance.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := config.Load()
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for indexing")
	}

	ctx := cmd.Context()

	db, docs, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stack, err := buildVectorStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Close()

	records, err := docs.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("registry is empty, run parse first")
		return nil
	}

	var indexed, failed int
	for _, rec := range records {
		data, err := os.ReadFile(rec.JSONPath)
		if err != nil {
			log.Error("read parse output failed", "file", rec.SourceFile, "error", err)
			failed++
			continue
		}
		var doc doctree.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			log.Error("decode parse output failed", "file", rec.SourceFile, "error", err)
			failed++
			continue
		}

		chunks := chunk.Refine(chunk.Flatten(&doc), cfg.ChunkRuneLimit, nil)
		n, err := stack.indexer.ReplaceDocument(ctx, rec.SourceFile, chunks)
		if err != nil {
			log.Error("indexing failed", "file", rec.SourceFile, "error", err)
			failed++
			continue
		}
		indexed += n
		log.Info("document indexed", "file", rec.SourceFile, "chunks", n)
	}

	fmt.Printf("indexed %d chunks from %d documents\n", indexed, len(records)-failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed to index", failed, len(records))
	}
	return nil
}
