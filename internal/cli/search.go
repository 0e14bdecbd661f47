package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/embed"
	"github.com/ngocdv/vanban/internal/retrieve"
	"github.com/ngocdv/vanban/internal/vectorstore"
)

var (
	searchTopK   int
	searchSource string
	searchJSON   bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over the indexed corpus",
	Long: `Search embeds the query and returns the nearest chunks from
the vector collection, with their document and location metadata.

Example:
  vanban search "phạm vi điều chỉnh của nghị định"
  vanban search "trách nhiệm của bộ trưởng" --top-k 10
  vanban search "hiệu lực thi hành" --source nghi-dinh-42.pdf --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "number of hits (default: SEARCH_TOP_K)")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "restrict hits to one source file")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print hits as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := config.Load()
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for search")
	}

	embedder, err := embed.NewOpenAIEmbedder(embed.Config{
		APIKey:    cfg.OpenAIAPIKey,
		BaseURL:   cfg.OpenAIBaseURL,
		Model:     cfg.EmbedModel,
		Dimension: cfg.EmbedDimension,
		RPS:       cfg.EmbedRPS,
		Burst:     cfg.EmbedBurst,
	})
	if err != nil {
		return fmt.Errorf("embeddings client: %w", err)
	}

	vectors, err := vectorstore.NewQdrantIndex(cfg.QdrantURL, cfg.QdrantAPIKey, log)
	if err != nil {
		return fmt.Errorf("vector store: %w", err)
	}
	defer vectors.Close()

	searcher := retrieve.NewSearcher(embedder, vectors, retrieve.Config{
		Collection: cfg.Collection,
		TopK:       cfg.SearchTopK,
		CacheTTL:   cfg.SearchCacheTTL,
	}, log)

	hits, err := searcher.Search(cmd.Context(), retrieve.Query{
		Text:   args[0],
		TopK:   searchTopK,
		Source: searchSource,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if searchJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Println("no results")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%d. [%.3f] %s (%s)\n", i+1, h.Score, h.Source, h.Location)
		fmt.Printf("   %s\n", h.Content)
	}
	return nil
}
