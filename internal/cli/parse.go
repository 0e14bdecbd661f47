package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngocdv/vanban/internal/config"
	"github.com/ngocdv/vanban/internal/index"
	"github.com/ngocdv/vanban/internal/pipeline"
)

var (
	parseOutput      string
	parseIndex       bool
	parseConcurrency int
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse [input-dir]",
	Short: "Parse every document under a directory",
	Long: `Parse walks the input directory, extracts text from every
supported file (PDF, DOCX, Markdown, HTML, plain text), builds the
document tree and writes per-document JSON plus a combined corpus and
a JSONL chunk file to the output directory.

Unchanged files (by content hash) are skipped; their stored parse
output still contributes to the corpus artifacts.

Example:
  vanban parse ./data
  vanban parse ./data --output ./out --concurrency 8
  vanban parse ./data --index`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseOutput, "output", "", "output directory (default: OUTPUT_DIR)")
	parseCmd.Flags().BoolVar(&parseIndex, "index", false, "embed and index chunks after parsing")
	parseCmd.Flags().IntVar(&parseConcurrency, "concurrency", 0, "parallel workers (default: WORKER_COUNT)")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg := config.Load()
	if len(args) == 1 {
		cfg.InputDir = args[0]
	}
	if parseOutput != "" {
		cfg.OutputDir = parseOutput
	}
	if parseConcurrency > 0 {
		cfg.WorkerCount = parseConcurrency
	}
	if parseIndex {
		cfg.IndexEnabled = true
	}

	ctx := cmd.Context()

	db, docs, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var indexer *index.Indexer
	if cfg.IndexEnabled {
		if cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for indexing")
		}
		stack, err := buildVectorStack(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stack.Close()
		indexer = stack.indexer
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
	runner := pipeline.NewRunner(worker, cfg.WorkerCount, log)

	summary, err := runner.Run(ctx, cfg.InputDir)
	if err != nil {
		return fmt.Errorf("batch parse: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
