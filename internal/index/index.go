// Package index feeds refined chunks into the vector store: embed in
// batches, upsert with the chunk fields as payload.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ngocdv/vanban/internal/chunk"
	"github.com/ngocdv/vanban/internal/embed"
	"github.com/ngocdv/vanban/internal/vectorstore"
)

const (
	defaultCollection = "vanban_chunks"
	defaultBatchSize  = 64
)

// Config controls the indexing pipeline.
type Config struct {
	Collection string
	BatchSize  int
}

// Indexer embeds chunk contents and upserts the vectors.
type Indexer struct {
	embedder   embed.Embedder
	vectors    vectorstore.VectorIndex
	collection string
	batchSize  int
	logger     *slog.Logger
}

// New creates an Indexer.
func New(embedder embed.Embedder, vectors vectorstore.VectorIndex, cfg Config, logger *slog.Logger) *Indexer {
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Indexer{
		embedder:   embedder,
		vectors:    vectors,
		collection: cfg.Collection,
		batchSize:  cfg.BatchSize,
		logger:     logger,
	}
}

// Collection returns the collection name the indexer writes to.
func (ix *Indexer) Collection() string {
	return ix.collection
}

// EnsureReady creates or validates the chunk collection against the
// embedder's vector size.
func (ix *Indexer) EnsureReady(ctx context.Context) error {
	return ix.vectors.EnsureCollection(ctx, ix.collection, ix.embedder.Dimension())
}

// IndexChunks embeds and upserts chunks in batches, returning how
// many were indexed before any failure.
func (ix *Indexer) IndexChunks(ctx context.Context, chunks []chunk.Chunk) (int, error) {
	for start := 0; start < len(chunks); start += ix.batchSize {
		select {
		case <-ctx.Done():
			return start, ctx.Err()
		default:
		}

		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vectors, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return start, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return start, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}

		points := make([]vectorstore.Point, len(batch))
		for i, c := range batch {
			points[i] = vectorstore.Point{
				ID:      c.ID,
				Vector:  vectors[i],
				Payload: payload(c),
			}
		}

		if err := ix.vectors.Upsert(ctx, ix.collection, points); err != nil {
			return start, fmt.Errorf("upsert batch at %d: %w", start, err)
		}

		ix.logger.Info("indexed chunk batch", "collection", ix.collection, "from", start, "count", len(batch))
	}

	return len(chunks), nil
}

// ReplaceDocument removes existing points of the source file and
// indexes its chunks anew. Chunk IDs change on every parse, so a
// filtered delete is the only way to evict stale points.
func (ix *Indexer) ReplaceDocument(ctx context.Context, sourceFile string, chunks []chunk.Chunk) (int, error) {
	if err := ix.vectors.DeleteBySource(ctx, ix.collection, sourceFile); err != nil {
		return 0, fmt.Errorf("delete existing points: %w", err)
	}
	return ix.IndexChunks(ctx, chunks)
}

func payload(c chunk.Chunk) map[string]any {
	return map[string]any{
		"source":             c.Source,
		"location":           c.Location,
		"content":            c.Content,
		"issue_date":         c.IssueDate,
		"effective_date":     c.EffectiveDate,
		"signatory":          c.Signatory,
		"signatory_position": c.SignatoryTitle,
	}
}
