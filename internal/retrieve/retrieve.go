// Package retrieve answers semantic queries over the indexed corpus:
// embed the query, search the chunk collection, map payloads back to
// typed hits.
package retrieve

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ngocdv/vanban/internal/embed"
	"github.com/ngocdv/vanban/internal/vectorstore"
)

const (
	defaultCollection = "vanban_chunks"
	defaultTopK       = 5
	defaultCacheTTL   = 5 * time.Minute
	cleanupInterval   = 10 * time.Minute
)

// Query is one retrieval request.
type Query struct {
	Text string
	// TopK caps the number of hits; zero uses the searcher default.
	TopK int
	// Source restricts hits to one source file when set.
	Source string
}

// Hit is one retrieval result with its chunk payload fields.
type Hit struct {
	ID             string  `json:"id"`
	Score          float32 `json:"score"`
	Source         string  `json:"source"`
	Location       string  `json:"location"`
	Content        string  `json:"content"`
	IssueDate      string  `json:"issue_date"`
	EffectiveDate  string  `json:"effective_date"`
	Signatory      string  `json:"signatory"`
	SignatoryTitle string  `json:"signatory_position"`
}

// Config controls the searcher.
type Config struct {
	Collection string
	TopK       int
	CacheTTL   time.Duration
}

// Searcher embeds queries and searches the chunk collection. Results
// are cached per query for a short TTL so repeated questions do not
// re-hit the embeddings endpoint.
type Searcher struct {
	embedder   embed.Embedder
	vectors    vectorstore.VectorIndex
	collection string
	topK       int
	ttl        time.Duration
	cache      *gocache.Cache
	logger     *slog.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(embedder embed.Embedder, vectors vectorstore.VectorIndex, cfg Config, logger *slog.Logger) *Searcher {
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Searcher{
		embedder:   embedder,
		vectors:    vectors,
		collection: cfg.Collection,
		topK:       cfg.TopK,
		ttl:        cfg.CacheTTL,
		cache:      gocache.New(cfg.CacheTTL, cleanupInterval),
		logger:     logger,
	}
}

// Search runs one query and returns the nearest chunks.
func (s *Searcher) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.Text == "" {
		return nil, fmt.Errorf("query text is required")
	}

	topK := q.TopK
	if topK <= 0 {
		topK = s.topK
	}

	key := cacheKey(q.Text, topK, q.Source)
	if cached, found := s.cache.Get(key); found {
		s.logger.Debug("query cache hit", "top_k", topK)
		return cached.([]Hit), nil
	}

	queryVectors, err := s.embedder.EmbedTexts(ctx, []string{q.Text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(queryVectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(queryVectors))
	}

	var filter *vectorstore.SearchFilter
	if q.Source != "" {
		filter = &vectorstore.SearchFilter{Source: q.Source}
	}

	results, err := s.vectors.Search(ctx, s.collection, queryVectors[0], topK, filter)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, hitFrom(r))
	}

	s.cache.Set(key, hits, s.ttl)
	s.logger.Info("search completed", "top_k", topK, "hits", len(hits))
	return hits, nil
}

func hitFrom(r vectorstore.SearchResult) Hit {
	return Hit{
		ID:             r.ID,
		Score:          r.Score,
		Source:         payloadString(r.Payload, "source"),
		Location:       payloadString(r.Payload, "location"),
		Content:        payloadString(r.Payload, "content"),
		IssueDate:      payloadString(r.Payload, "issue_date"),
		EffectiveDate:  payloadString(r.Payload, "effective_date"),
		Signatory:      payloadString(r.Payload, "signatory"),
		SignatoryTitle: payloadString(r.Payload, "signatory_position"),
	}
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func cacheKey(text string, topK int, source string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", text, topK, source)))
	return fmt.Sprintf("%x", sum)
}
