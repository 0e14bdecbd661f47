// Package vectorstore stores chunk vectors and runs similarity
// search over them.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_index.go -package=mocks github.com/ngocdv/vanban/internal/vectorstore VectorIndex

import "context"

// Point is one stored vector with its payload.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is one similarity hit.
type SearchResult struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// SearchFilter narrows a search. Zero-value fields are ignored.
type SearchFilter struct {
	// Source restricts hits to chunks of one source file.
	Source string
}

// VectorIndex is implemented by vector database backends.
type VectorIndex interface {
	// EnsureCollection creates the collection if missing and
	// validates its vector size otherwise.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
	// Upsert inserts or updates points.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Search returns the k nearest points to the query vector.
	Search(ctx context.Context, collection string, query []float32, k int, filter *SearchFilter) ([]SearchResult, error)
	// DeleteBySource removes every point of one source file, used
	// before re-indexing a changed document.
	DeleteBySource(ctx context.Context, collection, sourceFile string) error
	// Count returns the number of stored points.
	Count(ctx context.Context, collection string) (int, error)
}
