// Package embed turns chunk contents into dense vectors through an
// OpenAI-compatible embeddings endpoint.
package embed

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks github.com/ngocdv/vanban/internal/embed Embedder

import "context"

// Embedder is implemented by embedding backends.
type Embedder interface {
	// EmbedTexts embeds the given texts and returns one vector per
	// input, in input order.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the vector size the backend produces.
	Dimension() int
}
