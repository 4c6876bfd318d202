package search

import "context"

// Embedder converts text into unit-normalized fixed-dimension vectors.
// Queries and passages may be prefixed differently by the implementation,
// since some embedding models are trained to distinguish the two roles.
type Embedder interface {
	// EmbedQuery embeds a single search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedPassages embeds stored content, one vector per text, in order.
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the fixed vector dimension.
	Dimension() int
}
