package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jhleee/geo-search-api/domain/search"
)

// DefaultBatchSize is the default number of texts per embedding API call.
const DefaultBatchSize = 32

// Role prefixes for asymmetric embedding models (E5 family). Queries and
// passages get different prefixes so the model embeds them into matching
// regions of the space.
const (
	queryPrefix   = "query: "
	passagePrefix = "passage: "
)

// ErrDimensionMismatch indicates the backend returned vectors of an
// unexpected dimensionality.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Gateway adapts a low-level Embedder to the domain contract: it applies
// role prefixes, splits large inputs into sub-batches, and normalizes every
// vector to unit length so inner product equals cosine similarity.
type Gateway struct {
	backend     Embedder
	batchSize   int
	usePrefixes bool
}

// GatewayOption is a functional option for Gateway.
type GatewayOption func(*Gateway)

// WithBatchSize sets the number of texts per backend call.
func WithBatchSize(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.batchSize = n
		}
	}
}

// WithRolePrefixes enables E5-style "query: "/"passage: " prefixes. Leave
// disabled for models (like the OpenAI family) that are not trained on them.
func WithRolePrefixes(enabled bool) GatewayOption {
	return func(g *Gateway) { g.usePrefixes = enabled }
}

// NewGateway creates a Gateway over the given backend.
func NewGateway(backend Embedder, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backend:   backend,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ search.Embedder = (*Gateway)(nil)

// Dimension returns the backend's vector dimensionality.
func (g *Gateway) Dimension() int {
	return g.backend.Dimension()
}

// EmbedQuery embeds a single search query.
func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := g.embed(ctx, []string{g.prefixed(text, queryPrefix)})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedPassages embeds stored texts, splitting the input into sub-batches.
// Vectors come back in input order.
func (g *Gateway) EmbedPassages(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	prefixed := make([]string, len(texts))
	for i, text := range texts {
		prefixed[i] = g.prefixed(text, passagePrefix)
	}

	out := make([][]float32, 0, len(prefixed))
	for start := 0; start < len(prefixed); start += g.batchSize {
		end := start + g.batchSize
		if end > len(prefixed) {
			end = len(prefixed)
		}

		vecs, err := g.embed(ctx, prefixed[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// prefixed applies a role prefix unless disabled or already present.
func (g *Gateway) prefixed(text, prefix string) string {
	if !g.usePrefixes || strings.HasPrefix(text, prefix) {
		return text
	}
	return prefix + text
}

// embed calls the backend and validates and normalizes the result.
func (g *Gateway) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := g.backend.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("backend returned %d vectors for %d texts", len(vecs), len(texts))
	}

	want := g.backend.Dimension()
	for i, vec := range vecs {
		if len(vec) != want {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				ErrDimensionMismatch, i, len(vec), want)
		}
		normalize(vec)
	}
	return vecs, nil
}

// normalize scales the vector to unit length in place. Zero vectors are left
// untouched.
func normalize(vec []float32) {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
}
