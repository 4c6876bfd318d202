package provider

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every batch it receives and answers with fixed-value
// vectors.
type fakeBackend struct {
	dimension int
	batches   [][]string
	fill      float32
}

func (f *fakeBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	batch := make([]string, len(texts))
	copy(batch, texts)
	f.batches = append(f.batches, batch)

	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, f.dimension)
		for j := range out[i] {
			out[i][j] = f.fill
		}
	}
	return out, nil
}

func (f *fakeBackend) Dimension() int { return f.dimension }
func (f *fakeBackend) Close() error   { return nil }

func TestEmbedPassagesSplitsBatches(t *testing.T) {
	backend := &fakeBackend{dimension: 4, fill: 1}
	g := NewGateway(backend, WithBatchSize(3))

	texts := []string{"a", "b", "c", "d", "e", "f", "g"}
	vecs, err := g.EmbedPassages(context.Background(), texts)
	require.NoError(t, err)
	assert.Len(t, vecs, 7)

	require.Len(t, backend.batches, 3)
	assert.Len(t, backend.batches[0], 3)
	assert.Len(t, backend.batches[1], 3)
	assert.Len(t, backend.batches[2], 1)
}

func TestEmbedPassagesEmpty(t *testing.T) {
	backend := &fakeBackend{dimension: 4}
	g := NewGateway(backend)

	vecs, err := g.EmbedPassages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
	assert.Empty(t, backend.batches)
}

func TestGatewayNormalizesVectors(t *testing.T) {
	backend := &fakeBackend{dimension: 4, fill: 3}
	g := NewGateway(backend)

	vec, err := g.EmbedQuery(context.Background(), "seoul tower")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestRolePrefixes(t *testing.T) {
	backend := &fakeBackend{dimension: 4, fill: 1}
	g := NewGateway(backend, WithRolePrefixes(true))

	_, err := g.EmbedQuery(context.Background(), "coffee near me")
	require.NoError(t, err)

	_, err = g.EmbedPassages(context.Background(), []string{
		"riverside park",
		"passage: already prefixed",
	})
	require.NoError(t, err)

	require.Len(t, backend.batches, 2)
	assert.Equal(t, "query: coffee near me", backend.batches[0][0])
	assert.Equal(t, "passage: riverside park", backend.batches[1][0])
	assert.Equal(t, "passage: already prefixed", backend.batches[1][1])
}

func TestPrefixesDisabledByDefault(t *testing.T) {
	backend := &fakeBackend{dimension: 4, fill: 1}
	g := NewGateway(backend)

	_, err := g.EmbedQuery(context.Background(), "coffee near me")
	require.NoError(t, err)
	assert.Equal(t, "coffee near me", backend.batches[0][0])
}

func TestGatewayRejectsWrongDimension(t *testing.T) {
	g := NewGateway(&mismatchedBackend{})

	_, err := g.EmbedQuery(context.Background(), "a")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// mismatchedBackend claims one dimension but produces another.
type mismatchedBackend struct{}

func (m *mismatchedBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 3)
	}
	return out, nil
}

func (m *mismatchedBackend) Dimension() int { return 8 }
func (m *mismatchedBackend) Close() error   { return nil }
