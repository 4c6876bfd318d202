package vectorindex

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhleee/geo-search-api/domain/vector"
)

const testDim = 8

func newTestIndex(t *testing.T, opts Options) *Index {
	t.Helper()
	if opts.Dimension == 0 {
		opts.Dimension = testDim
	}
	ix, err := New(opts, nil)
	require.NoError(t, err)
	return ix
}

// unitVector returns a normalized random vector of the test dimension.
func unitVector() []float32 {
	v := make([]float32, testDim)
	var norm float64
	for i := range v {
		v[i] = float32(rand.NormFloat64())
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func unitVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = unitVector()
	}
	return out
}

func TestNewRejectsInvalidDimension(t *testing.T) {
	_, err := New(Options{Dimension: 0}, nil)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = New(Options{Dimension: -3}, nil)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	ix := newTestIndex(t, Options{})

	ids, err := ix.Add(unitVectors(3))
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, ids)

	ids, err = ix.Add(unitVectors(2))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids)
	assert.Equal(t, 5, ix.Count())
}

func TestAddRejectsEmptyAndMismatched(t *testing.T) {
	ix := newTestIndex(t, Options{})

	_, err := ix.Add(nil)
	assert.ErrorIs(t, err, ErrEmptyAdd)

	_, err = ix.Add([][]float32{make([]float32, testDim+1)})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Equal(t, 0, ix.Count())
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := newTestIndex(t, Options{})

	matches, err := ix.Search(unitVector(), 10, 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchFindsExactVector(t *testing.T) {
	ix := newTestIndex(t, Options{})

	vecs := unitVectors(20)
	ids, err := ix.Add(vecs)
	require.NoError(t, err)

	matches, err := ix.Search(vecs[7], 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ids[7], matches[0].EmbeddingID())
	assert.InDelta(t, 1.0, matches[0].Score(), 1e-5)
}

func TestSearchFiltersByThreshold(t *testing.T) {
	ix := newTestIndex(t, Options{})

	// Orthogonal basis vectors: the query matches one with score 1,
	// the other with score 0.
	a := make([]float32, testDim)
	b := make([]float32, testDim)
	a[0] = 1
	b[1] = 1
	_, err := ix.Add([][]float32{a, b})
	require.NoError(t, err)

	matches, err := ix.Search(a, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score(), 1e-5)
}

func TestSearchRespectsK(t *testing.T) {
	ix := newTestIndex(t, Options{})

	_, err := ix.Add(unitVectors(30))
	require.NoError(t, err)

	matches, err := ix.Search(unitVector(), 5, -2)
	require.NoError(t, err)
	assert.Len(t, matches, 5)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score(), matches[i].Score())
	}
}

func TestTrainingTransition(t *testing.T) {
	ix := newTestIndex(t, Options{TrainThreshold: 50, Centroids: 8, Probes: 8})

	_, err := ix.Add(unitVectors(49))
	require.NoError(t, err)
	assert.Equal(t, vector.StateFlat, ix.State())

	vecs := unitVectors(1)
	ids, err := ix.Add(vecs)
	require.NoError(t, err)
	assert.Equal(t, vector.StateQuantized, ix.State())
	assert.Equal(t, 50, ix.Count())

	// Probing every list makes the quantized search exact, so the vector
	// that triggered training must still be findable.
	matches, err := ix.Search(vecs[0], 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ids[0], matches[0].EmbeddingID())

	// Vectors added after training land in inverted lists directly.
	post := unitVectors(1)
	postIDs, err := ix.Add(post)
	require.NoError(t, err)
	matches, err = ix.Search(post[0], 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, postIDs[0], matches[0].EmbeddingID())
}

func TestTrainingPadsSmallCorpus(t *testing.T) {
	// Threshold crossed by a single large batch smaller than the centroid
	// count: training pads with synthetic vectors and must not panic.
	ix := newTestIndex(t, Options{TrainThreshold: 10, Centroids: 20, Probes: 20})

	vecs := unitVectors(10)
	_, err := ix.Add(vecs)
	require.NoError(t, err)
	assert.Equal(t, vector.StateQuantized, ix.State())
	assert.Equal(t, 10, ix.Count())

	matches, err := ix.Search(vecs[3], 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		TrainThreshold: 20,
		Centroids:      4,
		Probes:         4,
		IndexPath:      filepath.Join(dir, "index.gob"),
		MetaPath:       filepath.Join(dir, "meta.gob"),
	}

	ix := newTestIndex(t, opts)
	vecs := unitVectors(25)
	ids, err := ix.Add(vecs)
	require.NoError(t, err)
	require.Equal(t, vector.StateQuantized, ix.State())
	require.NoError(t, ix.Save())

	restored := newTestIndex(t, opts)
	assert.Equal(t, 25, restored.Count())
	assert.Equal(t, vector.StateQuantized, restored.State())

	matches, err := restored.Search(vecs[11], 1, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, ids[11], matches[0].EmbeddingID())

	// IDs keep advancing from where the snapshot left off.
	more, err := restored.Add(unitVectors(1))
	require.NoError(t, err)
	assert.Equal(t, []int64{25}, more)
}

func TestSnapshotDimensionMismatchStartsFresh(t *testing.T) {
	dir := t.TempDir()
	paths := Options{
		IndexPath: filepath.Join(dir, "index.gob"),
		MetaPath:  filepath.Join(dir, "meta.gob"),
	}

	ix := newTestIndex(t, paths)
	_, err := ix.Add(unitVectors(5))
	require.NoError(t, err)
	require.NoError(t, ix.Save())

	other := paths
	other.Dimension = testDim * 2
	fresh, err := New(other, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Count())
	assert.Equal(t, vector.StateFlat, fresh.State())
}

func TestAutoSnapshot(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SnapshotInterval: 10,
		IndexPath:        filepath.Join(dir, "index.gob"),
		MetaPath:         filepath.Join(dir, "meta.gob"),
	}

	ix := newTestIndex(t, opts)
	_, err := ix.Add(unitVectors(10))
	require.NoError(t, err)

	restored := newTestIndex(t, opts)
	assert.Equal(t, 10, restored.Count())
}
