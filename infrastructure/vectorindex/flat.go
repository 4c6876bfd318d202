package vectorindex

import (
	"math/rand"
	"sort"
)

// slotScore pairs an internal slot position with its similarity score.
type slotScore struct {
	slot  int32
	score float32
}

// dot computes the inner product of two equal-length vectors. On
// unit-normalized vectors this equals cosine similarity.
func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// bruteForce scans every vector and returns the top k slots by inner
// product, best first. This is the exact search path used while the index
// is flat.
func bruteForce(query []float32, vectors [][]float32, k int) []slotScore {
	scored := make([]slotScore, len(vectors))
	for slot, v := range vectors {
		scored[slot] = slotScore{slot: int32(slot), score: dot(query, v)}
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}

// syntheticVectors generates Gaussian random vectors used only to pad the
// training corpus up to the trainer minimum. They are never inserted into
// the index.
func syntheticVectors(n, dimension int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dimension)
		for j := range v {
			v[j] = float32(rand.NormFloat64())
		}
		out[i] = v
	}
	return out
}
