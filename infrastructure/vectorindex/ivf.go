package vectorindex

import (
	"math"
	"math/rand"
	"sort"
)

// kmeansMaxIters bounds the Lloyd iteration count during training.
const kmeansMaxIters = 25

// coarseQuantizer is the IVF-flat structure: k-means centroids partition the
// vector space, and each inverted list holds the slots assigned to one
// centroid. Searches scan only the lists of the nearest probe centroids,
// trading exactness for scan volume.
type coarseQuantizer struct {
	dimension int
	probes    int
	centroids [][]float32
	lists     [][]int32 // centroid -> slots
}

func newCoarseQuantizer(dimension, centroids, probes int) *coarseQuantizer {
	return &coarseQuantizer{
		dimension: dimension,
		probes:    probes,
		centroids: make([][]float32, 0, centroids),
		lists:     make([][]int32, centroids),
	}
}

// train runs k-means++ seeding followed by Lloyd iterations over the
// training corpus and installs the resulting centroids with empty lists.
func (c *coarseQuantizer) train(training [][]float32) {
	k := cap(c.centroids)
	c.centroids = kmeans(training, k, kmeansMaxIters)
	c.lists = make([][]int32, len(c.centroids))
}

// addSlot assigns a vector slot to its nearest centroid's inverted list.
func (c *coarseQuantizer) addSlot(vec []float32, slot int32) {
	nearest := nearestCentroid(vec, c.centroids)
	c.lists[nearest] = append(c.lists[nearest], slot)
}

// search scans the probe nearest inverted lists and returns the top k slots
// by inner product, best first.
func (c *coarseQuantizer) search(query []float32, vectors [][]float32, k int) []slotScore {
	probed := c.probeLists(query)

	var candidates []slotScore
	for _, list := range probed {
		for _, slot := range c.lists[list] {
			candidates = append(candidates, slotScore{
				slot:  slot,
				score: dot(query, vectors[slot]),
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

// probeLists returns the indexes of the probe centroids nearest the query.
func (c *coarseQuantizer) probeLists(query []float32) []int {
	type centroidDist struct {
		index int
		dist  float32
	}

	dists := make([]centroidDist, len(c.centroids))
	for i, centroid := range c.centroids {
		dists[i] = centroidDist{index: i, dist: squaredL2(query, centroid)}
	}

	sort.Slice(dists, func(i, j int) bool {
		return dists[i].dist < dists[j].dist
	})

	n := c.probes
	if n > len(dists) {
		n = len(dists)
	}

	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = dists[i].index
	}
	return out
}

// squaredL2 computes the squared Euclidean distance between two vectors.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// nearestCentroid returns the index of the centroid closest to vec.
func nearestCentroid(vec []float32, centroids [][]float32) int {
	minDist := float32(math.MaxFloat32)
	nearest := 0
	for i, centroid := range centroids {
		if d := squaredL2(vec, centroid); d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}

// kmeans clusters vectors into k centroids with k-means++ seeding and at
// most maxIters Lloyd iterations. With fewer vectors than k, existing
// vectors are cycled as centroids.
func kmeans(vectors [][]float32, k, maxIters int) [][]float32 {
	dim := len(vectors[0])

	if len(vectors) < k {
		centroids := make([][]float32, k)
		for i := range centroids {
			centroids[i] = make([]float32, dim)
			copy(centroids[i], vectors[i%len(vectors)])
		}
		return centroids
	}

	centroids := make([][]float32, k)
	for i := range centroids {
		centroids[i] = make([]float32, dim)
	}

	// k-means++ seeding: first centroid uniform, the rest sampled
	// proportionally to squared distance from the nearest chosen one.
	copy(centroids[0], vectors[rand.Intn(len(vectors))])

	minDistSq := make([]float32, len(vectors))
	var sum float32
	for i, vec := range vectors {
		d := squaredL2(vec, centroids[0])
		minDistSq[i] = d
		sum += d
	}

	for c := 1; c < k; c++ {
		if sum == 0 {
			copy(centroids[c], vectors[rand.Intn(len(vectors))])
			continue
		}

		target := rand.Float32() * sum
		var cumsum float32
		chosen := 0
		for i, d := range minDistSq {
			cumsum += d
			if cumsum >= target {
				chosen = i
				break
			}
		}
		copy(centroids[c], vectors[chosen])

		sum = 0
		for i, vec := range vectors {
			if d := squaredL2(vec, centroids[c]); d < minDistSq[i] {
				minDistSq[i] = d
			}
			sum += minDistSq[i]
		}
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < maxIters; iter++ {
		changed := false
		for i, vec := range vectors {
			nearest := nearestCentroid(vec, centroids)
			if assignments[i] != nearest {
				changed = true
				assignments[i] = nearest
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float32, k)
		for i := range sums {
			sums[i] = make([]float32, dim)
		}
		for i, vec := range vectors {
			cluster := assignments[i]
			counts[cluster]++
			for j, val := range vec {
				sums[cluster][j] += val
			}
		}
		for i := range centroids {
			if counts[i] == 0 {
				continue
			}
			for j := range centroids[i] {
				centroids[i][j] = sums[i][j] / float32(counts[i])
			}
		}
	}

	return centroids
}
