// Package search provides search domain types and the fusion algorithm for
// hybrid location retrieval.
package search

import (
	"math"
	"sort"
)

// Fusion merges result streams from the text, vector, and geographic search
// paths into one deduplicated ranked list.
//
// A location found by multiple methods keeps the best evidence from each:
// the maximum score across streams, and the most recently seen distance.
type Fusion struct{}

// NewFusion creates a Fusion.
func NewFusion() Fusion {
	return Fusion{}
}

// Unify merges the given streams keyed by location ID, then sorts by
// (-score, distance) ascending: highest score first, ties broken by nearest
// distance, results with neither sorted last. Input order within a stream is
// preserved among equal sort keys only incidentally, so callers must not rely
// on it. Truncation to a limit is the caller's job, after sorting.
func (f Fusion) Unify(streams ...[]Result) []Result {
	merged := make(map[int64]Result)
	order := make([]int64, 0)

	for _, stream := range streams {
		for _, result := range stream {
			id := result.Location().ID()

			existing, seen := merged[id]
			if !seen {
				merged[id] = result
				order = append(order, id)
				continue
			}

			if score, ok := result.Score(); ok {
				if old, hadScore := existing.Score(); !hadScore || score > old {
					existing = existing.withScore(score)
				}
			}
			if distance, ok := result.DistanceKm(); ok {
				existing = existing.withDistance(distance)
			}
			merged[id] = existing
		}
	}

	unified := make([]Result, 0, len(merged))
	for _, id := range order {
		unified = append(unified, merged[id])
	}

	sort.SliceStable(unified, func(i, j int) bool {
		ki, di := sortKey(unified[i])
		kj, dj := sortKey(unified[j])
		if ki != kj {
			return ki < kj
		}
		return di < dj
	})

	return unified
}

// sortKey maps a result to its (negated score, distance) sort key. Missing
// score counts as zero; missing distance as +infinity, pushing text-only
// matches behind everything that carries evidence.
func sortKey(r Result) (float64, float64) {
	negScore := 0.0
	if score, ok := r.Score(); ok {
		negScore = -score
	}
	distance := math.Inf(1)
	if d, ok := r.DistanceKm(); ok {
		distance = d
	}
	return negScore, distance
}
