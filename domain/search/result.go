package search

import "github.com/jhleee/geo-search-api/domain/location"

// Result wraps a location with the evidence a search path attached to it: a
// similarity score (higher is better), a distance in kilometers (lower is
// better), or both after fusion. Text matches carry neither.
type Result struct {
	location    location.Location
	score       float64
	distanceKm  float64
	hasScore    bool
	hasDistance bool
}

// NewTextResult creates a Result without score or distance.
func NewTextResult(loc location.Location) Result {
	return Result{location: loc}
}

// NewScoredResult creates a Result carrying a similarity score.
func NewScoredResult(loc location.Location, score float64) Result {
	return Result{location: loc, score: score, hasScore: true}
}

// NewDistanceResult creates a Result carrying a geographic distance.
func NewDistanceResult(loc location.Location, distanceKm float64) Result {
	return Result{location: loc, distanceKm: distanceKm, hasDistance: true}
}

// Location returns the matched location.
func (r Result) Location() location.Location { return r.location }

// Score returns the similarity score and whether one is present.
func (r Result) Score() (float64, bool) { return r.score, r.hasScore }

// DistanceKm returns the distance in kilometers and whether one is present.
func (r Result) DistanceKm() (float64, bool) { return r.distanceKm, r.hasDistance }

// withScore returns a copy carrying the given score.
func (r Result) withScore(score float64) Result {
	r.score = score
	r.hasScore = true
	return r
}

// withDistance returns a copy carrying the given distance.
func (r Result) withDistance(distanceKm float64) Result {
	r.distanceKm = distanceKm
	r.hasDistance = true
	return r
}
