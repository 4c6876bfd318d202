// Package v1 implements the v1 REST endpoints.
package v1

import (
	"net/http"
	"strconv"

	"github.com/jhleee/geo-search-api/domain/location"
	"github.com/jhleee/geo-search-api/domain/search"
	"github.com/jhleee/geo-search-api/infrastructure/api/v1/dto"
)

func locationData(loc location.Location) dto.LocationData {
	data := dto.LocationData{
		ID:          loc.ID(),
		Latitude:    loc.Latitude(),
		Longitude:   loc.Longitude(),
		Tags:        loc.Tags(),
		Description: loc.Description(),
		CreatedAt:   loc.CreatedAt(),
	}
	if data.Tags == nil {
		data.Tags = []string{}
	}
	if id, ok := loc.EmbeddingID(); ok {
		data.EmbeddingID = &id
	}
	return data
}

func searchHit(result search.Result) dto.SearchHit {
	hit := dto.SearchHit{Location: locationData(result.Location())}
	if score, ok := result.Score(); ok {
		hit.Score = &score
	}
	if distance, ok := result.DistanceKm(); ok {
		hit.DistanceKm = &distance
	}
	return hit
}

func searchHits(results []search.Result) []dto.SearchHit {
	hits := make([]dto.SearchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit(r)
	}
	return hits
}

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
