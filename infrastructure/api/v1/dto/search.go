package dto

// LocationSearchRequest asks for locations within a radius of a point.
type LocationSearchRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km,omitempty"`
	Limit     int     `json:"limit,omitempty"`
}

// TextSearchRequest asks for locations matching a keyword query.
type TextSearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// VectorSearchRequest asks for locations semantically similar to a query.
type VectorSearchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
}

// UnifiedSearchRequest asks for a fused hybrid search. Modes defaults to
// all three paths; the location path runs only when coordinates are given.
type UnifiedSearchRequest struct {
	Query     string   `json:"query"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	RadiusKm  float64  `json:"radius_km,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Modes     []string `json:"modes,omitempty"`
	Threshold float64  `json:"threshold,omitempty"`
}

// SearchHit is one search result: the location plus whatever evidence the
// search path produced for it.
type SearchHit struct {
	Location   LocationData `json:"location"`
	Score      *float64     `json:"score,omitempty"`
	DistanceKm *float64     `json:"distance_km,omitempty"`
}

// SearchResponse is the result list of a single-mode search.
type SearchResponse struct {
	Data  []SearchHit `json:"data"`
	Count int         `json:"count"`
}

// UnifiedSearchResponse is the fused result of a hybrid search.
type UnifiedSearchResponse struct {
	Data      []SearchHit    `json:"data"`
	Modes     []string       `json:"modes"`
	Counts    map[string]int `json:"counts"`
	ElapsedMs int64          `json:"elapsed_ms"`
}

// StatsResponse reports system state.
type StatsResponse struct {
	Locations  int64  `json:"locations"`
	Embeddings int    `json:"embeddings"`
	IndexState string `json:"index_state"`
	Model      string `json:"model"`
}
