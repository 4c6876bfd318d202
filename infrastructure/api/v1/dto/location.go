// Package dto defines the request and response payloads of the v1 API.
package dto

import "time"

// LocationRequest is the payload for creating a location.
type LocationRequest struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
}

// LocationUpdateRequest is the payload for partially updating a location.
// Absent fields are left untouched.
type LocationUpdateRequest struct {
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// LocationData is the wire form of a stored location.
type LocationData struct {
	ID          int64     `json:"id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	EmbeddingID *int64    `json:"embedding_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LocationListResponse is a page of locations.
type LocationListResponse struct {
	Data   []LocationData `json:"data"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// BulkRequest is the payload for bulk ingestion.
type BulkRequest struct {
	Items []LocationRequest `json:"items"`
}

// BulkFailureData reports one rejected bulk item by request position.
type BulkFailureData struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BulkResponse summarizes a bulk ingestion.
type BulkResponse struct {
	Created   []int64           `json:"created"`
	Failures  []BulkFailureData `json:"failures,omitempty"`
	Degraded  bool              `json:"degraded"`
	ElapsedMs int64             `json:"elapsed_ms"`
}
