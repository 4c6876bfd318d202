// Package location provides the geotagged location record and its store
// contract.
package location

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// ErrNotFound indicates the referenced location does not exist. Not-found is
// a normal, cheap result path: callers should test with errors.Is rather
// than treat it as a failure.
var ErrNotFound = errors.New("location not found")

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %v", ErrInvalidLongitude, lon)
	}
	return nil
}

// NormalizeTags lowercases and trims tags, dropping empty entries. Order is
// preserved.
func NormalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		normalized = append(normalized, tag)
	}
	return normalized
}

// Location is a stored geotagged point of interest.
type Location struct {
	id          int64
	latitude    float64
	longitude   float64
	tags        []string
	description string
	embeddingID *int64
	createdAt   time.Time
}

// NewLocation creates a Location from stored fields.
func NewLocation(
	id int64,
	latitude, longitude float64,
	tags []string,
	description string,
	embeddingID *int64,
	createdAt time.Time,
) Location {
	t := make([]string, len(tags))
	copy(t, tags)
	return Location{
		id:          id,
		latitude:    latitude,
		longitude:   longitude,
		tags:        t,
		description: description,
		embeddingID: embeddingID,
		createdAt:   createdAt,
	}
}

// ID returns the record identifier.
func (l Location) ID() int64 { return l.id }

// Latitude returns the latitude in decimal degrees.
func (l Location) Latitude() float64 { return l.latitude }

// Longitude returns the longitude in decimal degrees.
func (l Location) Longitude() float64 { return l.longitude }

// Tags returns the normalized tags (copy).
func (l Location) Tags() []string {
	tags := make([]string, len(l.tags))
	copy(tags, l.tags)
	return tags
}

// Description returns the free-text description.
func (l Location) Description() string { return l.description }

// EmbeddingID returns the live embedding reference and whether the record
// has one.
func (l Location) EmbeddingID() (int64, bool) {
	if l.embeddingID == nil {
		return 0, false
	}
	return *l.embeddingID, true
}

// CreatedAt returns the creation timestamp.
func (l Location) CreatedAt() time.Time { return l.createdAt }

// EmbeddingText builds the combined text used for embedding: description
// followed by space-joined tags, with a sentinel when both are empty.
func (l Location) EmbeddingText() string {
	return EmbeddingText(l.description, l.tags)
}

// EmbeddingText builds the combined embedding text for a description and
// tag list. Empty input maps to a fixed sentinel so the embedding model
// always receives non-empty text.
func EmbeddingText(description string, tags []string) string {
	combined := strings.TrimSpace(description + " " + strings.Join(tags, " "))
	if combined == "" {
		return "no description"
	}
	return combined
}

// Input is a validated, normalized request to create a location.
type Input struct {
	latitude    float64
	longitude   float64
	tags        []string
	description string
}

// NewInput validates coordinates and normalizes tags and description.
func NewInput(latitude, longitude float64, tags []string, description string) (Input, error) {
	if err := ValidateCoordinates(latitude, longitude); err != nil {
		return Input{}, err
	}
	return Input{
		latitude:    latitude,
		longitude:   longitude,
		tags:        NormalizeTags(tags),
		description: strings.TrimSpace(description),
	}, nil
}

// Latitude returns the latitude.
func (i Input) Latitude() float64 { return i.latitude }

// Longitude returns the longitude.
func (i Input) Longitude() float64 { return i.longitude }

// Tags returns the normalized tags (copy).
func (i Input) Tags() []string {
	tags := make([]string, len(i.tags))
	copy(tags, i.tags)
	return tags
}

// Description returns the trimmed description.
func (i Input) Description() string { return i.description }

// EmbeddingText builds the combined embedding text for this input.
func (i Input) EmbeddingText() string {
	return EmbeddingText(i.description, i.tags)
}

// Update describes a partial mutation of a location. Nil fields are left
// untouched.
type Update struct {
	Latitude    *float64
	Longitude   *float64
	Tags        []string
	Description *string
	EmbeddingID *int64
}

// Empty reports whether the update changes nothing.
func (u Update) Empty() bool {
	return u.Latitude == nil && u.Longitude == nil && u.Tags == nil &&
		u.Description == nil && u.EmbeddingID == nil
}

// TouchesText reports whether the update changes description or tags and
// therefore requires re-embedding.
func (u Update) TouchesText() bool {
	return u.Description != nil || u.Tags != nil
}

// Validate checks any coordinates present in the update.
func (u Update) Validate() error {
	if u.Latitude != nil && (*u.Latitude < -90 || *u.Latitude > 90) {
		return fmt.Errorf("%w: %v", ErrInvalidLatitude, *u.Latitude)
	}
	if u.Longitude != nil && (*u.Longitude < -180 || *u.Longitude > 180) {
		return fmt.Errorf("%w: %v", ErrInvalidLongitude, *u.Longitude)
	}
	return nil
}

// Normalized returns a copy of the update with tags and description
// normalized the same way Input normalizes them.
func (u Update) Normalized() Update {
	out := u
	if u.Tags != nil {
		out.Tags = NormalizeTags(u.Tags)
	}
	if u.Description != nil {
		trimmed := strings.TrimSpace(*u.Description)
		out.Description = &trimmed
	}
	return out
}
