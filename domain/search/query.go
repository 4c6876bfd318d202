package search

// Mode identifies a search path.
type Mode string

// Mode values.
const (
	ModeText     Mode = "text"
	ModeVector   Mode = "vector"
	ModeLocation Mode = "location"
)

// UnifiedQuery describes a hybrid search request. Each path can be toggled
// independently; the location path additionally requires coordinates.
type UnifiedQuery struct {
	text            string
	latitude        *float64
	longitude       *float64
	radiusKm        float64
	limit           int
	useText         bool
	useVector       bool
	useLocation     bool
	vectorThreshold float64
}

// UnifiedQueryOption configures a UnifiedQuery.
type UnifiedQueryOption func(*UnifiedQuery)

// WithCoordinates enables the geographic path around the given point.
func WithCoordinates(lat, lon float64) UnifiedQueryOption {
	return func(q *UnifiedQuery) {
		q.latitude = &lat
		q.longitude = &lon
	}
}

// WithRadiusKm sets the geographic search radius.
func WithRadiusKm(radius float64) UnifiedQueryOption {
	return func(q *UnifiedQuery) {
		if radius > 0 {
			q.radiusKm = radius
		}
	}
}

// WithLimit sets the maximum number of fused results.
func WithLimit(limit int) UnifiedQueryOption {
	return func(q *UnifiedQuery) {
		if limit > 0 {
			q.limit = limit
		}
	}
}

// WithModes enables exactly the given search paths.
func WithModes(modes ...Mode) UnifiedQueryOption {
	return func(q *UnifiedQuery) {
		q.useText, q.useVector, q.useLocation = false, false, false
		for _, m := range modes {
			switch m {
			case ModeText:
				q.useText = true
			case ModeVector:
				q.useVector = true
			case ModeLocation:
				q.useLocation = true
			}
		}
	}
}

// WithVectorThreshold sets the minimum similarity score for vector matches.
func WithVectorThreshold(threshold float64) UnifiedQueryOption {
	return func(q *UnifiedQuery) {
		if threshold >= 0 {
			q.vectorThreshold = threshold
		}
	}
}

// NewUnifiedQuery creates a UnifiedQuery with all paths enabled, a 1 km
// radius, a limit of 10, and a 0.3 vector threshold.
func NewUnifiedQuery(text string, opts ...UnifiedQueryOption) UnifiedQuery {
	q := UnifiedQuery{
		text:            text,
		radiusKm:        1.0,
		limit:           10,
		useText:         true,
		useVector:       true,
		useLocation:     true,
		vectorThreshold: 0.3,
	}
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Text returns the query text.
func (q UnifiedQuery) Text() string { return q.text }

// Coordinates returns the center point and whether one was provided.
func (q UnifiedQuery) Coordinates() (lat, lon float64, ok bool) {
	if q.latitude == nil || q.longitude == nil {
		return 0, 0, false
	}
	return *q.latitude, *q.longitude, true
}

// RadiusKm returns the geographic search radius.
func (q UnifiedQuery) RadiusKm() float64 { return q.radiusKm }

// Limit returns the maximum number of fused results.
func (q UnifiedQuery) Limit() int { return q.limit }

// UseText reports whether the keyword path is enabled.
func (q UnifiedQuery) UseText() bool { return q.useText }

// UseVector reports whether the vector path is enabled.
func (q UnifiedQuery) UseVector() bool { return q.useVector }

// UseLocation reports whether the geographic path is enabled. The path only
// runs when coordinates are also present.
func (q UnifiedQuery) UseLocation() bool { return q.useLocation }

// VectorThreshold returns the minimum similarity score for vector matches.
func (q UnifiedQuery) VectorThreshold() float64 { return q.vectorThreshold }
