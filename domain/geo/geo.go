// Package geo provides great-circle distance and bounding-box math for
// geographic search.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius in kilometers.
const EarthRadiusKm = 6371.0

// kmPerDegree is the approximate surface distance covered by one degree
// of latitude (1° ≈ 111 km).
const kmPerDegree = 111.0

// Haversine computes the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// BoundingBox is a rectangular geographic region used as a coarse pre-filter
// before exact distance computation. It over-approximates a radius: callers
// must re-filter results with Haversine.
type BoundingBox struct {
	minLat float64
	maxLat float64
	minLon float64
	maxLon float64
}

// NewBoundingBox converts a center point and radius into degree deltas.
// The longitude delta is widened by cos(latitude) to account for meridian
// convergence away from the equator.
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
	latDelta := radiusKm / kmPerDegree
	lonDelta := radiusKm / (kmPerDegree * math.Abs(math.Cos(radians(lat))))

	return BoundingBox{
		minLat: lat - latDelta,
		maxLat: lat + latDelta,
		minLon: lon - lonDelta,
		maxLon: lon + lonDelta,
	}
}

// MinLat returns the southern edge of the box.
func (b BoundingBox) MinLat() float64 { return b.minLat }

// MaxLat returns the northern edge of the box.
func (b BoundingBox) MaxLat() float64 { return b.maxLat }

// MinLon returns the western edge of the box.
func (b BoundingBox) MinLon() float64 { return b.minLon }

// MaxLon returns the eastern edge of the box.
func (b BoundingBox) MaxLon() float64 { return b.maxLon }

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.minLat && lat <= b.maxLat && lon >= b.minLon && lon <= b.maxLon
}
