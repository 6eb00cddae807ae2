// Package geo holds the spherical geometry behind proximity search: the
// haversine distance used as the exact filter and the bounding-box window
// used as the store prefilter.
package geo

import (
	"math"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

// EarthRadiusKm is the mean Earth radius used by every distance computation.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between a and b in kilometres
// using the haversine formula.
func Distance(a, b domain.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	sLat := math.Sin(dLat / 2)
	sLng := math.Sin(dLng / 2)
	h := sLat*sLat + math.Cos(lat1)*math.Cos(lat2)*sLng*sLng
	// Rounding can push h a hair outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Haversine is the default exact filter.
type Haversine struct{}

// Distance satisfies ports.ExactFilter.
func (Haversine) Distance(a, b domain.Coordinate) float64 {
	return Distance(a, b)
}

// RoundKm rounds a distance to two decimal places for presentation.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
