package geo

import (
	"math"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

const (
	kmPerDegreeLat        = 111.0
	kmPerDegreeLngEquator = 111.320
	minLngDenominator     = 1e-5 // keeps the longitude delta finite at the poles
)

// Window returns a latitude/longitude rectangle containing every point
// within radiusKm great-circle kilometres of center.
//
// The deltas start from the flat per-degree estimates. The longitude delta is
// then widened to the exact spherical bound, since 111.320 km per degree
// slightly overstates the degree length of a 6371 km sphere. When the circle
// reaches a pole or crosses the antimeridian the window spans all longitudes.
func Window(center domain.Coordinate, radiusKm float64) domain.BoundingBox {
	latDelta := radiusKm / kmPerDegreeLat
	box := domain.BoundingBox{
		MinLat: math.Max(-90, center.Lat-latDelta),
		MaxLat: math.Min(90, center.Lat+latDelta),
		MinLng: -180,
		MaxLng: 180,
	}

	lngDelta, bounded := longitudeDelta(center.Lat, radiusKm)
	if !bounded {
		return box
	}
	minLng := center.Lng - lngDelta
	maxLng := center.Lng + lngDelta
	if minLng < -180 || maxLng > 180 {
		return box
	}
	box.MinLng = minLng
	box.MaxLng = maxLng
	return box
}

// longitudeDelta returns the half-width of the window in degrees, or false
// when the circle covers a pole and no longitude bound exists.
func longitudeDelta(lat, radiusKm float64) (float64, bool) {
	cosLat := math.Cos(radians(lat))
	estimate := radiusKm / math.Max(minLngDenominator, kmPerDegreeLngEquator*cosLat)

	angular := radiusKm / EarthRadiusKm
	if angular >= math.Pi/2 {
		return 0, false
	}
	sinDelta := math.Sin(angular)
	if sinDelta >= cosLat {
		return 0, false
	}
	exact := degrees(math.Asin(sinDelta / cosLat))

	delta := math.Max(estimate, exact)
	if delta >= 180 {
		return 0, false
	}
	return delta, true
}

// BoxPrefilter is the default store prefilter.
type BoxPrefilter struct{}

// Window satisfies ports.Prefilter.
func (BoxPrefilter) Window(center domain.Coordinate, radiusKm float64) domain.BoundingBox {
	return Window(center, radiusKm)
}
