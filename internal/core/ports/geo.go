package ports

import "github.com/smileslot/clinic-api/internal/core/domain"

// Prefilter narrows a radius search to a window the store can filter on.
// Implementations must return a superset of the true radius.
type Prefilter interface {
	Window(center domain.Coordinate, radiusKm float64) domain.BoundingBox
}

// ExactFilter measures the distance, in kilometres, used to accept or reject
// a prefiltered candidate.
type ExactFilter interface {
	Distance(a, b domain.Coordinate) float64
}
