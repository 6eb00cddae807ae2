package ports

import (
	"context"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

// Search defaults applied when the caller omits radius or limit.
const (
	DefaultRadiusKm = 5.0
	DefaultLimit    = 50
)

// NearbyQuery is a proximity search.
type NearbyQuery struct {
	Center   domain.Coordinate
	RadiusKm float64
	Limit    int
}

// NearbyResult is the ranked outcome of a proximity search.
type NearbyResult struct {
	Clinics []domain.NearbyClinic
	// Candidates is how many rows the prefilter window returned.
	Candidates int
}

// NearbyService finds clinics around a point.
type NearbyService interface {
	Nearby(ctx context.Context, q NearbyQuery) (*NearbyResult, error)
}
