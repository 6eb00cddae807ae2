package ports

import (
	"context"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

// ClinicRepository reads clinic rows from the clinic store.
type ClinicRepository interface {
	// FindInBox returns up to max clinics whose coordinate lies inside box,
	// bounds inclusive. Row order is unspecified.
	FindInBox(ctx context.Context, box domain.BoundingBox, max int) ([]domain.Clinic, error)
}

// ServiceRepository reads service rows from the clinic store.
type ServiceRepository interface {
	// FindByClinicIDs returns every service owned by the given clinics in one
	// round trip, ordered by clinic id then service id.
	FindByClinicIDs(ctx context.Context, clinicIDs []int64) ([]domain.Service, error)
}
