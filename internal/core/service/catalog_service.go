package service

import (
	"context"

	"github.com/smileslot/clinic-api/internal/core/domain"
	"github.com/smileslot/clinic-api/internal/core/ports"
)

// CatalogService expands a search result's top services into the clinic's
// complete list, in store order.
type CatalogService struct {
	services ports.ServiceRepository
}

// NewCatalogService builds a CatalogService over the service store.
func NewCatalogService(services ports.ServiceRepository) *CatalogService {
	return &CatalogService{services: services}
}

// ClinicServices returns every service of clinicID, never nil.
func (s *CatalogService) ClinicServices(ctx context.Context, clinicID int64) ([]domain.ServiceSummary, error) {
	if clinicID <= 0 {
		ve := domain.NewValidationError()
		ve.Add("id", "must be a positive integer")
		return nil, ve
	}

	rows, err := s.services.FindByClinicIDs(ctx, []int64{clinicID})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ServiceSummary, 0, len(rows))
	for _, r := range rows {
		if r.ClinicID != clinicID {
			continue
		}
		out = append(out, r.Summary())
	}
	return out, nil
}
