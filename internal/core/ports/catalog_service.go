package ports

import (
	"context"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

// CatalogService lists the full service catalogue of a single clinic.
type CatalogService interface {
	ClinicServices(ctx context.Context, clinicID int64) ([]domain.ServiceSummary, error)
}
