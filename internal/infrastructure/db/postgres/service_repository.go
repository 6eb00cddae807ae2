package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog"

	"github.com/smileslot/clinic-api/internal/core/domain"
)

// ServiceRepository reads service rows from clinics_service through goqu-built queries.
type ServiceRepository struct {
	db      *sql.DB
	timeout time.Duration
	logger  zerolog.Logger
}

// NewServiceRepository falls back to a 5s query timeout when timeout is not positive.
func NewServiceRepository(db *sql.DB, timeout time.Duration, logger zerolog.Logger) *ServiceRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ServiceRepository{db: db, timeout: timeout, logger: logger}
}

func servicesQuery(clinicIDs []int64) (string, []any, error) {
	return dialect().
		From(tableServices).
		Select(
			"id",
			"clinic_id",
			"name",
			"duration_mins",
			goqu.Cast(goqu.C("price"), "DOUBLE PRECISION").As("price"),
		).
		Where(goqu.C("clinic_id").In(clinicIDs)).
		Order(goqu.C("clinic_id").Asc(), goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
}

// FindByClinicIDs loads the services of every listed clinic in one query.
// An empty id list returns immediately without touching the database.
func (r *ServiceRepository) FindByClinicIDs(ctx context.Context, clinicIDs []int64) ([]domain.Service, error) {
	if len(clinicIDs) == 0 {
		return []domain.Service{}, nil
	}

	query, args, err := servicesQuery(clinicIDs)
	if err != nil {
		return nil, fmt.Errorf("build services query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query services: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		var (
			s     domain.Service
			price sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.ClinicID, &s.Name, &s.DurationMins, &price); err != nil {
			return nil, fmt.Errorf("%w: scan service: %w", domain.ErrStoreUnavailable, err)
		}
		if price.Valid {
			p := price.Float64
			s.Price = &p
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate services: %w", domain.ErrStoreUnavailable, err)
	}

	r.logger.Debug().
		Int("clinics", len(clinicIDs)).
		Int("rows", len(services)).
		Dur("took", time.Since(start)).
		Msg("services by clinic")

	return services, nil
}
