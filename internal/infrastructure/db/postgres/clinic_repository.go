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

// ClinicRepository reads clinic rows from clinics_clinic through goqu-built queries.
type ClinicRepository struct {
	db      *sql.DB
	timeout time.Duration
	logger  zerolog.Logger
}

// NewClinicRepository falls back to a 5s query timeout when timeout is not positive.
func NewClinicRepository(db *sql.DB, timeout time.Duration, logger zerolog.Logger) *ClinicRepository {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ClinicRepository{db: db, timeout: timeout, logger: logger}
}

func boxQuery(box domain.BoundingBox, max int) (string, []any, error) {
	return dialect().
		From(tableClinics).
		Select("id", "name", "lat", "lng", "address").
		Where(
			goqu.C("lat").Between(goqu.Range(box.MinLat, box.MaxLat)),
			goqu.C("lng").Between(goqu.Range(box.MinLng, box.MaxLng)),
		).
		Limit(uint(max)).
		Prepared(true).
		ToSQL()
}

// FindInBox returns at most max clinics whose lat/lng fall inside box.
// BETWEEN never matches a NULL coordinate; rows are still scanned as
// nullable so a store without that guarantee degrades to a nil Location.
func (r *ClinicRepository) FindInBox(ctx context.Context, box domain.BoundingBox, max int) ([]domain.Clinic, error) {
	query, args, err := boxQuery(box, max)
	if err != nil {
		return nil, fmt.Errorf("build clinic box query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query clinics: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	clinics := make([]domain.Clinic, 0)
	for rows.Next() {
		var (
			c        domain.Clinic
			lat, lng sql.NullFloat64
			address  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &lat, &lng, &address); err != nil {
			return nil, fmt.Errorf("%w: scan clinic: %w", domain.ErrStoreUnavailable, err)
		}
		if lat.Valid && lng.Valid {
			c.Location = &domain.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
		}
		c.Address = address.String
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate clinics: %w", domain.ErrStoreUnavailable, err)
	}

	r.logger.Debug().
		Int("rows", len(clinics)).
		Dur("took", time.Since(start)).
		Msg("clinics in box")

	return clinics, nil
}
