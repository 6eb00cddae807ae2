package service

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/smileslot/clinic-api/internal/core/domain"
	"github.com/smileslot/clinic-api/internal/core/geo"
	"github.com/smileslot/clinic-api/internal/core/ports"
)

const (
	// MaxCandidates caps the rows the prefilter may pull from the store.
	MaxCandidates = 1000
	// TopServices is how many services are attached to each result.
	TopServices = 3
)

// NearbyService ranks the clinics around a point by exact distance.
type NearbyService struct {
	clinics   ports.ClinicRepository
	services  ports.ServiceRepository
	prefilter ports.Prefilter
	exact     ports.ExactFilter
	logger    zerolog.Logger
}

// NearbyOption customises a NearbyService.
type NearbyOption func(*NearbyService)

// WithPrefilter replaces the bounding-box prefilter.
func WithPrefilter(p ports.Prefilter) NearbyOption {
	return func(s *NearbyService) { s.prefilter = p }
}

// WithExactFilter replaces the haversine distance.
func WithExactFilter(f ports.ExactFilter) NearbyOption {
	return func(s *NearbyService) { s.exact = f }
}

// NewNearbyService builds a NearbyService using the bounding-box prefilter and
// haversine distance unless options replace them.
func NewNearbyService(
	clinics ports.ClinicRepository,
	services ports.ServiceRepository,
	logger zerolog.Logger,
	opts ...NearbyOption,
) *NearbyService {
	s := &NearbyService{
		clinics:   clinics,
		services:  services,
		prefilter: geo.BoxPrefilter{},
		exact:     geo.Haversine{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ranked struct {
	clinic   domain.Clinic
	loc      domain.Coordinate
	distance float64
}

// Nearby returns the clinics within q.RadiusKm of q.Center, nearest first,
// at most q.Limit of them, each with up to TopServices services attached.
//
// The store is queried twice: once for candidates inside the prefilter
// window and once, in a single batch, for the services of the survivors.
// Any store failure aborts the search; no partial result is returned.
func (s *NearbyService) Nearby(ctx context.Context, q ports.NearbyQuery) (*ports.NearbyResult, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	box := s.prefilter.Window(q.Center, q.RadiusKm)
	candidates, err := s.clinics.FindInBox(ctx, box, MaxCandidates)
	if err != nil {
		return nil, err
	}

	kept := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		if c.Location == nil {
			continue
		}
		d := s.exact.Distance(q.Center, *c.Location)
		if d > q.RadiusKm {
			continue
		}
		kept = append(kept, ranked{clinic: c, loc: *c.Location, distance: d})
	}

	// Equal distances keep store order.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].distance < kept[j].distance
	})
	inRadius := len(kept)
	if len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}

	byClinic, err := s.topServices(ctx, kept)
	if err != nil {
		return nil, err
	}

	out := make([]domain.NearbyClinic, 0, len(kept))
	for _, k := range kept {
		top := byClinic[k.clinic.ID]
		if top == nil {
			top = []domain.ServiceSummary{}
		}
		out = append(out, domain.NearbyClinic{
			ID:          k.clinic.ID,
			Name:        k.clinic.Name,
			Address:     k.clinic.Address,
			Location:    k.loc,
			DistanceKm:  reportedDistance(k.distance, q.RadiusKm),
			TopServices: top,
		})
	}

	s.logger.Debug().
		Float64("lat", q.Center.Lat).
		Float64("lng", q.Center.Lng).
		Float64("radius_km", q.RadiusKm).
		Int("candidates", len(candidates)).
		Int("in_radius", inRadius).
		Int("returned", len(out)).
		Msg("nearby search")

	return &ports.NearbyResult{Clinics: out, Candidates: len(candidates)}, nil
}

// reportedDistance rounds d to hundredths without letting the reported value
// exceed radius. d is already known to be within radius.
func reportedDistance(d, radius float64) float64 {
	km := geo.RoundKm(d)
	if km > radius {
		return math.Floor(d*100) / 100
	}
	return km
}

func validateQuery(q ports.NearbyQuery) error {
	ve := domain.NewValidationError()
	if math.IsNaN(q.Center.Lat) || q.Center.Lat < -90 || q.Center.Lat > 90 {
		ve.Add("lat", "must be between -90 and 90")
	}
	if math.IsNaN(q.Center.Lng) || q.Center.Lng < -180 || q.Center.Lng > 180 {
		ve.Add("lng", "must be between -180 and 180")
	}
	if !(q.RadiusKm > 0) || math.IsInf(q.RadiusKm, 1) {
		ve.Add("radius_km", "must be greater than 0")
	}
	if q.Limit <= 0 {
		ve.Add("limit", "must be greater than 0")
	}
	if ve.Empty() {
		return nil
	}
	return ve
}

// topServices batch-loads services for the ranked clinics and keeps the
// first TopServices per clinic in store order.
func (s *NearbyService) topServices(ctx context.Context, kept []ranked) (map[int64][]domain.ServiceSummary, error) {
	if len(kept) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(kept))
	seen := make(map[int64]struct{}, len(kept))
	for _, k := range kept {
		if _, ok := seen[k.clinic.ID]; ok {
			continue
		}
		seen[k.clinic.ID] = struct{}{}
		ids = append(ids, k.clinic.ID)
	}

	rows, err := s.services.FindByClinicIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	grouped := make(map[int64][]domain.ServiceSummary, len(ids))
	for _, svc := range rows {
		if len(grouped[svc.ClinicID]) >= TopServices {
			continue
		}
		grouped[svc.ClinicID] = append(grouped[svc.ClinicID], svc.Summary())
	}
	return grouped, nil
}
