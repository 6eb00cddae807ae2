package handler

import (
	"github.com/smileslot/clinic-api/internal/core/domain"
	"github.com/smileslot/clinic-api/internal/core/ports"
)

// --- Request → Service input ---

func toNearbyQuery(req nearbyRequest) ports.NearbyQuery {
	return ports.NearbyQuery{
		Center:   domain.Coordinate{Lat: req.Lat, Lng: req.Lng},
		RadiusKm: req.RadiusKm,
		Limit:    req.Limit,
	}
}

// --- Domain → Response ---

func toNearbyResponse(clinics []domain.NearbyClinic) []nearbyClinicResponse {
	out := make([]nearbyClinicResponse, 0, len(clinics))
	for _, c := range clinics {
		out = append(out, nearbyClinicResponse{
			ID:          c.ID,
			Name:        c.Name,
			Address:     c.Address,
			Lat:         c.Location.Lat,
			Lng:         c.Location.Lng,
			DistanceKm:  c.DistanceKm,
			TopServices: toServiceResponses(c.TopServices),
		})
	}
	return out
}

func toServiceResponses(services []domain.ServiceSummary) []serviceSummaryResponse {
	out := make([]serviceSummaryResponse, 0, len(services))
	for _, s := range services {
		out = append(out, serviceSummaryResponse{
			ID:           s.ID,
			Name:         s.Name,
			DurationMins: s.DurationMins,
			Price:        s.Price,
		})
	}
	return out
}
