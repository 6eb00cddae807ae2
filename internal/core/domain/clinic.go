package domain

// Clinic is a clinic row as read from the clinic store.
// Location is nil when the clinic has not been geocoded.
type Clinic struct {
	ID       int64
	Name     string
	Address  string
	Location *Coordinate
}

// Service is an offering attached to a clinic. Price is nil when unset.
type Service struct {
	ID           int64
	ClinicID     int64
	Name         string
	DurationMins int
	Price        *float64
}

// ServiceSummary is the truncated view of a service attached to a search result.
type ServiceSummary struct {
	ID           int64
	Name         string
	DurationMins int
	Price        *float64
}

// Summary projects a Service onto its search-result view.
func (s Service) Summary() ServiceSummary {
	return ServiceSummary{
		ID:           s.ID,
		Name:         s.Name,
		DurationMins: s.DurationMins,
		Price:        s.Price,
	}
}

// NearbyClinic is a single item of a proximity search result.
// DistanceKm is rounded to two decimals; TopServices is never nil.
type NearbyClinic struct {
	ID          int64
	Name        string
	Address     string
	Location    Coordinate
	DistanceKm  float64
	TopServices []ServiceSummary
}
