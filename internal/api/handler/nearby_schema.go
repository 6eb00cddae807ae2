package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
// Fields is set only for validation failures.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// --- Request / Response types ---

// nearbyRequest is GET /api/clinics/nearby's query string.
// lat and lng are required; radius_km and limit fall back to defaults
// when absent but are rejected when present and malformed.
type nearbyRequest struct {
	Lat      float64 `query:"lat"       validate:"latitude"`
	Lng      float64 `query:"lng"       validate:"longitude"`
	RadiusKm float64 `query:"radius_km" validate:"gt=0"`
	Limit    int     `query:"limit"     validate:"gt=0"`
}

type serviceSummaryResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	DurationMins int      `json:"duration_mins"`
	Price        *float64 `json:"price"`
}

type nearbyClinicResponse struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Address     string                   `json:"address"`
	Lat         float64                  `json:"lat"`
	Lng         float64                  `json:"lng"`
	DistanceKm  float64                  `json:"distance_km"`
	TopServices []serviceSummaryResponse `json:"top_services"`
}

type clinicServicesResponse struct {
	ClinicID int64                    `json:"clinic_id"`
	Services []serviceSummaryResponse `json:"services"`
}
