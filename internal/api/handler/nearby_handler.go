package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smileslot/clinic-api/internal/api/metrics"
	"github.com/smileslot/clinic-api/internal/core/domain"
	"github.com/smileslot/clinic-api/internal/core/ports"
)

// NearbyHandler serves the clinic proximity search and the per-clinic
// service catalogue behind it.
type NearbyHandler struct {
	nearby  ports.NearbyService
	catalog ports.CatalogService
}

func NewNearbyHandler(nearby ports.NearbyService, catalog ports.CatalogService) *NearbyHandler {
	return &NearbyHandler{nearby: nearby, catalog: catalog}
}

// Search handles GET /api/clinics/nearby.
//
// @Summary      Find clinics near a point
// @Description  Returns clinics within radius_km of (lat, lng), nearest first, each with up to three services.
// @Tags         clinics
// @Produce      json
// @Param        lat        query     number   true   "Latitude in decimal degrees"
// @Param        lng        query     number   true   "Longitude in decimal degrees"
// @Param        radius_km  query     number   false  "Search radius in kilometres"  default(5)
// @Param        limit      query     integer  false  "Maximum number of clinics"    default(50)
// @Success      200        {array}   nearbyClinicResponse
// @Failure      400        {object}  errorResponse
// @Failure      429        {object}  errorResponse
// @Failure      503        {object}  errorResponse
// @Router       /api/clinics/nearby [get]
func (h *NearbyHandler) Search(c echo.Context) error {
	start := time.Now()

	req, err := bindNearbyRequest(c)
	if err != nil {
		metrics.NearbySearchesTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return err
	}

	res, err := h.nearby.Nearby(c.Request().Context(), toNearbyQuery(req))
	if err != nil {
		metrics.NearbySearchesTotal.WithLabelValues(outcomeOf(err)).Inc()
		return err
	}

	metrics.NearbySearchDuration.Observe(time.Since(start).Seconds())
	metrics.NearbyCandidates.Observe(float64(res.Candidates))
	metrics.NearbyResults.Observe(float64(len(res.Clinics)))
	outcome := metrics.OutcomeOK
	if len(res.Clinics) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.NearbySearchesTotal.WithLabelValues(outcome).Inc()

	return c.JSON(http.StatusOK, toNearbyResponse(res.Clinics))
}

// Services handles GET /api/clinics/:id/services.
//
// @Summary      List every service of a clinic
// @Tags         clinics
// @Produce      json
// @Param        id   path      integer  true  "Clinic id"
// @Success      200  {object}  clinicServicesResponse
// @Failure      400  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/clinics/{id}/services [get]
func (h *NearbyHandler) Services(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ve := domain.NewValidationError()
		ve.Add("id", "must be a positive integer")
		return ve
	}

	services, err := h.catalog.ClinicServices(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, clinicServicesResponse{
		ClinicID: id,
		Services: toServiceResponses(services),
	})
}

// bindNearbyRequest parses the query string into a nearbyRequest, collecting
// every parse and range failure into one ValidationError.
func bindNearbyRequest(c echo.Context) (nearbyRequest, error) {
	req := nearbyRequest{
		RadiusKm: ports.DefaultRadiusKm,
		Limit:    ports.DefaultLimit,
	}

	errs := echo.QueryParamsBinder(c).
		FailFast(false).
		MustFloat64("lat", &req.Lat).
		MustFloat64("lng", &req.Lng).
		Float64("radius_km", &req.RadiusKm).
		Int("limit", &req.Limit).
		BindErrors()

	ve := domain.NewValidationError()
	for _, err := range errs {
		var be *echo.BindingError
		if !errors.As(err, &be) {
			return req, err
		}
		ve.Add(be.Field, bindingReason(be))
	}

	if err := c.Validate(&req); err != nil {
		var fields *domain.ValidationError
		if !errors.As(err, &fields) {
			return req, err
		}
		for name, reason := range fields.Fields {
			ve.Add(name, reason)
		}
	}

	if !ve.Empty() {
		return req, ve
	}
	return req, nil
}

func bindingReason(be *echo.BindingError) string {
	if len(be.Values) == 0 || be.Values[0] == "" {
		return "is required"
	}
	if be.Field == "limit" {
		return "must be an integer"
	}
	return "must be a number"
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrStoreUnavailable):
		return metrics.OutcomeStoreError
	default:
		return metrics.OutcomeError
	}
}
