package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/smileslot/clinic-api/docs"
	"github.com/smileslot/clinic-api/internal/api/handler"
	"github.com/smileslot/clinic-api/internal/api/middleware"
	"github.com/smileslot/clinic-api/internal/core/ports"
	"github.com/smileslot/clinic-api/internal/infrastructure/http/handlers"
)

// Deps holds everything the router needs. Limiter may be nil, which disables
// throttling of the clinic routes.
type Deps struct {
	Logger  zerolog.Logger
	Nearby  ports.NearbyService
	Catalog ports.CatalogService
	Limiter middleware.Limiter
	// Probes are pinged by /health/ready, keyed by dependency name.
	Probes map[string]handlers.Pinger
	// Registry backs the HTTP metrics. Nil means the default registry, which
	// also carries the search metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	mwConfig := echoprometheus.MiddlewareConfig{Subsystem: "clinics"}
	handlerConfig := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		mwConfig.Registerer = d.Registry
		handlerConfig.Gatherer = d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(mwConfig))
	// The map picker is served from other origins; the API is read-only.
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}))

	// --- Clinic routes ---
	nearbyHandler := handler.NewNearbyHandler(d.Nearby, d.Catalog)

	clinics := e.Group("/api/clinics")
	if d.Limiter != nil {
		clinics.Use(middleware.RateLimit(d.Limiter, d.Logger))
	}
	clinics.GET("/nearby", nearbyHandler.Search)
	clinics.GET("/:id/services", nearbyHandler.Services)

	// --- Health probes ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerConfig))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
