// @title        Clinic API
// @version      1.0
// @description  Nearby-clinic search over a relational or document store.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/smileslot/clinic-api/internal/api"
	"github.com/smileslot/clinic-api/internal/core/ports"
	"github.com/smileslot/clinic-api/internal/core/service"
	"github.com/smileslot/clinic-api/internal/infrastructure/config"
	mongostore "github.com/smileslot/clinic-api/internal/infrastructure/db/mongo"
	pgstore "github.com/smileslot/clinic-api/internal/infrastructure/db/postgres"
	redisstore "github.com/smileslot/clinic-api/internal/infrastructure/db/redis"
	"github.com/smileslot/clinic-api/internal/infrastructure/http/handlers"
	"github.com/smileslot/clinic-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// store bundles the repositories of the selected backend with its readiness
// probe and a release func.
type store struct {
	clinics  ports.ClinicRepository
	services ports.ServiceRepository
	probe    handlers.Pinger
	close    func(context.Context) error
}

func main() {
	envErr := godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "clinic-api"})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "clinic-api",
	})
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	st, err := openStore(ctx, cfg, logger.For(cfg.Store.Driver))
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("open clinic store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close clinic store")
		}
	}()

	probes := map[string]handlers.Pinger{cfg.Store.Driver: st.probe}
	deps := api.Deps{
		Logger:  logger.For("http"),
		Nearby:  service.NewNearbyService(st.clinics, st.services, logger.For("nearby")),
		Catalog: service.NewCatalogService(st.services),
		Probes:  probes,
	}

	if cfg.RateLimitEnabled() {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("connect redis")
		}
		defer rdb.Close()

		deps.Limiter = redisstore.NewRateLimiter(rdb, "nearby", cfg.RateLimit.PerMinute)
		probes["redis"] = redisstore.NewPinger(rdb)
	} else {
		log.Info().Msg("rate limiting disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", cfg.Store.Driver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	timeout := cfg.Store.QueryTimeout

	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  timeout,
		})
		if err != nil {
			return nil, err
		}
		return &store{
			clinics:  mongostore.NewClinicRepository(db, timeout, log),
			services: mongostore.NewServiceRepository(db, timeout, log),
			probe:    mongostore.NewPinger(db),
			close:    client.Disconnect,
		}, nil

	default:
		db, err := pgstore.Open(ctx, pgstore.Config{
			URL:          cfg.Postgres.URL,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			Timeout:      timeout,
		})
		if err != nil {
			return nil, err
		}
		return &store{
			clinics:  pgstore.NewClinicRepository(db, timeout, log),
			services: pgstore.NewServiceRepository(db, timeout, log),
			probe:    pgstore.NewPinger(db),
			close:    func(context.Context) error { return db.Close() },
		}, nil
	}
}
