package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/smileslot/clinic-api/internal/infrastructure/config"
	mongostore "github.com/smileslot/clinic-api/internal/infrastructure/db/mongo"
	pgstore "github.com/smileslot/clinic-api/internal/infrastructure/db/postgres"
	"github.com/smileslot/clinic-api/pkg/logger"
)

const defaultSeedPath = "data/seeds/clinics.json"

// dbtool prepares the configured store: schema and demo data for Postgres,
// indexes for MongoDB.
func main() {
	envErr := godotenv.Load()

	log := logger.Init(logger.Options{Level: "info", Pretty: true, Service: "clinic-dbtool"})
	if envErr != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Fatal().Err(err).Msg("connect mongo")
		}
		defer client.Disconnect(context.Background())

		log.Info().Str("database", cfg.Mongo.Database).Msg("ensuring indexes")
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("ensure indexes")
		}
		log.Info().Msg("indexes ready")

	default:
		db, err := pgstore.Open(ctx, pgstore.Config{URL: cfg.Postgres.URL})
		if err != nil {
			log.Fatal().Err(err).Msg("open postgres")
		}
		defer db.Close()

		log.Info().Msg("initializing database schema")
		if err := pgstore.InitSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("schema initialization failed")
		}

		seedPath := os.Getenv("SEED_PATH")
		if seedPath == "" {
			seedPath = defaultSeedPath
		}
		log.Info().Str("path", seedPath).Msg("seeding database")
		if err := pgstore.SeedFromJSON(ctx, db, seedPath); err != nil {
			log.Fatal().Err(err).Msg("seeding failed")
		}
		log.Info().Msg("seeding complete")
	}
}
