// Command seed loads directory data into PostgreSQL so the API can serve it
// with CATALOG_SOURCE=postgres.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/medisearch-pro/backend/internal/adapters/cache"
	"github.com/medisearch-pro/backend/internal/adapters/catalog"
	"github.com/medisearch-pro/backend/internal/adapters/database"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/postgres"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/redis"
	"github.com/medisearch-pro/backend/internal/infrastructure/migrations"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/pkg/config"
)

func main() {
	var file string
	var migrate bool
	flag.StringVar(&file, "file", "", "catalog YAML to load (defaults to the bundled catalog)")
	flag.BoolVar(&migrate, "migrate", true, "apply pending migrations first")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("medisearch-seed", cfg.Env)

	if cfg.Database.Driver != "postgres" {
		log.Fatal().Str("driver", cfg.Database.Driver).Msg("Seeding requires DB_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := loadData(file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load catalog")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pgClient.Close()

	if migrate {
		if err := migrations.Up("postgres", cfg.Database.MigrationURL()); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	adapter := database.NewCatalogAdapter(pgClient)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return adapter.UpsertMedicines(gctx, data.Medicines) })
	g.Go(func() error { return adapter.UpsertDoctors(gctx, data.Doctors) })
	g.Go(func() error { return adapter.UpsertHospitals(gctx, data.Hospitals) })
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	log.Info().
		Int("medicines", len(data.Medicines)).
		Int("doctors", len(data.Doctors)).
		Int("hospitals", len(data.Hospitals)).
		Msg("Directory seeded")

	// drop cached pages so running APIs read the new rows
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, cached directory pages were not invalidated")
			return
		}
		defer redisClient.Close()
		if err := database.InvalidateDirectoryCache(ctx, cache.NewRedisAdapter(redisClient)); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate directory cache")
		}
	}
}

func loadData(file string) (*catalog.Data, error) {
	if file == "" {
		return catalog.Bundled()
	}
	c, err := catalog.Load(file)
	if err != nil {
		return nil, err
	}
	return c.Snapshot(), nil
}
