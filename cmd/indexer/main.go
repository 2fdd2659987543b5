package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/adapters/catalog"
	"github.com/medisearch-pro/backend/internal/adapters/database"
	"github.com/medisearch-pro/backend/internal/adapters/search"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/postgres"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/typesense"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/pkg/config"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collections before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("medisearch-indexer", cfg.Env)

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("Invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			log.Error().Err(err).Msg("Reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("Reindex complete")
		select {
		case <-ctx.Done():
			log.Info().Msg("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		for _, schema := range typesense.Schemas() {
			log.Info().Str("collection", schema.Name).Msg("Deleting Typesense collection")
			if _, err := tsClient.Client().Collection(schema.Name).Delete(ctx); err != nil {
				log.Warn().Err(err).Str("collection", schema.Name).Msg("Failed to delete collection")
			}
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}
	index := search.NewTypesenseAdapter(tsClient)

	if cfg.Catalog.Source == "postgres" {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return err
		}
		defer pgClient.Close()

		adapter := database.NewCatalogAdapter(pgClient)
		_, err = search.Reindex(ctx, index, adapter.Medicines(), adapter.Doctors(), adapter.Hospitals())
		return err
	}

	var c *catalog.Catalog
	if cfg.Catalog.File != "" {
		c, err = catalog.Load(cfg.Catalog.File)
		if err != nil {
			return err
		}
	} else {
		data, err := catalog.Bundled()
		if err != nil {
			return err
		}
		c = catalog.New(data)
	}
	_, err = search.Reindex(ctx, index, c.Medicines(), c.Doctors(), c.Hospitals())
	return err
}
