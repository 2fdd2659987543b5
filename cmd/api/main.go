package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/adapters/assistant"
	"github.com/medisearch-pro/backend/internal/adapters/cache"
	"github.com/medisearch-pro/backend/internal/adapters/catalog"
	"github.com/medisearch-pro/backend/internal/adapters/database"
	"github.com/medisearch-pro/backend/internal/adapters/events"
	"github.com/medisearch-pro/backend/internal/adapters/search"
	"github.com/medisearch-pro/backend/internal/api/handlers"
	"github.com/medisearch-pro/backend/internal/api/middleware"
	"github.com/medisearch-pro/backend/internal/api/routes"
	"github.com/medisearch-pro/backend/internal/application/services"
	"github.com/medisearch-pro/backend/internal/domain/providers"
	"github.com/medisearch-pro/backend/internal/domain/repositories"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/postgres"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/redis"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/sqlite"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/typesense"
	"github.com/medisearch-pro/backend/internal/infrastructure/migrations"
	"github.com/medisearch-pro/backend/internal/infrastructure/notifications"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/internal/infrastructure/report"
	"github.com/medisearch-pro/backend/pkg/config"
)

const (
	memoryCacheSize     = 4096
	cacheWarmInterval   = 5 * time.Minute
	shutdownGracePeriod = 10 * time.Second
)

// sqlStore is satisfied by the postgres and sqlite clients.
type sqlStore interface {
	database.SQLClient
	Ping(ctx context.Context) error
	Close() error
}

// directory bundles the three directory repositories.
type directory struct {
	medicines repositories.MedicineRepository
	doctors   repositories.DoctorRepository
	hospitals repositories.HospitalRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				if err := shutdown(sctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	store, err := openStore(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialize database")
	}
	defer store.Close()

	if cfg.Database.RunMigrations {
		if err := migrations.Up(cfg.Database.Driver, cfg.Database.MigrationURL()); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			// the API keeps working with the in-process cache and event bus
			log.Warn().Err(err).Msg("Redis unavailable, falling back to in-process cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
	} else {
		memory, err := cache.NewMemoryAdapter(memoryCacheSize)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create memory cache")
		}
		cacheProvider = memory
		eventBus = events.NewMemoryEventBus()
	}

	var index providers.DirectoryIndex
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, directory search uses the catalog")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to init Typesense schema")
		} else {
			index = search.NewTypesenseAdapter(tsClient)
		}
	}

	source, err := openDirectory(ctx, cfg, store, cacheProvider, index)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load directory")
	}
	cached := directory{
		medicines: database.NewCachedMedicineRepository(source.medicines, cacheProvider),
		doctors:   database.NewCachedDoctorRepository(source.doctors, cacheProvider),
		hospitals: database.NewCachedHospitalRepository(source.hospitals, cacheProvider),
	}

	analyticsService := services.NewSearchAnalyticsService(database.NewSearchAnalyticsAdapter(store))
	directoryService := services.NewDirectoryService(cached.medicines, cached.doctors, cached.hospitals, analyticsService)
	if index != nil {
		directoryService.WithIndex(index)
	}

	var provider providers.AssistantProvider
	breaker, err := assistant.NewFromConfig(ctx, &cfg.AI)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.AI.Provider).Msg("Assistant disabled")
		provider = assistant.DisabledProvider{}
	} else {
		provider = breaker
	}
	assistantService := services.NewAssistantService(provider, report.NewRenderer(cfg.Report.FontPaths), metrics)

	reminderRepo := database.NewReminderAdapter(store)
	reminderService := services.NewReminderService(reminderRepo, eventBus).WithLocation(cfg.Reminders.Location)
	feedbackService := services.NewFeedbackService(database.NewFeedbackAdapter(store))

	workers := make(chan struct{})
	if cfg.Reminders.NotifyEnabled {
		notifier := services.NewReminderNotifier(reminderRepo, reminderSenders(&cfg.Notifications), eventBus, metrics, cfg.Reminders)
		go func() {
			defer close(workers)
			notifier.Run(ctx)
		}()
	} else {
		close(workers)
	}

	warmingService := services.NewCacheWarmingService(cached.medicines, cached.doctors, cached.hospitals, analyticsService, cacheProvider)
	go warmingService.StartPeriodicWarming(ctx, cacheWarmInterval)

	cacheMiddleware := middleware.NewCacheMiddleware(cacheProvider)
	sseHandler := handlers.NewSSEHandler(eventBus)
	opsHandler := handlers.NewOpsHandler(analyticsService, warmingService).
		WithCheck("database", store.Ping).
		WithInvalidator(func(ctx context.Context) error {
			return cacheMiddleware.InvalidateCache(ctx, middleware.HTTPCachePattern)
		}).
		WithStreams(sseHandler)
	if redisClient != nil {
		opsHandler.WithCheck("redis", redisClient.Ping)
	}

	router := routes.NewRouter(routes.Handlers{
		Directory: handlers.NewDirectoryHandler(directoryService),
		Assistant: handlers.NewAssistantHandler(assistantService),
		Reminder:  handlers.NewReminderHandler(reminderService),
		Feedback:  handlers.NewFeedbackHandler(feedbackService, cacheProvider),
		SSE:       sseHandler,
		Ops:       opsHandler,
	}, cacheMiddleware, cfg.Server.AllowedOrigins, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: SSE streams stay open and blood reports can take
		// close to the LLM timeout
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Str("env", cfg.Env).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	failed := false
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
		failed = true
		cancel()
	}

	log.Info().Msg("Server shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer shutdownCancel()

	// closing the bus ends open SSE streams so Shutdown does not wait on them
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	<-workers
	analyticsService.Wait()

	log.Info().Msg("Server stopped")
	if failed {
		os.Exit(1)
	}
}

func openStore(cfg *config.DatabaseConfig) (sqlStore, error) {
	if cfg.Driver == "sqlite" {
		return sqlite.NewClient(cfg)
	}
	return postgres.NewClient(cfg)
}

// openDirectory returns the uncached directory repositories for the
// configured source. The memory source hot reloads CATALOG_FILE when
// CATALOG_WATCH is set.
func openDirectory(
	ctx context.Context,
	cfg *config.Config,
	store sqlStore,
	cacheProvider providers.CacheProvider,
	index providers.DirectoryIndex,
) (directory, error) {
	if cfg.Catalog.Source == "postgres" {
		adapter := database.NewCatalogAdapter(store)
		log.Info().Msg("Directory served from PostgreSQL")
		return directory{adapter.Medicines(), adapter.Doctors(), adapter.Hospitals()}, nil
	}

	var c *catalog.Catalog
	if cfg.Catalog.File != "" {
		loaded, err := catalog.Load(cfg.Catalog.File)
		if err != nil {
			return directory{}, err
		}
		c = loaded
	} else {
		data, err := catalog.Bundled()
		if err != nil {
			return directory{}, err
		}
		c = catalog.New(data)
	}
	dir := directory{c.Medicines(), c.Doctors(), c.Hospitals()}

	if cfg.Catalog.Watch && cfg.Catalog.File != "" {
		go func() {
			err := c.Watch(ctx, cfg.Catalog.File, func(*catalog.Data) {
				if err := database.InvalidateDirectoryCache(ctx, cacheProvider); err != nil {
					log.Warn().Err(err).Msg("Failed to invalidate directory cache after reload")
				}
				if err := cacheProvider.DeletePattern(ctx, middleware.HTTPCachePattern); err != nil {
					log.Warn().Err(err).Msg("Failed to invalidate HTTP cache after reload")
				}
				if index != nil {
					if _, err := search.Reindex(ctx, index, dir.medicines, dir.doctors, dir.hospitals); err != nil {
						log.Warn().Err(err).Msg("Failed to reindex reloaded catalog")
					}
				}
			})
			if err != nil {
				log.Error().Err(err).Str("file", cfg.Catalog.File).Msg("Catalog watcher stopped")
			}
		}()
		log.Info().Str("file", cfg.Catalog.File).Msg("Watching catalog for changes")
	}
	return dir, nil
}

// reminderSenders returns every configured channel, or a log sender when
// none is configured.
func reminderSenders(cfg *config.NotificationConfig) []providers.ReminderSender {
	var senders []providers.ReminderSender
	if s, err := notifications.NewWhatsAppCloudSender(cfg); err == nil {
		senders = append(senders, s)
	} else {
		log.Debug().Err(err).Msg("WhatsApp reminders disabled")
	}
	if s, err := notifications.NewTelegramSender(cfg); err == nil {
		senders = append(senders, s)
	} else {
		log.Debug().Err(err).Msg("Telegram reminders disabled")
	}
	if len(senders) == 0 {
		senders = append(senders, notifications.NewLogSender(log.Logger))
	}
	return senders
}
