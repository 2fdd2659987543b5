// Command sse serves the reminder event streams on their own, so long-lived
// connections can be scaled apart from the API. It needs Redis: events are
// published by the API processes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/internal/adapters/events"
	"github.com/medisearch-pro/backend/internal/api/handlers"
	"github.com/medisearch-pro/backend/internal/api/routes"
	"github.com/medisearch-pro/backend/internal/infrastructure/clients/redis"
	"github.com/medisearch-pro/backend/internal/infrastructure/observability"
	"github.com/medisearch-pro/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InitLogger("medisearch-sse", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	sseHandler := handlers.NewSSEHandler(eventBus)
	opsHandler := handlers.NewOpsHandler(nil, nil).
		WithCheck("redis", redisClient.Ping).
		WithStreams(sseHandler)

	router := routes.NewRouter(routes.Handlers{
		SSE: sseHandler,
		Ops: opsHandler,
	}, nil, cfg.Server.AllowedOrigins, metrics)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("SSE server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("SSE server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("SSE server shutting down")

	// closing the bus ends every open stream so Shutdown does not wait on them
	if err := eventBus.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing event bus")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}
	log.Info().Msg("SSE server stopped")
}
