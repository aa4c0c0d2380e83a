package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"overworld-server/internal/api"
	catalogapp "overworld-server/internal/app/catalog"
	gameapp "overworld-server/internal/app/game"
	sessionapp "overworld-server/internal/app/session"
	"overworld-server/internal/domain/world"
	"overworld-server/internal/platform/cache"
	"overworld-server/internal/platform/config"
	"overworld-server/internal/platform/db"
	"overworld-server/internal/platform/migrate"
	"overworld-server/internal/platform/mq"
	"overworld-server/internal/platform/narrator"
	"overworld-server/internal/platform/observability"
	"overworld-server/internal/platform/registry"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.NewLogger(cfg.Env)

	// The database only backs the monster catalog; without one the embedded
	// catalog keeps the game playable.
	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = db.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unavailable; using embedded catalog")
			pool = nil
		}
	}
	if pool != nil {
		defer pool.Close()
		if err := migrate.Up(ctx, pool, cfg.MigrationDir); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
	}

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; continuing without description cache")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := mq.NewPublisher(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable; using noop publisher")
		publisher = mq.NewNoopPublisher()
	}
	defer publisher.Close()

	generator := world.NewGenerator(cfg.WorldSeed)
	narratorClient := narrator.NewClient(cfg.NarratorURL, cfg.NarratorTimeout)

	catalogSvc := catalogapp.NewService(logger, pool)
	if err := catalogSvc.Load(ctx); err != nil {
		logger.Fatal().Err(err).Msg("monster catalog load failed")
	}

	sessionSvc := sessionapp.NewService(cfg.JWTSecret, cfg.JWTTTL)

	newSession := func(renderer gameapp.Renderer) *gameapp.Session {
		return gameapp.NewSession(gameapp.Config{
			Logger:     logger,
			Generator:  generator,
			Catalog:    catalogSvc,
			Narrator:   narratorClient,
			Cache:      redisClient,
			CacheTTL:   cfg.DescriptionCacheTTL,
			Publisher:  publisher,
			Renderer:   renderer,
			ViewRadius: cfg.ViewRadius,
		})
	}

	// Convenience lookup for the debug surface; core components are wired
	// explicitly above.
	services := registry.New()
	services.Register("world.generator", generator)
	services.Register("monster.catalog", catalogSvc)
	services.Register("narrator.client", narratorClient)
	services.Register("session.service", sessionSvc)
	services.Register("mq.publisher", publisher)

	handler := api.NewHandler(logger, sessionSvc, catalogSvc, generator, services, newSession, cfg.CorsOrigin)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("seed", cfg.WorldSeed).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
