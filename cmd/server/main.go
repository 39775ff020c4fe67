package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secretsapp/secrets-api/internal/api"
	"github.com/secretsapp/secrets-api/internal/api/handler"
	"github.com/secretsapp/secrets-api/internal/core/ports"
	"github.com/secretsapp/secrets-api/internal/infrastructure/config"
	mongodb "github.com/secretsapp/secrets-api/internal/infrastructure/db/mongo"
	redisdb "github.com/secretsapp/secrets-api/internal/infrastructure/db/redis"
	"github.com/secretsapp/secrets-api/internal/infrastructure/identity"
	"github.com/secretsapp/secrets-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Level: "info"})
		l := logger.Get()
		l.Fatal().Err(err).Msg("configuration error")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	if err := mongodb.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// --- Identity providers ---
	var providers []ports.IdentityProvider
	if cfg.Google.Enabled() {
		google, err := identity.NewGoogleProvider(ctx, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
		if err != nil {
			log.Fatal().Err(err).Msg("google provider init failed")
		}
		providers = append(providers, google)
		log.Info().Msg("google login enabled")
	}
	var resolver handler.ProviderResolver = identity.NewRegistry(providers...)

	// --- HTTP server + audit dispatcher ---
	e, dispatcher, err := api.NewRouter(cfg, db, rdb, resolver, log)
	if err != nil {
		log.Fatal().Err(err).Msg("router setup failed")
	}
	dispatcher.Start(ctx)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("secrets-api started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	log.Info().Msg("secrets-api stopped")
}
