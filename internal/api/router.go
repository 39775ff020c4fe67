package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/secretsapp/secrets-api/internal/api/handler"
	"github.com/secretsapp/secrets-api/internal/api/middleware"
	"github.com/secretsapp/secrets-api/internal/core/service"
	"github.com/secretsapp/secrets-api/internal/infrastructure/config"
	mongodb "github.com/secretsapp/secrets-api/internal/infrastructure/db/mongo"
	redisdb "github.com/secretsapp/secrets-api/internal/infrastructure/db/redis"
	"github.com/secretsapp/secrets-api/internal/infrastructure/queue"
)

// NewRouter builds the Echo instance with all routes registered and the
// audit dispatcher wired to the handlers. The caller starts the
// dispatcher alongside the server.
func NewRouter(
	cfg *config.Config,
	db *mongo.Database,
	rdb *redis.Client,
	providers handler.ProviderResolver,
	log zerolog.Logger,
) (*echo.Echo, *queue.Dispatcher, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("secrets"))

	// --- Core wiring ---
	hasher, err := service.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}

	userRepo := mongodb.NewUserRepository(db)
	local := service.NewLocalStrategy(userRepo, hasher, log)
	federated := service.NewFederatedStrategy(userRepo, log)

	sessionStore := redisdb.NewSessionStore(rdb)
	sessions := service.NewSessionManager(sessionStore, cfg.SessionTTL)
	tokens := service.NewJWTIssuer(cfg.SessionSecret, cfg.TokenTTL)

	auditSvc := service.NewAuditService(mongodb.NewAuditRepository(db), log)
	dispatcher := queue.NewDispatcher(0, auditSvc, log)

	authHandler := handler.NewAuthHandler(local, sessions, tokens, dispatcher, log)
	oauthHandler := handler.NewOAuthHandler(providers, federated, sessions, dispatcher, log)
	meHandler := handler.NewMeHandler(userRepo)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)

	// --- Federated login ---
	e.GET("/oauth/login/:provider", oauthHandler.Login)
	e.GET("/oauth/callback/:provider", oauthHandler.Callback)

	// --- Protected API (session cookie or bearer token) ---
	apiGroup := e.Group("/api", middleware.Authenticated(sessionStore, cfg.SessionSecret))
	apiGroup.GET("/me", meHandler.Me)
	apiGroup.GET("/secrets", meHandler.Secrets)

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(db, rdb).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, dispatcher, nil
}
