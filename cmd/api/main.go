package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/lukeeterna/dropevolution-api/internal/api/http"
	"github.com/lukeeterna/dropevolution-api/internal/api/http/handlers"
	"github.com/lukeeterna/dropevolution-api/internal/auth"
	"github.com/lukeeterna/dropevolution-api/internal/config"
	"github.com/lukeeterna/dropevolution-api/internal/observability"
	"github.com/lukeeterna/dropevolution-api/internal/persistence"
	"github.com/lukeeterna/dropevolution-api/internal/ratelimit"
	"github.com/lukeeterna/dropevolution-api/internal/repository"
	"github.com/lukeeterna/dropevolution-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// A missing signing key lands here. Refusing to start beats
		// silently issuing forgeable tokens.
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	if err != nil {
		logger.Fatal("failed to build token manager", zap.Error(err))
	}
	verifier := auth.NewVerifier(tokens, time.Now)

	userRepo := repository.NewUserRepository(pg.PoolHandle())
	identity := service.NewIdentityService(userRepo, redis.Client, cfg.Auth.PrincipalCacheTTL(), logger)
	authService := service.NewAuthService(userRepo, tokens, cfg.Auth.BcryptCost, time.Now)

	limits := ratelimit.NewRegistry(cfg.RateLimit.MaxAuth, cfg.RateLimit.MaxDefault, cfg.RateLimit.Window())
	defer limits.Close()

	admission := auth.NewAdmission(verifier, identity, limits, cfg.RateLimit.Enabled, time.Now)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:      handlers.NewAuthHandler(authService),
		Admission: admission,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
