package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/courtweb-service/internal/api/http"
	"github.com/spec-kit/courtweb-service/internal/api/http/handlers"
	"github.com/spec-kit/courtweb-service/internal/auth"
	"github.com/spec-kit/courtweb-service/internal/config"
	"github.com/spec-kit/courtweb-service/internal/events"
	"github.com/spec-kit/courtweb-service/internal/observability"
	"github.com/spec-kit/courtweb-service/internal/permission"
	"github.com/spec-kit/courtweb-service/internal/persistence"
	"github.com/spec-kit/courtweb-service/internal/repository"
	"github.com/spec-kit/courtweb-service/internal/service"
	"github.com/spec-kit/courtweb-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
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

	metrics := observability.NewMetrics()
	store := newSessionStore(cfg.Session.StoreDriver, pg, redis, logger)
	permissionClient := permission.NewClient(cfg.Permission)
	dispatcher := events.NewInMemoryDispatcher()

	signinService := service.NewSignInService(*cfg, service.SignInDependencies{
		Permissions: permissionClient,
		Store:       store,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	verifier := service.NewSessionVerifier(store, metrics, logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)

	worker.StartNotificationWorker(notificationService)
	worker.StartSessionSweeper(ctx, store, dispatcher, metrics, logger, cfg.Session.SweepInterval())

	authMiddleware := auth.NewAuthMiddleware(signinService.TokenManager())
	routeGuard := auth.NewRouteGuard(cfg.Session)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	authHandler := handlers.NewAuthHandler(signinService)
	permissionsHandler := handlers.NewPermissionsHandler(verifier, permissionClient)
	sessionHandler := handlers.NewSessionHandler(store)
	secureHandler := handlers.NewSecureExampleHandler(verifier)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Permissions:    permissionsHandler,
		Sessions:       sessionHandler,
		Secure:         secureHandler,
		AuthMiddleware: authMiddleware,
		RouteGuard:     routeGuard,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func newSessionStore(driver string, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) repository.SessionStore {
	switch driver {
	case "redis":
		return repository.NewRedisSessionStore(redis.Client, logger)
	case "memory":
		return repository.NewMemorySessionStore()
	default:
		if pg.PoolHandle() == nil {
			logger.Warn("no postgres pool available; falling back to in-memory session store")
			return repository.NewMemorySessionStore()
		}
		return repository.NewPostgresSessionStore(pg.PoolHandle(), logger)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
