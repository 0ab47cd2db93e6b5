package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/mionax/starfusion-manager/internal/api/http"
	"github.com/mionax/starfusion-manager/internal/api/http/handlers"
	"github.com/mionax/starfusion-manager/internal/auth"
	"github.com/mionax/starfusion-manager/internal/cache"
	"github.com/mionax/starfusion-manager/internal/config"
	"github.com/mionax/starfusion-manager/internal/content"
	"github.com/mionax/starfusion-manager/internal/entitlement"
	"github.com/mionax/starfusion-manager/internal/events"
	"github.com/mionax/starfusion-manager/internal/identity"
	"github.com/mionax/starfusion-manager/internal/observability"
	"github.com/mionax/starfusion-manager/internal/service"
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

	metrics := observability.NewMetrics()

	var store cache.Cache
	var redisCache *cache.RedisCache
	if strings.EqualFold(cfg.Cache.Backend, "redis") {
		redisCache = cache.NewRedisCache(cfg.Cache.Redis.Addr, cfg.Cache.Redis.Password, cfg.Cache.Redis.DB, cfg.Cache.TTL(), logger)
		defer redisCache.Close()
		store = redisCache
	} else {
		store = cache.NewMemoryCache(cfg.Cache.TTL(), logger)
	}

	catalog := entitlement.LoadCatalog(cfg.Workflow.CatalogPath, logger)
	resolver := entitlement.NewResolver(logger)

	provider := identity.NewAuthingClient(cfg.Authing, metrics, logger)

	github := content.NewGitHubClient(cfg.GitHub, metrics, logger)
	remote := content.NewRemoteSource(github, store, metrics, cfg.Workflow.FileExtension, logger)
	local := content.NewLocalSource(cfg.Workflow.LocalDir, cfg.Workflow.FileExtension, logger)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(logger).RegisterHandlers(dispatcher)

	authService := service.NewAuthService(provider, dispatcher, logger)
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		Provider:   provider,
		Resolver:   resolver,
		Catalog:    catalog,
		Remote:     remote,
		Local:      local,
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		RemoteBase: cfg.Workflow.RemoteBase,
		Extension:  cfg.Workflow.FileExtension,
	}, logger)

	authMiddleware := auth.NewMiddleware(provider)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redisCache),
		Users:          handlers.NewUsersHandler(authService),
		Workflows:      handlers.NewWorkflowsHandler(workflowService),
		UserWorkflows:  handlers.NewUserWorkflowsHandler(workflowService),
		Admin:          handlers.NewAdminHandler(workflowService),
		AuthMiddleware: authMiddleware,
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
