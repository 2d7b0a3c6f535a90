package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/lead-crm-service/internal/api/http"
	"github.com/spec-kit/lead-crm-service/internal/api/http/handlers"
	"github.com/spec-kit/lead-crm-service/internal/auth"
	"github.com/spec-kit/lead-crm-service/internal/balancer"
	"github.com/spec-kit/lead-crm-service/internal/config"
	"github.com/spec-kit/lead-crm-service/internal/events"
	"github.com/spec-kit/lead-crm-service/internal/observability"
	"github.com/spec-kit/lead-crm-service/internal/persistence"
	"github.com/spec-kit/lead-crm-service/internal/repository"
	"github.com/spec-kit/lead-crm-service/internal/service"
	"github.com/spec-kit/lead-crm-service/internal/worker"
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

	pool := pg.PoolHandle()
	agentRepo := repository.NewAgentRepository(pool)
	leadRepo := repository.NewLeadRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	activityRepo := repository.NewActivityLogRepository(pool)
	integrationRepo := repository.NewIntegrationLogRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AgentRepo:         agentRepo,
		PasswordResetRepo: resetRepo,
	})
	agentService := service.NewAgentService(agentRepo, cfg.Auth.BcryptCost)
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:       leadRepo,
		AgentRepo:      agentRepo,
		AssignmentRepo: assignmentRepo,
		ActivityRepo:   activityRepo,
		Dispatcher:     dispatcher,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		LeadRepo:       leadRepo,
		AgentRepo:      agentRepo,
		AssignmentRepo: assignmentRepo,
		ActivityRepo:   activityRepo,
		Balancer:       balancer.New(),
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		LeadService:     leadService,
		Assignment:      assignmentService,
		IntegrationRepo: integrationRepo,
		Logger:          logger,
		Token:           cfg.Webhook.Token,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), agentRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:             handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Leads:              handlers.NewLeadsHandler(leadService, assignmentService, logger),
		Assignments:        handlers.NewAssignmentsHandler(assignmentService),
		Agents:             handlers.NewAgentsHandler(authService, agentService),
		Webhook:            handlers.NewWebhookHandler(intakeService),
		AuthMiddleware:     authMiddleware,
		WebhookRateLimiter: httptransport.WebhookRateLimiter(redis.Client, cfg.Webhook.RateLimitPerMinute, logger),
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
