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

	httptransport "github.com/spec-kit/helpdesk-sla/internal/api/http"
	"github.com/spec-kit/helpdesk-sla/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/observability"
	"github.com/spec-kit/helpdesk-sla/internal/persistence"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	"github.com/spec-kit/helpdesk-sla/internal/worker"
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

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var hoursRepo repository.OperationalHoursRepository
	if cfg.SLA.ConfigFile != "" {
		logger.Info("loading operational hours from file", zap.String("path", cfg.SLA.ConfigFile))
		hoursRepo = repository.NewFileOperationalHoursRepository(cfg.SLA.ConfigFile)
	} else {
		hoursRepo = repository.NewOperationalHoursRepository(pool)
	}
	if redis.Enabled() {
		hoursRepo = repository.NewCachedOperationalHoursRepository(hoursRepo, redis.Client, cfg.SLA.ConfigCacheTTL(), logger)
	}

	var (
		ticketSLARepo repository.TicketSLARepository
		historyRepo   repository.TicketSLAHistoryRepository
	)
	if pool != nil {
		ticketSLARepo = repository.NewTicketSLARepository(pool)
		historyRepo = repository.NewTicketSLAHistoryRepository(pool)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	history := service.NewSLAHistoryService(dispatcher, historyRepo, logger)
	worker.StartNotificationWorker(logger,
		service.NewNotificationService(dispatcher, logger, cfg.Notification),
		history,
	)

	slaService, err := service.NewSLAService(service.SLADependencies{
		HoursRepo:     hoursRepo,
		TicketSLARepo: ticketSLARepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		Config:        cfg.SLA,
	})
	if err != nil {
		logger.Fatal("failed to init sla service", zap.Error(err))
	}

	escalations := worker.NewEscalationWorker(slaService, cfg.SLA.EscalationPollInterval(), logger)
	go escalations.Run(ctx)

	checks := []handlers.DependencyCheck{{
		Name: "operational_hours",
		Check: func(ctx context.Context) error {
			_, err := slaService.Snapshot(ctx)
			return err
		},
	}}
	if pool != nil {
		checks = append(checks, handlers.DependencyCheck{Name: "postgres", Check: pg.Ping})
	}
	if redis.Enabled() && cfg.SLA.ConfigCacheTTL() > 0 {
		checks = append(checks, handlers.DependencyCheck{Name: "redis", Check: redis.Ping})
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, checks...),
		SLA:            handlers.NewSLAHandler(slaService),
		TicketSLA:      handlers.NewTicketSLAHandler(slaService, history),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
