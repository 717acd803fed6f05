package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/compliance-service/internal/api/http"
	"github.com/spec-kit/compliance-service/internal/api/http/handlers"
	"github.com/spec-kit/compliance-service/internal/auth"
	"github.com/spec-kit/compliance-service/internal/config"
	"github.com/spec-kit/compliance-service/internal/domain"
	"github.com/spec-kit/compliance-service/internal/events"
	"github.com/spec-kit/compliance-service/internal/observability"
	"github.com/spec-kit/compliance-service/internal/persistence"
	"github.com/spec-kit/compliance-service/internal/repository"
	"github.com/spec-kit/compliance-service/internal/revision"
	"github.com/spec-kit/compliance-service/internal/sequence"
	"github.com/spec-kit/compliance-service/internal/service"
	"github.com/spec-kit/compliance-service/internal/worker"
	"github.com/spec-kit/compliance-service/internal/workflow"
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
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	registry := workflow.DefaultRegistry()
	logger.Info("workflow templates registered", zap.Strings("kinds", registry.Kinds()))

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartEventWorker(dispatcher, cfg.Events, redis.Client, logger)

	tx := persistence.NewTransactor(pool)
	eventRepo := repository.NewEventRepository(pool)
	chain := revision.NewChain(nil, nil)
	sequencer := sequence.NewSequencer(tx, repository.NewTicketCounterRepository(pool), logger,
		sequence.WithObserver(metrics.ObserveTicket))

	modules, err := service.NewComplianceModules(service.ComplianceDependencies{
		Tx:             tx,
		Registry:       registry,
		Tickets:        sequencer,
		Chain:          chain,
		Events:         eventRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		AuditRecords:   repository.NewRecordRepository[domain.Audit](pool, workflow.KindAudit),
		IssueRecords:   repository.NewRecordRepository[domain.Issue](pool, workflow.KindIssue),
		PolicyRecords:  repository.NewRecordRepository[domain.Policy](pool, workflow.KindPolicy),
		RiskRecords:    repository.NewRecordRepository[domain.Risk](pool, workflow.KindRisk),
		ControlRecords: repository.NewRecordRepository[domain.Control](pool, workflow.KindControl),
	})
	if err != nil {
		logger.Fatal("failed to build compliance modules", zap.Error(err))
	}
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{
		Tx:           tx,
		Registry:     registry,
		WorkflowRepo: repository.NewWorkflowRepository(pool),
		EventRepo:    eventRepo,
		Chain:        chain,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	activityService := service.NewActivityService(eventRepo)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	deps := map[string]handlers.Pinger{"postgres": pg}
	if redis.Client != nil {
		deps["redis"] = redis
	}

	app := httptransport.NewApp(cfg.App.Name, logger)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Audits:         handlers.NewRecordsHandler(modules.Audits),
		Issues:         handlers.NewRecordsHandler(modules.Issues),
		Policies:       handlers.NewRecordsHandler(modules.Policies),
		Risks:          handlers.NewRecordsHandler(modules.Risks),
		Controls:       handlers.NewRecordsHandler(modules.Controls),
		Workflows:      handlers.NewWorkflowsHandler(workflowService, activityService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics.Handler(),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
