package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/recruiting-crm-api/api/swagger"
	"github.com/noah-isme/recruiting-crm-api/internal/automation"
	"github.com/noah-isme/recruiting-crm-api/internal/handler"
	internalmiddleware "github.com/noah-isme/recruiting-crm-api/internal/middleware"
	"github.com/noah-isme/recruiting-crm-api/internal/models"
	"github.com/noah-isme/recruiting-crm-api/internal/repository"
	"github.com/noah-isme/recruiting-crm-api/internal/service"
	"github.com/noah-isme/recruiting-crm-api/pkg/cache"
	"github.com/noah-isme/recruiting-crm-api/pkg/config"
	"github.com/noah-isme/recruiting-crm-api/pkg/database"
	"github.com/noah-isme/recruiting-crm-api/pkg/jobs"
	"github.com/noah-isme/recruiting-crm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/recruiting-crm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/recruiting-crm-api/pkg/middleware/requestid"
)

// @title Recruiting CRM API
// @version 0.1.0
// @description Multi-tenant recruiting pipeline service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()

	engine, shutdownEngine := buildAutomationEngine(ctx, cfg.Automation, redisClient, metrics, logr)
	defer shutdownEngine()

	pipelineRepo := repository.NewPipelineRepository(db)
	opts := []service.PipelineServiceOption{service.WithPipelineMetrics(metrics)}
	if redisClient != nil && cfg.Pipeline.CacheEnabled {
		cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Pipeline.CacheTTL, logr, true)
		opts = append(opts, service.WithPipelineCache(cacheSvc))
	}

	pipelineSvc := service.NewPipelineService(
		pipelineRepo,
		repository.NewStageRepository(db),
		repository.NewCandidateRepository(db),
		repository.NewPositionRepository(db),
		service.NewAutomationDispatcher(engine, metrics, logr),
		service.NewAuditLogger(repository.NewAutomationLogRepository(db), metrics, logr),
		validator.New(),
		logr,
		service.PipelineServiceConfig{
			DefaultLimit:    cfg.Pipeline.DefaultLimit,
			MaxLimit:        cfg.Pipeline.MaxLimit,
			BulkConcurrency: cfg.Pipeline.BulkConcurrency,
			CacheTTL:        cfg.Pipeline.CacheTTL,
			ExportMaxRows:   cfg.Exports.MaxRows,
		},
		opts...,
	)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(pipelineSvc, cfg.Exports.MaxRows, logr, nil, nil)
	}

	tokens := service.NewTokenService(cfg.JWT.Secret)
	metricsHandler := handler.NewMetricsHandler(metrics, healthChecks(db, redisClient))

	var pipelineHandler *handler.PipelineHandler
	if exportSvc != nil {
		pipelineHandler = handler.NewPipelineHandler(pipelineSvc, exportSvc)
	} else {
		pipelineHandler = handler.NewPipelineHandler(pipelineSvc, nil)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokens))

	pipeline := api.Group("/pipeline")
	writers := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleRecruiter)
	{
		pipeline.GET("", pipelineHandler.List)
		if cfg.Exports.Enabled {
			pipeline.GET("/export", pipelineHandler.Export)
		}
		pipeline.GET("/:id", pipelineHandler.Get)
		pipeline.POST("", writers, pipelineHandler.Create)
		pipeline.PUT("/bulk-move", writers, pipelineHandler.BulkMove)
		pipeline.PUT("/bulk-update", writers, pipelineHandler.BulkUpdate)
		pipeline.PUT("/:id", writers, pipelineHandler.Update)
		pipeline.PUT("/:id/move", writers, pipelineHandler.Move)
		pipeline.DELETE("/:id", writers, pipelineHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// buildAutomationEngine publishes to a Redis stream when Redis is configured and logs events otherwise.
// With async delivery enabled the engine is fronted by a worker queue; the returned func drains it.
func buildAutomationEngine(ctx context.Context, cfg config.AutomationConfig, client *redis.Client, metrics *service.MetricsService, logr *zap.Logger) (automation.Engine, func()) {
	var engine automation.Engine = automation.NewLogEngine(logr)
	if client != nil {
		engine = automation.NewStreamPublisher(client, cfg.Stream, cfg.StreamMaxLen)
	}
	if !cfg.Async {
		return engine, func() {}
	}

	queued := automation.NewQueuedEngine(engine, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logr,
	}, automation.WithFailureHook(automation.ReportFailures(metrics, logr)))
	queued.Start(ctx)
	return queued, queued.Stop
}

func healthChecks(db *sqlx.DB, client *redis.Client) map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"postgres": db.PingContext,
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}
