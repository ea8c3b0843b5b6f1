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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-admin-api/api/swagger"
	"github.com/noah-isme/school-admin-api/internal/handler"
	internalmiddleware "github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/cache"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	"github.com/noah-isme/school-admin-api/pkg/export"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
	"github.com/noah-isme/school-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
)

// @title School Admin API
// @version 1.0.0
// @description CSV imports for the school admin platform
// @BasePath /
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, import history disabled", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(cfg.Auth, logr)

	historyRepo := repository.NewImportHistoryRepository(redisClient, logr, cfg.Imports.HistoryTTL, cfg.Imports.HistoryLimit)
	defer historyRepo.Close() //nolint:errcheck
	historySvc := service.NewImportHistoryService(historyRepo, export.NewPDFExporter(), metricsSvc, nil, logr)
	historyQueue := jobs.New[*models.ImportRun]("import-history", historySvc.Persist, jobs.Config{Workers: 2, Logger: logr})
	historyQueue.Start(context.Background())
	historySvc.UseQueue(historyQueue)

	importSvc := service.NewImportService(
		repository.NewTeacherRepository(db),
		repository.NewStudentRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewTaxonomyRepository(db),
		repository.NewClassRepository(db),
		service.NewRowValidator(nil),
		historySvc,
		metricsSvc,
		service.ImportOptions{
			SubjectAliases:        cfg.Imports.SubjectAliases,
			SubjectMatchMinLength: cfg.Imports.SubjectMatchMinLength,
		},
		logr,
	)

	importHandler := handler.NewImportHandler(importSvc, historySvc, &export.CSVExporter{WithBOM: true}, cfg.Imports.MaxFileSizeBytes, logr)

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.MaxMultipartMemory = cfg.Imports.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))
	api.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))

	imports := api.Group("/imports")
	imports.POST("/taxonomy", importHandler.ImportTaxonomy)
	imports.POST("/teachers", importHandler.ImportTeachers)
	imports.POST("/students", importHandler.ImportStudents)
	imports.POST("/classcard/staff", importHandler.ImportClassCardStaff)
	imports.POST("/classcard/students", importHandler.ImportClassCardStudents)
	imports.POST("/classcard/schedule", importHandler.ImportClassCardSchedule)
	imports.GET("/templates/:kind", importHandler.Template)
	imports.GET("/history", importHandler.History)
	imports.GET("/history/:id", importHandler.HistoryDetail)
	imports.GET("/history/:id/report.pdf", importHandler.HistoryReport)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := historyQueue.Stop(ctx); err != nil {
		logr.Warn("import history queue did not drain", zap.Error(err))
	}
	logr.Info("server stopped")
}
