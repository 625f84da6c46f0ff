package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eone-api/api/swagger"
	"github.com/noah-isme/eone-api/internal/handler"
	"github.com/noah-isme/eone-api/internal/middleware"
	"github.com/noah-isme/eone-api/internal/models"
	"github.com/noah-isme/eone-api/internal/repository"
	"github.com/noah-isme/eone-api/internal/service"
	"github.com/noah-isme/eone-api/pkg/cache"
	"github.com/noah-isme/eone-api/pkg/config"
	"github.com/noah-isme/eone-api/pkg/database"
	"github.com/noah-isme/eone-api/pkg/jobs"
	"github.com/noah-isme/eone-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/eone-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eone-api/pkg/middleware/requestid"
	"github.com/noah-isme/eone-api/pkg/storage"
)

// @title eONE Classroom API
// @version 1.0.0
// @description Assignment and submission lifecycle with derived notifications
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, directory cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportJobRepo := repository.NewReportJobRepository(db)

	metricsSvc := service.NewMetricsService()

	var directory repository.Directory = repository.NewDirectoryRepository(db)
	if redisClient != nil && cfg.Redis.DirectoryTTL > 0 {
		directory = repository.NewCachedDirectory(directory, redisClient, cfg.Redis.DirectoryTTL, logr).
			WithMetrics(metricsSvc)
	}

	// Upload stores. Assignment questions and submission answers live in
	// separate directories.
	assignmentUploads, err := storage.NewUploadStore(cfg.Uploads.AssignmentDir)
	if err != nil {
		logr.Fatal("failed to init assignment upload store", zap.Error(err))
	}
	submissionUploads, err := storage.NewUploadStore(cfg.Uploads.SubmissionDir)
	if err != nil {
		logr.Fatal("failed to init submission upload store", zap.Error(err))
	}

	// Services.
	notificationSink := service.NewMeteredNotifications(notificationRepo, metricsSvc)
	assignmentBlobs := service.NewMeteredUploads(assignmentUploads, "assignment", metricsSvc)
	submissionBlobs := service.NewMeteredUploads(submissionUploads, "submission", metricsSvc)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	var noticePolicy service.CreationNoticePolicy = service.SelfNoticePolicy{}
	if !cfg.Notifications.AnnounceCreation {
		noticePolicy = service.NoNoticePolicy{}
	}

	assignmentSvc := service.NewAssignmentService(
		assignmentRepo,
		submissionRepo,
		directory,
		notificationSink,
		assignmentBlobs,
		noticePolicy,
		nil,
		nil,
		logr,
	)
	submissionSvc := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		directory,
		notificationSink,
		submissionBlobs,
		nil,
		nil,
		logr,
	)
	notificationSvc := service.NewNotificationService(
		notificationRepo,
		directory,
		assignmentRepo,
		cfg.Notifications.ClassroomFeed,
		logr,
	)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, submissionSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("", middleware.JWT(authSvc))

	assignments := protected.Group("/assignments")
	{
		assignments.GET("", assignmentHandler.List)
		assignments.GET("/:id", assignmentHandler.Get)
		assignments.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), assignmentHandler.Create)
		assignments.PATCH("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), assignmentHandler.Update)
		assignments.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), assignmentHandler.Delete)
		assignments.GET("/:id/submissions", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), assignmentHandler.Submissions)
	}

	submissions := protected.Group("/submissions")
	{
		submissions.GET("", submissionHandler.List)
		submissions.POST("", middleware.RequireRoles(models.RoleStudent), submissionHandler.Create)
		submissions.PATCH("/:id", middleware.RequireRoles(models.RoleStudent), submissionHandler.Reupload)
		submissions.PATCH("/:id/grade", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), submissionHandler.Grade)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), notificationHandler.Feed)
		notifications.DELETE("", middleware.RequireRoles(models.RoleAdmin), notificationHandler.Reset)
	}

	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(
			submissionRepo,
			assignmentRepo,
			exportStore,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
			logr,
			nil,
			nil,
		)
		worker := service.NewReportWorker(reportJobRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
		reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc := service.NewReportService(reportJobRepo, assignmentRepo, reportQueue, exportSvc, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
			MaxRetries:      cfg.Reports.WorkerRetries,
		})

		metricsSvc.RegisterQueueDepth("reports", reportQueue.Depth)
		reportQueue.Start(ctx)
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc, logr)
		reports := protected.Group("/reports")
		{
			reports.POST("", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), reportHandler.GenerateReport)
			reports.GET("/:id", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), reportHandler.ReportStatus)
		}
		// Download tokens are self-authenticating.
		api.GET("/export/:token", reportHandler.DownloadReport)
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
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
