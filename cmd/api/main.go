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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dedekind-labs/sua-api/api/swagger"
	"github.com/dedekind-labs/sua-api/internal/handler"
	"github.com/dedekind-labs/sua-api/internal/middleware"
	"github.com/dedekind-labs/sua-api/internal/models"
	"github.com/dedekind-labs/sua-api/internal/repository"
	"github.com/dedekind-labs/sua-api/internal/service"
	"github.com/dedekind-labs/sua-api/pkg/cache"
	"github.com/dedekind-labs/sua-api/pkg/config"
	"github.com/dedekind-labs/sua-api/pkg/database"
	"github.com/dedekind-labs/sua-api/pkg/jobs"
	"github.com/dedekind-labs/sua-api/pkg/logger"
	corsmiddleware "github.com/dedekind-labs/sua-api/pkg/middleware/cors"
	reqidmiddleware "github.com/dedekind-labs/sua-api/pkg/middleware/requestid"
	"github.com/dedekind-labs/sua-api/pkg/storage"
)

// @title SUA Tracker API
// @version 1.0.0
// @description Student service-hour tracking: claims, review, publicity, appeals, exports
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, publicity cache disabled", "error", err)
		redisClient = nil
	}

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	proofRepo := repository.NewProofRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	suaRepo := repository.NewSuaRepository(db)
	publicityRepo := repository.NewPublicityRepository(db)
	appealRepo := repository.NewAppealRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	activitySvc := service.NewActivityService(activityRepo, validate, logr)
	claimSvc := service.NewClaimService(claimRepo, proofRepo, activityRepo, suaRepo, validate, logr)
	publicitySvc := service.NewPublicityService(publicityRepo, activityRepo, suaRepo, cacheRepo, cfg.Publicity, validate, logr)
	appealSvc := service.NewAppealService(appealRepo, publicityRepo, validate, logr)
	transcriptSvc := service.NewTranscriptService(studentRepo, suaRepo, nil, nil, logr)
	exportSvc := service.NewExportService(exportJobRepo, publicityRepo, suaRepo, fileStore, signer, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	}, validate, logr)
	metricsSvc := service.NewMetricsService()

	exportQueue := jobs.NewQueue("roster-exports", exportSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	exportSvc.SetQueue(exportQueue)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportQueue.Start(runCtx)
	defer exportQueue.Stop()
	exportSvc.RecoverPendingJobs(runCtx)
	exportSvc.StartCleanup(runCtx)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	claimHandler := handler.NewClaimHandler(claimSvc, metricsSvc)
	publicityHandler := handler.NewPublicityHandler(publicitySvc)
	appealHandler := handler.NewAppealHandler(appealSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(transcriptSvc, exportSvc, metricsSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	// Token-authenticated downloads carry their own signed credential.
	api.GET("/exports/download/:token", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staffOnly := middleware.RequireRoles(models.RoleStaff, models.RoleSuperAdmin)

	protected.GET("/students", staffOnly, studentHandler.List)
	protected.POST("/students", staffOnly, studentHandler.Create)
	protected.GET("/students/:id", middleware.RBAC(string(models.RoleStaff), string(models.RoleSuperAdmin), "SELF"), studentHandler.Get)
	protected.PUT("/students/:id", staffOnly, studentHandler.Update)

	protected.GET("/activities", activityHandler.List)
	protected.GET("/activities/:id", activityHandler.Get)
	protected.POST("/activities", staffOnly, activityHandler.Create)
	protected.PUT("/activities/:id", staffOnly, activityHandler.Update)

	protected.POST("/claims", claimHandler.Submit)
	protected.GET("/claims", claimHandler.List)
	protected.GET("/claims/records", claimHandler.Records)
	protected.GET("/claims/:id", claimHandler.Get)
	protected.POST("/claims/:id/review", staffOnly, claimHandler.Review)

	protected.GET("/publicities", publicityHandler.List)
	protected.GET("/publicities/active", publicityHandler.Active)
	protected.GET("/publicities/:id", publicityHandler.Get)
	protected.GET("/publicities/:id/roster", publicityHandler.Roster)
	protected.POST("/publicities", staffOnly, publicityHandler.Create)
	protected.PUT("/publicities/:id", staffOnly, publicityHandler.Update)
	protected.POST("/publicities/:id/appeals", appealHandler.SubmitForPublicity)

	protected.POST("/appeals", appealHandler.Submit)
	protected.GET("/appeals", appealHandler.List)
	protected.GET("/appeals/:id", appealHandler.Get)
	protected.POST("/appeals/:id/resolve", staffOnly, appealHandler.Resolve)

	protected.GET("/exports/transcript", exportHandler.Transcript)
	protected.POST("/exports/roster", staffOnly, exportHandler.CreateRosterJob)
	protected.GET("/exports/jobs/:id", staffOnly, exportHandler.JobStatus)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-runCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown failed", "error", err)
	}
	os.Exit(0)
}
