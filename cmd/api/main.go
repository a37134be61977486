package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/agrosync/agrosync-api/docs" // Swagger docs
	"github.com/agrosync/agrosync-api/internal/cache"
	"github.com/agrosync/agrosync-api/internal/config"
	"github.com/agrosync/agrosync-api/internal/database"
	"github.com/agrosync/agrosync-api/internal/handlers"
	"github.com/agrosync/agrosync-api/internal/insights"
	"github.com/agrosync/agrosync-api/internal/jobs"
	"github.com/agrosync/agrosync-api/internal/middleware"
	"github.com/agrosync/agrosync-api/internal/models"
	"github.com/agrosync/agrosync-api/internal/repository"
	"github.com/agrosync/agrosync-api/internal/services"
	"github.com/agrosync/agrosync-api/internal/storage"
	"github.com/agrosync/agrosync-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title AgroSync Analytics API
// @version 1.0
// @description Multi-tenant analytics, exports and reports for farm operations
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@agrosync.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8081
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set. Report recipients will not be emailed.")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment == "production")
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	files, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage", "path", cfg.StoragePath)

	// Initialize repositories
	repos := repository.NewRepositories(db)

	checks := map[string]handlers.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	store, closeCache := setupCache(cfg, repos, checks)
	defer closeCache()

	insightClient := setupInsights(cfg)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, store, insightClient, worker, files, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, repos)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, checks)

	// Setup router
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Let in-flight exports finish before the process exits
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// setupCache picks the analytics cache backend. Redis failures degrade to no caching.
func setupCache(cfg *config.Config, repos *repository.Repositories, checks map[string]handlers.HealthCheck) (cache.Store, func()) {
	switch cfg.CacheDriver {
	case config.CacheDriverRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, analytics caching disabled", "error", err)
			return cache.Noop{}, func() {}
		}
		logger.Info("Analytics cache using redis")
		checks["cache"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return cache.NewRedisStore(client), func() { _ = client.Close() }
	case config.CacheDriverPostgres:
		logger.Info("Analytics cache using postgres")
		return repos.Cache, func() {}
	default:
		logger.Info("Analytics cache disabled")
		return cache.Noop{}, func() {}
	}
}

func setupInsights(cfg *config.Config) insights.Client {
	if cfg.InsightServiceURL == "" {
		logger.Info("Insight service not configured, insights disabled")
		return insights.Disabled{}
	}
	return insights.NewHTTPClient(cfg.InsightServiceURL, cfg.InsightServiceToken, cfg.InsightTimeout)
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			analytics := protected.Group("/analytics")
			{
				read := analytics.Group("")
				read.Use(middleware.RequirePermission(models.PermissionAnalyticsRead))
				{
					read.GET("/dashboard", h.Analytics.Dashboard)
					read.GET("/financial", h.Analytics.Financial)
					read.GET("/activities", h.Analytics.Activities)
					read.GET("/market", h.Analytics.Market)
					read.GET("/farm-to-market", h.Analytics.FarmToMarket)
					read.GET("/insights", h.Analytics.Insights)
				}

				export := analytics.Group("")
				export.Use(middleware.RequirePermission(models.PermissionAnalyticsExport))
				{
					export.POST("/export", h.Analytics.Export)
					export.POST("/reports", h.Analytics.Reports)
					export.GET("/jobs/:id", h.Analytics.Job)
					export.GET("/exports/:id/download", h.Analytics.Download)
				}
			}

			protected.GET("/notifications", h.Notification.Index)

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/jobs/status", h.Job.Status)
				admin.GET("/audits", h.Audit.Index)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, repos *repository.Repositories) {
	// Remove export files past their retention window
	worker.ScheduleEvery("expire_exports", 1*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Expiring export files...")
		return svcs.Export.ExpireJobs(ctx)
	})

	// Purge stale rows from the postgres cache table
	worker.ScheduleEvery("clean_cache", 1*time.Hour, func(ctx context.Context) error {
		removed, err := repos.Cache.CleanExpired(ctx)
		if err != nil {
			return err
		}
		logger.Info("[Job] Cleaned expired cache entries", "removed", removed)
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
