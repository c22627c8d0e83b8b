package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storelens/service-analytics/internal/config"
	"github.com/storelens/service-analytics/internal/events"
	"github.com/storelens/service-analytics/internal/handlers"
	applogger "github.com/storelens/service-analytics/internal/logger"
	"github.com/storelens/service-analytics/internal/middleware"
	"github.com/storelens/service-analytics/internal/repository"
	"github.com/storelens/service-analytics/internal/routes"
	"github.com/storelens/service-analytics/internal/services"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := applogger.NewLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Sentry for error tracking
	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          cfg.Sentry.Release,
			TracesSampleRate: 0.1,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", zap.Error(err))
			sentryEnabled = false
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Connect to database
	db, err := repository.Connect(repository.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	// Initialize store registry
	storeRepo := repository.NewStoreRepository(db)
	storeService, err := services.NewStoreService(storeRepo, cfg.Security.EncryptionKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize store service", zap.Error(err))
	}

	// Initialize snapshot cache: Redis when configured, in-process
	// otherwise
	var cache services.SnapshotCache
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("Failed to connect to Redis, using in-process cache", zap.Error(err))
			cache = services.NewMemorySnapshotCache(cfg.Analytics.CacheTTL)
		} else {
			logger.Info("Connected to Redis", zap.String("host", cfg.Redis.Host))
			cache = services.NewRedisSnapshotCache(redisClient, cfg.Analytics.CacheTTL, logger)
			defer redisClient.Close()
		}
	} else {
		cache = services.NewMemorySnapshotCache(cfg.Analytics.CacheTTL)
	}

	// Connect to NATS (optional - only if configured)
	var natsConn *nats.Conn
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL)
		if err != nil {
			logger.Warn("Failed to connect to NATS, eventing disabled", zap.Error(err))
		} else {
			logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			eventPublisher = events.NewPublisher(natsConn, logger)
			defer natsConn.Close()
		}
	}

	// Initialize the snapshot composer
	providerFactory := services.NewProviderFactory(storeService, cfg.Merchant, cfg.Analytics.SessionSource, logger)
	var publisher services.EventPublisher
	if eventPublisher != nil {
		publisher = eventPublisher
	}
	analyticsService := services.NewAnalyticsService(
		providerFactory,
		storeService,
		cache,
		publisher,
		cfg.Analytics,
		logger,
	)

	// Start NATS subscriber for cache invalidation
	var eventSubscriber *events.Subscriber
	if natsConn != nil {
		eventSubscriber = events.NewSubscriber(natsConn, analyticsService, logger)
		if err := eventSubscriber.Start(); err != nil {
			logger.Warn("Failed to start event subscriber", zap.Error(err))
		}
		defer eventSubscriber.Stop()
	}

	// Initialize handlers
	storeHandler := handlers.NewStoreHandler(storeService, logger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, logger)

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	if sentryEnabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.RequestLogger(logger))

	// CORS - use environment-based configuration
	allowedOrigins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")
	router.Use(middleware.CORSWithOrigins(allowedOrigins))

	// Security headers
	router.Use(middleware.SecurityHeaders())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "analytics",
			"time":    time.Now().UTC(),
		})
	})

	// Setup routes using the routes package
	routes.SetupRoutes(router, &routes.RouteConfig{
		StoreHandler:     storeHandler,
		AnalyticsHandler: analyticsHandler,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("🚀 Analytics service starting on port " + cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
