package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agency-contact-backend/config"
	v1 "agency-contact-backend/internal/delivery/http/v1"
	"agency-contact-backend/internal/domain"
	"agency-contact-backend/internal/repository/logsink"
	"agency-contact-backend/internal/repository/memory"
	redisstore "agency-contact-backend/internal/repository/redis"
	"agency-contact-backend/internal/usecase"
	"agency-contact-backend/internal/worker"
	"agency-contact-backend/pkg/logger"
	"agency-contact-backend/pkg/redis"
	"agency-contact-backend/pkg/security"
	"agency-contact-backend/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Agency Contact API
// @version         1.0
// @description     Contact form intake for the agency marketing site.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting contact backend", "port", cfg.Port)

	environment := "development"
	if cfg.IsProduction() {
		environment = "production"
	}
	secLog := security.InitSecurityLogger(cfg.ServiceName, environment)
	defer func() { _ = secLog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Setup Rate Limit Store (Redis when configured, in-memory otherwise)
	var (
		rateLimitStore domain.RateLimitStore
		healthChecks   = map[string]usecase.HealthCheckFunc{}
	)
	redisClient, err := redis.Connect(ctx, redis.Config{
		URL:      cfg.UpstashRedisURL,
		Password: cfg.UpstashRedisPassword,
	})
	if err == nil {
		defer redisClient.Close()
		rateLimitStore = redisstore.NewRateLimitStore(redisClient, cfg.ContactRateLimitKeyPrefix,
			cfg.ContactRateLimitMaxAttempts, cfg.ContactRateLimitWindow)
		healthChecks["redis"] = func(ctx context.Context) error { return redis.HealthCheck(ctx, redisClient) }
		logger.Log.Info("Rate limiting backed by Redis")
	} else {
		if !errors.Is(err, redis.ErrNotConfigured) {
			logger.Log.Warn("Redis unavailable, falling back to in-memory rate limiting", "error", err)
		}
		rateLimitStore = memory.NewRateLimitStore(cfg.ContactRateLimitMaxAttempts, cfg.ContactRateLimitWindow)
	}

	// 4. Setup Background Workers
	sweeper := worker.NewRateLimitSweeper(rateLimitStore, cfg.ContactRateLimitCleanupInterval, logger.Log)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// 5. Setup UseCases
	recorder := logsink.NewSubmissionRecorder(logger.Log)
	contactUC := usecase.NewContactUsecase(
		recorder,
		validation.New(),
		security.NewSpamFilter(security.DefaultBlockedWords, security.DefaultMaxRepeatedRun),
		secLog,
	)

	healthUC := usecase.NewHealthUsecase(healthChecks)

	// 6. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:      contactUC,
		RateLimitStore: rateLimitStore,
		SecurityLogger: secLog,
		HealthUC:       healthUC,
		Config:         cfg,
	})

	// 7. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			stop()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
