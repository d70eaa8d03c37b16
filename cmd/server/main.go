package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alimgiray/pawrank/internal/handlers"
	"github.com/alimgiray/pawrank/internal/middleware"
	"github.com/alimgiray/pawrank/internal/repositories"
	"github.com/alimgiray/pawrank/internal/services"
	"github.com/alimgiray/pawrank/internal/workers"
	"github.com/alimgiray/pawrank/pkg/config"
	"github.com/alimgiray/pawrank/pkg/database"
	"github.com/alimgiray/pawrank/pkg/logger"
	"github.com/alimgiray/pawrank/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	if err := config.Load(); err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig

	logger.Init(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	if err := database.Init(cfg.Database.Path); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	metricsManager := metrics.NewManager()

	// Optional rank cache
	var rankCache services.RankCache = services.NoopRankCache{}
	if cfg.RedisEnabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("Redis unreachable, top sitters will be read from the database until it recovers")
		}
		cancel()

		rankCache = services.NewRedisRankCache(redisClient)
	}

	// Initialize dependencies
	sitterRepo := repositories.NewSitterRepository(database.DB)
	stayRepo := repositories.NewStayRepository(database.DB)
	ownerRepo := repositories.NewOwnerRepository(database.DB)
	jobRepo := repositories.NewJobRepository(database.DB)

	sitterService := services.NewSitterService(sitterRepo, stayRepo, rankCache, metricsManager)
	stayService := services.NewStayService(stayRepo, ownerRepo, sitterService)
	ownerService := services.NewOwnerService(ownerRepo)
	jobService := services.NewJobService(jobRepo, sitterRepo)
	exportService := services.NewExportService(sitterService)

	// Fill the rank cache; until this succeeds top sitters come from the database
	if cfg.RedisEnabled() {
		if err := sitterService.RebuildRankCache(); err != nil {
			logger.WithError(err).Warn("Rank cache rebuild failed, rank workers will retry")
		}
	}

	// Initialize worker manager
	workerManager := workers.NewWorkerManager(jobRepo, sitterService, metricsManager, cfg.Workers)

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(metricsManager))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(router, &handlers.Handlers{
		Sitter:   handlers.NewSitterHandler(sitterService, exportService),
		Owner:    handlers.NewOwnerHandler(ownerService),
		Stay:     handlers.NewStayHandler(stayService),
		Job:      handlers.NewJobHandler(jobService),
		Health:   handlers.NewHealthHandler(database.DB),
		NotFound: handlers.NewNotFoundHandler(cfg.Server.PublicDir),
	})

	// Start workers
	if err := workerManager.StartAll(); err != nil {
		logger.Fatalf("Failed to start workers: %v", err)
	}

	// Setup server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shut down")
	}

	workerManager.StopAll()
	logger.Info("Server stopped")
}
