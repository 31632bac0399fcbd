package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fleet-track/config"
	"fleet-track/database"
	"fleet-track/geocode"
	"fleet-track/handlers"
	"fleet-track/logging"
	"fleet-track/models"
	"fleet-track/mqtt"
	"fleet-track/redis"
	"fleet-track/services"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize structured logger
	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize database
	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize Redis
	redisClient, err := redis.NewRedisClient(cfg)
	if err != nil {
		logger.Error("Failed to initialize Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("Redis connected successfully")

	// Geozone-backed reverse geocoder: fast, local, per-account zone table.
	geocoder := geocode.NewZoneGeocoder(db.GeozoneRepo)

	// Background enrichment workers for deferred address lookups.
	enrichment := services.NewEnrichmentQueue(
		db.EventRepo, geocoder, cfg.EnrichmentWorkers, cfg.EnrichmentQueueSize, logger)
	enrichment.Start()
	defer enrichment.Stop()

	// Ingestion pipeline with explicit dependencies.
	pipeline := services.NewIngestionPipeline(
		cfg, db.EventRepo, db.GeozoneRepo, geocoder,
		services.NewThresholdRuleEngine(), enrichment, logger)
	pipeline.SetTransitionSink(func(device *models.Device, t models.GeozoneTransition) {
		if err := redisClient.PublishTransition(device, t); err != nil {
			logger.Warn("Failed to publish transition", slog.Any("error", err))
		}
	})

	// Query engine and aggregates.
	engine := services.NewRangeQueryEngine(db.EventRepo, logger)
	distance := services.NewDistanceAccumulator(engine, logger)

	// Initialize MQTT client
	mqttClient, err := mqtt.NewClient(cfg, db, redisClient, pipeline, logger)
	if err != nil {
		logger.Error("Failed to initialize MQTT client", slog.Any("error", err))
		os.Exit(1)
	}
	defer mqttClient.Disconnect()

	// Initialize handlers and HTTP server
	apiHandler := handlers.NewAPIHandler(db, redisClient, pipeline, engine, distance)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	}))
	apiHandler.RegisterRoutes(e)

	// Start server in goroutine
	go func() {
		logger.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", slog.Any("error", err))
	}

	logger.Info("Server stopped")
}
