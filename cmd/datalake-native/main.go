package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/datalake-native/internal/api/http"
	"github.com/i474232898/datalake-native/internal/collector"
	"github.com/i474232898/datalake-native/internal/config"
	"github.com/i474232898/datalake-native/internal/metrics"
	"github.com/i474232898/datalake-native/internal/record"
	"github.com/i474232898/datalake-native/internal/runner"
	"github.com/i474232898/datalake-native/internal/scheduler"
	"github.com/i474232898/datalake-native/internal/service"
	"github.com/i474232898/datalake-native/internal/store"
)

const weatherJob = "weather_collection"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Local day-partitioned blob storage.
	backend, err := store.NewFileBackend(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}
	defer backend.Close()

	runs := store.New[record.RunRecord](backend, "jobs")
	weather := store.New[record.WeatherReading](backend, "weather")

	// Shared HTTP client for outbound producer calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var producer runner.Producer[record.WeatherReading]
	if cfg.WeatherSource == "simulated" {
		producer = collector.NewSimulatedProducer(cfg.City)
	} else {
		producer = collector.NewWttrProducer(httpClient, cfg.City)
	}

	job := runner.New(weatherJob, runs, weather, producer, cfg.CollectTimeout)

	// Health checks over the weather namespace.
	engine := metrics.NewEngine(runs, []metrics.DataSource{weather}, cfg.MaxAgeHours, map[string]metrics.VolumeRange{
		weather.Kind(): {MinMB: cfg.VolumeMinMB, MaxMB: cfg.VolumeMaxMB},
	})

	// Scheduler that periodically collects and stores data.
	sched := scheduler.New()
	if err := sched.RegisterPeriodic(job, cfg.CollectInterval); err != nil {
		log.Fatalf("failed to schedule collection: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Kick off an initial collection so the dashboard has data right away.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.CollectTimeout+10*time.Second)
		defer cancel()
		if err := sched.RunOnce(ctx, weatherJob); err != nil {
			log.Printf("initial collection failed: %v", err)
		}
	}()

	svc := service.New(runs, weather, engine, sched)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "datalake-native",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "datalake-native",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, svc)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
