package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journeytrack/ingest/api"
	"journeytrack/ingest/buildinfo"
	"journeytrack/ingest/config"
	"journeytrack/ingest/database"
	"journeytrack/ingest/services"

	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	_ "journeytrack/ingest/docs" // Import generated docs

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// @title Customer Journey Ingestion API
// @version 1.0
// @description Validates customer-journey events against a tagged schema and batch-writes them to a time-series backend over line protocol
// @BasePath /
// @schemes http

const idleTimeout = 5 * time.Second

func main() {
	// Set application start time for accurate uptime tracking
	buildinfo.SetStartTime(time.Now())

	info := buildinfo.GetInfo()
	log.Printf("Starting application\nVersion: %s, Commit: %s, BuildDate: %s, GoVersion: %s, Hostname: %s",
		info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Hostname)

	// Local overrides from .env, ignored when absent
	_ = godotenv.Load()

	cfg := config.Load()

	// Initialize the time-series backend write client
	if err := database.InitTimeSeries(&cfg.Backend); err != nil {
		log.Fatalf("Failed to initialize time-series backend client: %v", err)
	}

	// Redis backs duplicate suppression only; the pipeline degrades to
	// plain at-least-once delivery without it.
	var dedup services.DedupCache
	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Printf("Redis unavailable, duplicate suppression disabled: %v", err)
	} else {
		dedup = database.GetRedisClient(cfg.Redis.DedupTTLMS)
	}

	eventService, err := services.NewEventService(database.GetTimeSeriesDB(), cfg, dedup)
	if err != nil {
		log.Fatalf("Failed to initialize EventService: %v", err)
	}

	httpHandler := api.NewEventHandler(eventService)

	app := fiber.New(fiber.Config{
		IdleTimeout: idleTimeout,
	})

	app.Use(recover.New())

	// redirect to swagger docs
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/", fiber.StatusMovedPermanently)
	})

	// Health check endpoint
	app.Get("/health", api.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Event endpoints
	app.Post("/events", httpHandler.PostEvent)
	app.Post("/events/bulk", httpHandler.PostEventsBulk)
	app.Get("/metrics", httpHandler.GetMetrics)

	// Listen from a different goroutine
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until an interrupt or termination signal is received
	fmt.Println("Gracefully shutting down...")
	_ = app.Shutdown()

	fmt.Println("Running cleanup tasks...")

	// Shutdown the event service batcher (flushes remaining records)
	if err := services.ShutdownEventService(eventService); err != nil {
		log.Printf("Error shutting down event service batcher: %v", err)
	}

	if err := database.CloseTimeSeries(); err != nil {
		log.Printf("Error closing time-series backend client: %v", err)
	}

	if err := database.CloseRedis(); err != nil {
		log.Printf("Error closing Redis: %v", err)
	}

	fmt.Println("Fiber was successful shutdown.")
}
