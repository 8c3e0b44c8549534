package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/meteotray/meteotray/internal/api/http"
	"github.com/meteotray/meteotray/internal/config"
	"github.com/meteotray/meteotray/internal/fetcher"
	"github.com/meteotray/meteotray/internal/openweather"
	"github.com/meteotray/meteotray/internal/scheduler"
	"github.com/meteotray/meteotray/internal/store"
	"github.com/meteotray/meteotray/internal/weather"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Store backend with configured retention.
	var st weather.Store
	switch cfg.StoreBackend {
	case config.StoreBolt:
		boltStore, err := store.OpenBolt(cfg.StorePath, cfg.StoreMaxHistory)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer boltStore.Close()
		st = boltStore
	default:
		st = store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	}

	proxyURL, err := cfg.ProxyURL()
	if err != nil {
		log.Fatalf("invalid proxy configuration: %v", err)
	}

	// Fetch core: trend state lives for the process lifetime.
	trends := weather.NewTrendTracker()
	orch := fetcher.New(fetcher.Config{
		API:        openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.Units),
		Timeout:    cfg.HTTPTimeout,
		ProxyURL:   proxyURL,
		RatePerSec: cfg.RatePerSec,
	}, trends)

	// Mirror the event stream into the store.
	mirror := weather.NewStoreMirror(st)
	go mirror.Run(orch.Events())

	// Scheduler that periodically triggers refresh cycles.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, orch)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "meteotray",
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
			"service": "meteotray",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Store:     st,
		Refresher: orch,
		Locations: cfg.Locations,
	})

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
