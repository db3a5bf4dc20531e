package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mlxvideo/api/internal/config"
	"github.com/mlxvideo/api/internal/handler"
	"github.com/mlxvideo/api/internal/job"
	"github.com/mlxvideo/api/internal/middleware"
	"github.com/mlxvideo/api/internal/service"
	ws "github.com/mlxvideo/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	setupLogger(cfg.Server.Env)

	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create directory")
		}
	}

	// Initialize validator
	validate := validator.New()

	// Job orchestration
	orch := job.NewOrchestrator(cfg, log.Logger)
	wsHandler := ws.NewHandler(orch, cfg.WS.IdleTimeout, log.Logger)

	// Initialize services
	uploadService := service.NewUploadService(cfg.Paths.UploadDir)
	systemService := service.NewSystemService()
	enhanceService := service.NewEnhanceService(cfg.Enhance)
	galleryService := service.NewGalleryService(cfg.Paths.OutputDir, log.Logger)

	// Initialize handlers
	generateHandler := handler.NewGenerateHandler(orch, validate, cfg.Paths.OutputDir)
	trainHandler := handler.NewTrainHandler(orch, validate)
	uploadHandler := handler.NewUploadHandler(uploadService)
	systemHandler := handler.NewSystemHandler(systemService)
	enhanceHandler := handler.NewEnhanceHandler(enhanceService, validate)
	galleryHandler := handler.NewGalleryHandler(galleryService)
	assetsHandler := handler.NewAssetsHandler(cfg.Paths)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    service.MaxUploadSize,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes; auth is opt-in for exposed deployments
	api := app.Group("/api")
	if cfg.Auth.Secret != "" {
		authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.Secret)
		api.Use(authMiddleware.Authenticate())
	}

	// Generation routes
	api.Post("/generate", generateHandler.Start)
	api.Get("/status/:jobId", generateHandler.Status)
	api.Delete("/cancel/:jobId", generateHandler.Cancel)
	api.Get("/videos/:filename", generateHandler.Video)

	// Training routes
	api.Post("/train", trainHandler.Start)
	api.Get("/train/:jobId/status", trainHandler.Status)
	api.Post("/train/:jobId/stop", trainHandler.Stop)

	// Upload routes
	api.Post("/upload/image", uploadHandler.Image)
	api.Post("/upload/video", uploadHandler.Video)

	// System routes
	api.Get("/system/hardware", systemHandler.Hardware)
	api.Get("/system/defaults", systemHandler.Defaults)

	// Prompt enhancement routes
	api.Post("/enhance", enhanceHandler.Enhance)
	api.Get("/enhance/models", enhanceHandler.Models)

	// Gallery routes
	api.Get("/gallery", galleryHandler.List)
	api.Delete("/gallery/:videoId", galleryHandler.Delete)
	api.Get("/thumbnails/:filename", galleryHandler.Thumbnail)

	// Trained asset discovery
	api.Get("/checkpoints", assetsHandler.Checkpoints)
	api.Get("/loras", assetsHandler.Loras)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	progressSocket := websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(c, c.Params("jobId"))
	})
	app.Get("/ws/progress/:jobId", progressSocket)
	app.Get("/ws/training/:jobId", progressSocket)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("Server starting")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func setupLogger(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return err
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
