package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/songpad/api/internal/auth"
	"github.com/songpad/api/internal/client"
	"github.com/songpad/api/internal/config"
	"github.com/songpad/api/internal/handler"
	"github.com/songpad/api/internal/middleware"
	"github.com/songpad/api/internal/service"
	"github.com/songpad/api/internal/store"
	"github.com/songpad/api/internal/worker"
	ws "github.com/songpad/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MySQL and run migrations
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	groqClient := client.NewGroqClient(&cfg.Groq)
	sunoClient := client.NewSunoClient(&cfg.Suno)
	grammarClient := client.NewLanguageToolClient(&cfg.Grammar)

	// Initialize R2 client (optional - continues if not configured)
	var r2Client *client.R2Client
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		var err error
		r2Client, err = client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		}
	} else {
		log.Println("Info: R2 storage not configured, archive will use mock storage")
	}

	// Initialize Zitadel JWKS verifier (optional - falls back to legacy JWT)
	var jwksVerifier *auth.JWKSVerifier
	if cfg.Zitadel.Issuer != "" {
		var err error
		jwksVerifier, err = auth.NewJWKSVerifier(&cfg.Zitadel)
		if err != nil {
			log.Printf("Warning: JWKS verifier not initialized: %v", err)
		} else {
			defer jwksVerifier.Close()
		}
	}

	// Initialize stores
	docStore := store.NewDocumentStore(db)
	songStore := store.NewSongStore(db)

	// Initialize services
	documentService := service.NewDocumentService(docStore)
	songService := service.NewSongService(docStore, songStore, sunoClient, hub)
	archiveService := service.NewArchiveService(storageOrNil(r2Client), songService)
	grammarService := service.NewGrammarService(grammarClient)
	lyricsService := service.NewLyricsService(groqClient)

	// Initialize handlers
	documentHandler := handler.NewDocumentHandler(documentService, validate)
	songHandler := handler.NewSongHandler(songService, archiveService, validate)
	webhookHandler := handler.NewWebhookHandler(songService, validate)
	grammarHandler := handler.NewGrammarHandler(grammarService, validate)
	lyricsHandler := handler.NewLyricsHandler(lyricsService, validate)

	// Initialize auth handler for ForwardAuth verification
	var tokenVerifier auth.TokenVerifier
	if jwksVerifier != nil {
		tokenVerifier = jwksVerifier
	}
	authHandler := handler.NewAuthHandler(tokenVerifier, cfg.JWT.Secret)

	// Initialize middleware (with fallback support)
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind Traefik: auth is handled by ForwardAuth, read X-User-* headers
		log.Println("Info: Gateway mode enabled — using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		// Direct mode: auth is handled by the backend itself
		var authMiddleware *middleware.AuthMiddleware
		if jwksVerifier != nil && cfg.JWT.Secret != "" {
			authMiddleware = middleware.NewAuthMiddlewareWithFallback(jwksVerifier, cfg.JWT.Secret)
		} else if jwksVerifier != nil {
			authMiddleware = middleware.NewAuthMiddleware(jwksVerifier)
		} else {
			authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
		}
		apiAuthMiddleware = authMiddleware.Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":    groqClient.IsConfigured(),
				"suno":    sunoClient.IsConfigured(),
				"grammar": grammarClient.IsConfigured(),
				"r2":      r2Client != nil,
				"auth":    jwksVerifier != nil || cfg.JWT.Secret != "",
			},
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	// Synthesis API callback (unauthenticated)
	app.Post("/webhooks/suno", webhookHandler.SunoCallback)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Document routes
	docs := api.Group("/documents")
	docs.Post("/", documentHandler.Create)
	docs.Get("/", documentHandler.List)
	docs.Get("/:docId", documentHandler.Get)
	docs.Put("/:docId", documentHandler.Update)
	docs.Delete("/:docId", documentHandler.Delete)

	// Song task routes
	docs.Post("/:docId/songs", rateLimiter.SongsLimit(cfg.RateLimit.SongsPerHour), songHandler.Submit)
	docs.Get("/:docId/songs", songHandler.List)
	api.Delete("/songs/:taskId", songHandler.Delete)
	api.Post("/songs/:taskId/archive", songHandler.Archive)

	// Grammar routes
	grammar := api.Group("/grammar", rateLimiter.GrammarLimit(cfg.RateLimit.GrammarPerMin))
	grammar.Post("/check", grammarHandler.Check)

	// Lyrics routes
	lyrics := api.Group("/lyrics", rateLimiter.TransformLimit(cfg.RateLimit.TransformPerMin))
	lyrics.Post("/transform", lyricsHandler.Transform)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/documents/:docId", websocket.New(func(c *websocket.Conn) {
		docID := c.Params("docId")
		hub.HandleConnection(c, docID)
	}))

	// Start Asynq worker server and reconcile scheduler
	go startWorkerServer(cfg, songService)
	go startScheduler(cfg)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// storageOrNil keeps the StorageClient interface nil when R2 is not
// configured, so services fall back to mock storage.
func storageOrNil(c *client.R2Client) client.StorageClient {
	if c == nil {
		return nil
	}
	return c
}

func startWorkerServer(cfg *config.Config, songService *service.SongService) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 2,
			LogLevel:    asynqLogLevel,
		},
	)

	reconcileWorker := worker.NewReconcileWorker(songService)

	mux := asynq.NewServeMux()
	mux.HandleFunc(worker.TaskTypeReconcile, reconcileWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

// startScheduler enqueues the reconcile sweep on a fixed cadence.
func startScheduler(cfg *config.Config) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		nil,
	)

	if _, err := scheduler.Register(cfg.Reconcile.Interval, worker.NewReconcileTask()); err != nil {
		log.Printf("Failed to register reconcile schedule: %v", err)
		return
	}

	if err := scheduler.Run(); err != nil {
		log.Printf("Asynq scheduler error: %v", err)
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
