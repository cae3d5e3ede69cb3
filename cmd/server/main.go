package main

import (
	"context"
	"log"
	"os"
	"os/signal"
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

	"github.com/hoopsight/api/internal/client"
	"github.com/hoopsight/api/internal/config"
	"github.com/hoopsight/api/internal/handler"
	"github.com/hoopsight/api/internal/middleware"
	"github.com/hoopsight/api/internal/model"
	"github.com/hoopsight/api/internal/service"
	"github.com/hoopsight/api/internal/store"
	"github.com/hoopsight/api/internal/worker"
	ws "github.com/hoopsight/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
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

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients; unconfigured ones fall back to mocks
	// so the pipeline stays runnable in development.
	groqClient := client.NewGroqClient(&cfg.Groq)

	var videoStorage client.VideoStorage
	if gcsClient, err := client.NewGCSClient(ctx, &cfg.GCP); err != nil {
		log.Printf("Warning: GCS not configured, uploads use mock storage: %v", err)
	} else {
		videoStorage = gcsClient
		defer gcsClient.Close()
	}

	var annotator client.VideoAnnotator
	if cfg.GCP.ProjectID == "" {
		log.Printf("Warning: GCP not configured, using mock video annotator")
		annotator = client.NewMockVideoAnnotator()
	} else {
		videoClient, err := client.NewVideoClient(ctx, &cfg.GCP)
		if err != nil {
			log.Fatalf("Failed to create video intelligence client: %v", err)
		}
		annotator = videoClient
		defer videoClient.Close()
	}

	var objectStorage client.ObjectStorage
	if r2Client, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Printf("Warning: R2 not configured, artifacts use in-memory storage: %v", err)
		objectStorage = client.NewMemoryObjectStorage()
	} else {
		objectStorage = r2Client
	}

	// Initialize stores
	jobStore := store.NewRedisJobStore(redisClient)
	artifactStore := store.NewR2ArtifactStore(objectStorage)

	// Initialize services
	uploadService := service.NewUploadService(videoStorage, jobStore)
	summaryService := service.NewSummaryService(groqClient, cfg.Analysis.LabelLimit)
	analysisService := service.NewAnalysisService(
		jobStore,
		artifactStore,
		annotator,
		summaryService,
		asynqClient,
		time.Duration(cfg.Analysis.AnnotateTimeout)*time.Second,
	)
	analysisService.OnProgress = func(jobID string, step model.AnalysisStep) {
		hub.BroadcastProgress(jobID, model.JobStatusAnalyzing, step)
	}

	// Initialize handlers
	uploadHandler := handler.NewUploadHandler(uploadService, validate)
	analysisHandler := handler.NewAnalysisHandler(analysisService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    200 * 1024 * 1024, // 200MB, matches the upload cap
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":   "hoopsight-api",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	videos := api.Group("/videos")
	videos.Post("/", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), uploadHandler.Video)
	videos.Post("/:jobId/analyze", rateLimiter.AnalyzeLimit(cfg.RateLimit.AnalyzePerHour), analysisHandler.Analyze)
	videos.Post("/:jobId/retry", rateLimiter.AnalyzeLimit(cfg.RateLimit.AnalyzePerHour), analysisHandler.Retry)
	videos.Get("/:jobId", analysisHandler.Status)
	videos.Get("/:jobId/summary", analysisHandler.Summary)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/videos/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, analysisService, hub)

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

func startWorkerServer(cfg *config.Config, analysisService *service.AnalysisService, hub *ws.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				service.AnalysisQueue: 10,
			},
		},
	)

	analysisWorker := worker.NewAnalysisWorker(analysisService, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeAnalyze, analysisWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
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
