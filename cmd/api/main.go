package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wara/internal/analysis"
	"wara/internal/cache"
	"wara/internal/config"
	"wara/internal/database"
	"wara/internal/database/migration"
	"wara/internal/docx"
	handlers "wara/internal/http/handler"
	"wara/internal/http/middleware"
	"wara/internal/llm"
	"wara/internal/logger"
	"wara/internal/otel"
	"wara/internal/queue"
	"wara/internal/repository/postgres"
	"wara/internal/service"
	"wara/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, zl)
	if err != nil {
		zl.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, zl); err != nil {
		zl.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		zl.Fatal("failed to initialize object storage", zap.Error(err))
	}

	// Redis is optional; without it LLM analysis results are recomputed
	// on every run.
	var analysisCache service.AnalysisCache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zl.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		analysisCache = cache.NewAnalysisCache(redisClient, time.Duration(cfg.Redis.AnalysisTTL)*time.Second)
	}

	amqpConn, err := queue.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		zl.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer amqpConn.Close()
	jobs := queue.NewPublisher(amqpConn, cfg.RabbitMQ.JobQueue)

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	cmpRepo := postgres.NewComparisonPostgres(db)
	repRepo := postgres.NewReportPostgres(db)

	llmClient := llm.NewClient(cfg.Ollama)

	docSvc := service.NewDocumentService(objStore, docRepo, docx.NewExtractor(), jobs, llmClient, service.UploadLimits{
		MaxFileSizeBytes: cfg.Upload.MaxFileSizeBytes,
		MaxFilenameLen:   cfg.Upload.MaxFilenameLen,
	})
	cmpSvc := service.NewComparisonService(cmpRepo, docRepo, analysis.NewComparator(), llmClient, analysisCache, jobs)
	repSvc := service.NewReportService(repRepo, cmpRepo, docRepo, objStore, jobs)

	// Background worker drains the shared job queue for document
	// processing, comparison runs and report generation.
	worker := queue.NewWorker(amqpConn, cfg.RabbitMQ.JobQueue, cfg.RabbitMQ.Consumers,
		service.NewJobDispatcher(docSvc, cmpSvc, repSvc), zl)
	if err := worker.Start(ctx); err != nil {
		zl.Fatal("failed to start job worker", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		zl.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, cmpSvc, repSvc, llmClient)

	addr := ":" + cfg.Port
	go func() {
		if err := app.Listen(addr); err != nil {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()
	zl.Info("server started", zap.String("addr", addr))

	<-ctx.Done()
	zl.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
	worker.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Error("tracing shutdown failed", zap.Error(err))
	}
}
