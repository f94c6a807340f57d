package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/config"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/database"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/handler"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/middleware"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/repository"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/router"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/service"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/pkg/embedding"
	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/pkg/llm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Submission{},
		&models.SubmissionChunk{},
		&models.ChunkFingerprint{},
		&models.SimilarityMatch{},
		&models.FeedbackResult{},
		&models.ConceptHistory{},
		&models.StudentProfile{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, progress caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NatsURL != "" {
		natsConn, err = nats.Connect(cfg.NatsURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats url not configured, graded events disabled")
	}

	embedder, err := newEmbeddingProvider(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create embedding provider: %v", err)
	}

	llmProvider, err := newLLMProvider(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create llm provider: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	fingerprintRepo := repository.NewFingerprintRepository(db)
	similarityRepo := repository.NewSimilarityRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	ingestionService := service.NewIngestionService(submissionRepo, chunkRepo, validate, logger)
	plagiarismService := service.NewPlagiarismService(submissionRepo, chunkRepo, fingerprintRepo, similarityRepo, embedder, cfg.PlagiarismThreshold, logger)
	rubricService := service.NewRubricService(submissionRepo, chunkRepo, feedbackRepo, cfg.MaxGrade, logger)
	progressService := service.NewProgressService(profileRepo, feedbackRepo, redisClient, cfg.ProgressCacheTTL, logger)
	reviewService := service.NewReviewService(submissionRepo, chunkRepo, feedbackRepo, profileRepo, progressService, llmProvider, natsConn, cfg.NatsGradedSubject, logger)

	submissionHandler := handler.NewSubmissionHandler(ingestionService, logger)
	plagiarismHandler := handler.NewPlagiarismHandler(plagiarismService, logger)
	gradingHandler := handler.NewGradingHandler(rubricService, reviewService, logger)
	progressHandler := handler.NewProgressHandler(progressService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})

	var jwtMiddleware fiber.Handler
	if cfg.JWTSecret != "" {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	} else {
		logger.Warn().Msg("jwt secret not configured, api endpoints are unauthenticated")
	}

	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: submissionHandler,
		PlagiarismHandler: plagiarismHandler,
		GradingHandler:    gradingHandler,
		ProgressHandler:   progressHandler,
		JWTMiddleware:     jwtMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func newEmbeddingProvider(cfg config.Config, logger zerolog.Logger) (embedding.Provider, error) {
	if cfg.EmbeddingProvider == config.ProviderOpenAI {
		return embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.EmbeddingModel,
			Logger: logger,
		})
	}

	return embedding.NewHashProvider(cfg.EmbeddingDimensions), nil
}

func newLLMProvider(cfg config.Config, logger zerolog.Logger) (llm.Provider, error) {
	if cfg.LLMProvider == config.ProviderOpenAI {
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.LLMModel,
			Logger: logger,
		})
	}

	return llm.MockProvider{}, nil
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
