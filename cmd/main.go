package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"ddqhub/internal/caching"
	"ddqhub/internal/handlers"
	"ddqhub/internal/jobs"
	"ddqhub/internal/jobs/background"
	"ddqhub/internal/middleware"
	"ddqhub/internal/models"
	"ddqhub/internal/repositories"
	"ddqhub/internal/services"
	"ddqhub/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Token configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
	tokenTTL := 8 * time.Hour
	if ttlStr := os.Getenv("TOKEN_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil && minutes > 0 {
			tokenTTL = time.Duration(minutes) * time.Minute
		}
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	archiveSvc, err := services.NewArchiveService(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize archive service: %v", err)
	}
	if err := archiveSvc.EnsureBucketExists(context.Background(), services.ImportBucket); err != nil {
		log.Printf("WARN: Failed to ensure import bucket exists: %v", err)
	}

	// Create repositories
	userRepo := repositories.NewUserRepo(pool)
	tenantRepo := repositories.NewTenantRepo(pool)
	questionnaireRepo := repositories.NewQuestionnaireRepo(pool)
	questionRepo := repositories.NewQuestionRepo(pool)
	responseRepo := repositories.NewResponseRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	authSvc := services.NewAuthService(services.TokenConfig{
		Secret:     []byte(jwtSecret),
		DefaultTTL: tokenTTL,
	})
	searchSvc := services.NewSearchService(questionRepo, responseRepo)

	// Import pipeline: the worker gets its own importer over its own repos
	// so background jobs never touch a request's unit of work
	importer := jobs.NewQuestionImporter(questionnaireRepo, questionRepo, cacheSvc)
	workerImporter := jobs.NewQuestionImporter(
		repositories.NewQuestionnaireRepo(pool),
		repositories.NewQuestionRepo(pool),
		cacheSvc,
	)
	importWorker := background.NewImportWorker(workerImporter, 64)
	importWorker.Start(2)
	defer importWorker.Stop()

	// Background scheduler
	scheduler := background.NewJobScheduler(tenantRepo, cacheSvc)
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop scheduler: %v", err)
		}
	}()

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, userRepo, cacheSvc)
	userHandlers := handlers.NewUserHandlers(userRepo, authSvc)
	questionnaireHandlers := handlers.NewQuestionnaireHandlers(questionnaireRepo)
	questionHandlers := handlers.NewQuestionHandlers(questionRepo, questionnaireRepo)
	responseHandlers := handlers.NewResponseHandlers(responseRepo, questionRepo)
	importHandlers := handlers.NewImportHandlers(importer, importWorker, archiveSvc)
	searchHandlers := handlers.NewSearchHandlers(searchSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc)

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.VersionHeader("v1"))

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", authHandlers.Login)
	auth.POST("/token", authHandlers.Token)

	// Protected routes
	protected := e.Group("")
	protected.Use(middleware.AuthMiddleware(authSvc, userRepo))

	writeRoles := middleware.RequireRole(models.RoleAdmin, models.RoleAnalyst)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	protected.GET("/me", authHandlers.Me)

	protected.GET("/users", userHandlers.ListUsers, adminOnly)
	protected.POST("/users", userHandlers.CreateUser, adminOnly)

	protected.GET("/questionnaires", questionnaireHandlers.ListQuestionnaires)
	protected.GET("/questionnaires/:id", questionnaireHandlers.GetQuestionnaire)
	protected.POST("/questionnaires", questionnaireHandlers.CreateQuestionnaire, adminOnly)

	protected.GET("/questions", questionHandlers.ListQuestions)
	protected.POST("/questions", questionHandlers.CreateQuestion, writeRoles)

	protected.GET("/responses", responseHandlers.ListResponses)
	protected.GET("/responses/:question_id", responseHandlers.GetResponse)
	protected.PUT("/responses/:question_id", responseHandlers.UpsertResponse, writeRoles)

	protected.POST("/imports/questions", importHandlers.ImportQuestions, writeRoles)

	protected.GET("/search", searchHandlers.Search)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	go func() {
		log.Printf("ddqhub server v%s starting on port %d", version, port)
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}
