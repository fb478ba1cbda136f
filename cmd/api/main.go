package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medosmotr/examination-api/docs"
	"github.com/medosmotr/examination-api/internal/auth"
	"github.com/medosmotr/examination-api/internal/config"
	"github.com/medosmotr/examination-api/internal/database"
	"github.com/medosmotr/examination-api/internal/http/handler"
	"github.com/medosmotr/examination-api/internal/http/middleware"
	"github.com/medosmotr/examination-api/internal/http/router"
	"github.com/medosmotr/examination-api/internal/jobs"
	"github.com/medosmotr/examination-api/internal/logger"
	"github.com/medosmotr/examination-api/internal/messaging"
	"github.com/medosmotr/examination-api/internal/repository"
	"github.com/medosmotr/examination-api/internal/service"
	"github.com/medosmotr/examination-api/internal/storage"
	"go.uber.org/zap"
)

// @title Examination API
// @version 1.0
// @description Coordination platform for mandatory medical examinations: clinic and employer registration, contingent rosters, route sheets, recommendations and health improvement plans

// @contact.name API Support
// @contact.email support@medosmotr.kz

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "examination-api-staging.medosmotr.kz"
	case "production":
		docs.SwaggerInfo.Host = "api.medosmotr.kz"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage for generated documents
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize the verification code channel
	codeSender, err := messaging.NewCodeSender(&cfg.Messaging, log)
	if err != nil {
		return fmt.Errorf("failed to initialize code sender: %w", err)
	}

	log.Info("Code sender initialized", zap.String("provider", cfg.Messaging.Provider))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	routeSheetRepo := repository.NewRouteSheetRepository(db)
	recommendationRepo := repository.NewRecommendationRepository(db)
	healthPlanRepo := repository.NewHealthPlanRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// Initialize services
	identityService := service.NewIdentityService(userRepo, challengeRepo, codeSender, &cfg.Auth, &cfg.Challenge, log, db)
	employeeService := service.NewEmployeeService(employeeRepo, log, db)
	routeSheetService := service.NewRouteSheetService(routeSheetRepo, doctorRepo, log, db)
	recommendationService := service.NewRecommendationService(recommendationRepo, log, db)
	healthPlanService := service.NewHealthPlanService(healthPlanRepo, log, db)
	doctorService := service.NewDoctorService(doctorRepo, log)
	documentService := service.NewDocumentService(documentRepo, employeeRepo, healthPlanRepo, recommendationRepo, fileStorage, log)

	// Initialize middleware
	tokenManager := auth.NewTokenManager(&cfg.Auth, cfg.App.Name)
	authMiddleware := auth.NewMiddleware(tokenManager, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(nil, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(identityService, tokenManager, log)
	employeeHandler := handler.NewEmployeeHandler(employeeService, log)
	routeSheetHandler := handler.NewRouteSheetHandler(routeSheetService, log)
	recommendationHandler := handler.NewRecommendationHandler(recommendationService, log)
	healthPlanHandler := handler.NewHealthPlanHandler(healthPlanService, log)
	doctorHandler := handler.NewDoctorHandler(doctorService, log)
	documentHandler := handler.NewDocumentHandler(documentService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		auditMiddleware,
		authHandler,
		employeeHandler,
		routeSheetHandler,
		recommendationHandler,
		healthPlanHandler,
		doctorHandler,
		documentHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		sweepJob := jobs.NewChallengeSweepJob(challengeRepo, cfg.Challenge.TTLDuration(), log)
		if err := scheduler.AddJob(jobs.ChallengeSweepJobName, cfg.Jobs.ChallengeSweepSchedule, sweepJob.Run); err != nil {
			log.Error("Failed to register challenge sweep job", zap.Error(err))
		}

		dueJob := jobs.NewExaminationDueJob(employeeRepo, log)
		if err := scheduler.AddJob(jobs.ExaminationDueJobName, cfg.Jobs.ExaminationDueSchedule, dueJob.Run); err != nil {
			log.Error("Failed to register examination due job", zap.Error(err))
		}

		scheduler.Start()
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
