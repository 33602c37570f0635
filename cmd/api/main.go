package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wondrlab/crosssell-api/docs"
	"github.com/wondrlab/crosssell-api/internal/auth"
	"github.com/wondrlab/crosssell-api/internal/config"
	"github.com/wondrlab/crosssell-api/internal/database"
	"github.com/wondrlab/crosssell-api/internal/http/handler"
	"github.com/wondrlab/crosssell-api/internal/http/middleware"
	"github.com/wondrlab/crosssell-api/internal/http/router"
	"github.com/wondrlab/crosssell-api/internal/jobs"
	"github.com/wondrlab/crosssell-api/internal/logger"
	"github.com/wondrlab/crosssell-api/internal/repository"
	"github.com/wondrlab/crosssell-api/internal/service"
	"github.com/wondrlab/crosssell-api/internal/storage"
	"go.uber.org/zap"
)

// @title Cross-Sell Tracker API
// @version 1.0
// @description Internal API for tracking client accounts, the service catalog and cross-sell opportunities
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@wondrlab.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

const jobTimeout = 10 * time.Minute

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

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// In development secrets come from the environment,
	// in staging/production from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	fileStorage, err := storage.NewStorage(ctx, &cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized",
		zap.String("mode", cfg.Storage.Mode),
		zap.Bool("archive_imports", cfg.Storage.ArchiveImports),
	)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	unitRepo := repository.NewBusinessUnitRepository(db)
	industryRepo := repository.NewIndustryRepository(db)
	clientRepo := repository.NewClientRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	tokens := auth.NewTokenManager(&cfg.Auth)
	notificationService := service.NewNotificationService(notificationRepo, log)
	userService := service.NewUserService(userRepo, log)
	authService := service.NewAuthService(userService, userRepo, tokens, &cfg.Auth, log)
	unitService := service.NewBusinessUnitService(db, unitRepo, serviceRepo, log)
	industryService := service.NewIndustryService(industryRepo, log)
	clientService := service.NewClientService(db, clientRepo, serviceRepo, opportunityRepo, userRepo, notificationService, log)
	catalogService := service.NewCatalogService(db, serviceRepo, unitRepo, clientRepo, opportunityRepo, log)
	opportunityService := service.NewOpportunityService(db, opportunityRepo, clientRepo, serviceRepo, userRepo, notificationService, log)
	taskService := service.NewTaskService(taskRepo, opportunityRepo, userRepo, notificationService, log)
	lookupService := service.NewLookupService(clientRepo, serviceRepo, opportunityRepo, userRepo)
	matrixService := service.NewMatrixService(clientRepo, serviceRepo, opportunityRepo, opportunityService, log)
	importService := service.NewImportService(
		lookupService,
		clientService,
		catalogService,
		opportunityService,
		taskService,
		fileStorage,
		&cfg.Import,
		cfg.Storage.ArchiveImports,
		log,
	)

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, authMiddleware, rateLimiter, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, log),
		User:         handler.NewUserHandler(userService, log),
		Client:       handler.NewClientHandler(clientService, log),
		Catalog:      handler.NewCatalogHandler(catalogService, log),
		Opportunity:  handler.NewOpportunityHandler(opportunityService, matrixService, log),
		Task:         handler.NewTaskHandler(taskService, log),
		Admin:        handler.NewAdminHandler(unitService, industryService, log),
		Notification: handler.NewNotificationHandler(notificationService, log),
		Lookup:       handler.NewLookupHandler(lookupService, log),
		Import:       handler.NewImportHandler(importService, cfg.Import.MaxUploadBytes(), log),
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		overdueJob := jobs.NewOverdueJob(taskRepo, userRepo, notificationService, cfg.Jobs.EscalationThreshold, log, jobTimeout)
		if err := jobs.RegisterOverdueJob(scheduler, overdueJob, cfg.Jobs.OverdueCron); err != nil {
			return fmt.Errorf("failed to register overdue job: %w", err)
		}

		cleanupJob := jobs.NewCleanupJob(notificationService, cfg.Jobs.Retention(), log, jobTimeout)
		if err := jobs.RegisterCleanupJob(scheduler, cleanupJob, cfg.Jobs.CleanupCron); err != nil {
			return fmt.Errorf("failed to register cleanup job: %w", err)
		}

		scheduler.Start()
		log.Info("Scheduler started",
			zap.Strings("jobs", scheduler.GetJobNames()),
			zap.String("overdue_cron", cfg.Jobs.OverdueCron),
			zap.String("cleanup_cron", cfg.Jobs.CleanupCron),
		)
	} else {
		log.Info("Scheduled jobs disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			stopped := scheduler.Stop()
			<-stopped.Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if err := database.Close(db); err != nil {
			log.Warn("Error closing database connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
