package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	_ "github.com/fschubi/shutterpilot/docs"
	"github.com/fschubi/shutterpilot/internal/config"
	"github.com/fschubi/shutterpilot/internal/database"
	"github.com/fschubi/shutterpilot/internal/database/repository"
	"github.com/fschubi/shutterpilot/internal/hass"
	"github.com/fschubi/shutterpilot/internal/router"
	"github.com/fschubi/shutterpilot/internal/services"
	"github.com/fschubi/shutterpilot/internal/services/auth"
	"github.com/fschubi/shutterpilot/internal/services/excel"
	"github.com/fschubi/shutterpilot/internal/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize auth service and bootstrap the admin account
	authService := auth.NewAuthService(db)
	if err := authService.EnsureAdminUser(); err != nil {
		logrus.Warnf("Failed to bootstrap admin user: %v", err)
	}

	// Home Assistant client
	hassConfig := config.GetHassConfig()
	backend := hass.NewClient(hassConfig.BaseURL, hassConfig.Token, hassConfig.Timeout)

	// Core services
	hub := services.NewEventHub()
	deriver := services.NewStatusDeriver()
	scheduler := services.NewWallClockScheduler()
	versionRepo := repository.NewSnapshotVersionRepository(db)
	syncService := services.NewSyncService(backend, deriver, scheduler, hub, versionRepo, hassConfig.EntryID, hassConfig.SettleDelay)
	editService := services.NewEditService(syncService, deriver)
	viewService := services.NewViewService(editService)
	dispatcher := services.NewDispatcherService(backend, syncService, deriver, hub, scheduler, time.Second)
	exportService := excel.NewExportService(getEnv("EXPORTS_DIR", "exports"))

	// Initial configuration load
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), hassConfig.Timeout)
	if _, err := syncService.Load(startupCtx); err != nil {
		logrus.Warnf("Initial configuration load failed, continuing with empty snapshot: %v", err)
	}
	cancelStartup()

	// Live-state feed from RabbitMQ
	feedCtx, cancelFeed := context.WithCancel(context.Background())
	defer cancelFeed()
	liveFeed, err := services.NewLiveFeedService(syncService, hub)
	if err != nil {
		logrus.Warnf("Failed to initialize live feed: %v", err)
	} else {
		defer liveFeed.Close()
		if err := liveFeed.Start(feedCtx); err != nil {
			logrus.Warnf("Failed to start live feed consumer: %v", err)
		} else {
			logrus.Info("Live feed consumer started")
		}
	}

	// Initialize router
	r := router.SetupRouter(&router.Dependencies{
		DB:            db,
		AuthService:   authService,
		SyncService:   syncService,
		EditService:   editService,
		ViewService:   viewService,
		Dispatcher:    dispatcher,
		EventHub:      hub,
		ExportService: exportService,
		VersionRepo:   versionRepo,
	})

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
