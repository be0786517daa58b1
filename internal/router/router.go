package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/fschubi/shutterpilot/internal/database/repository"
	"github.com/fschubi/shutterpilot/internal/handlers"
	"github.com/fschubi/shutterpilot/internal/middleware"
	"github.com/fschubi/shutterpilot/internal/services"
	"github.com/fschubi/shutterpilot/internal/services/auth"
	"github.com/fschubi/shutterpilot/internal/services/excel"
)

// Dependencies carries the already-wired services the router exposes.
type Dependencies struct {
	DB            *gorm.DB
	AuthService   *auth.AuthService
	SyncService   *services.SyncService
	EditService   *services.EditService
	ViewService   *services.ViewService
	Dispatcher    *services.DispatcherService
	EventHub      *services.EventHub
	ExportService *excel.Service
	VersionRepo   repository.SnapshotVersionRepository
}

// SetupRouter configures the Gin router
func SetupRouter(deps *Dependencies) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create middleware and handlers
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(deps.DB, deps.AuthService)

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	configHandler := handlers.NewConfigHandler(deps.SyncService, deps.VersionRepo)
	sessionHandler := handlers.NewSessionHandler(deps.EditService, deps.ViewService)
	actionHandler := handlers.NewActionHandler(deps.Dispatcher)
	eventsHandler := handlers.NewEventsHandler(deps.EventHub)
	exportHandler := handlers.NewExportHandler(deps.SyncService, deps.ExportService)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":   "ok",
				"sync":     deps.SyncService.State(),
				"entry_id": deps.SyncService.EntryID(),
				"time":     time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			protected.POST("/auth/logout", authHandler.Logout)

			// Configuration
			protected.GET("/config", configHandler.GetConfig)
			protected.POST("/config/refresh", configHandler.RefreshConfig)
			protected.GET("/config/versions", configHandler.ListVersions)
			protected.GET("/config/versions/:id", configHandler.GetVersion)
			protected.GET("/config/export", exportHandler.ExportConfig)

			// Edit session
			protected.POST("/session", sessionHandler.OpenSession)
			protected.GET("/session", sessionHandler.GetSession)
			protected.PUT("/session/tab", sessionHandler.SetTab)
			protected.POST("/session/commit", sessionHandler.CommitSession)
			protected.DELETE("/session", sessionHandler.CancelSession)

			// View state
			protected.GET("/view", sessionHandler.GetView)
			protected.PUT("/view/tab/:tab", sessionHandler.SetViewTab)
			protected.PUT("/view/select/:kind/:key", sessionHandler.SelectTarget)
			protected.DELETE("/view/select", sessionHandler.ClearSelection)

			// Actions
			protected.POST("/actions/:name", actionHandler.InvokeAction)
			protected.PUT("/automation/:state", actionHandler.SetAutomation)
			protected.PUT("/profiles/:name/enabled/:state", actionHandler.SetProfileEnabled)

			// Live event stream
			protected.GET("/events", eventsHandler.StreamEvents)
		}
	}

	return r
}
