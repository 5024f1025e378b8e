package main

import (
	"fmt"
	"net/http"
	"os"

	"auctus/internal/config"
	"auctus/internal/database"
	"auctus/internal/handlers"
	"auctus/internal/logger"
	"auctus/internal/middleware"
	"auctus/internal/observability"
	"auctus/internal/services"
	"auctus/internal/token"
	"auctus/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "auctus/internal/docs" // Import swagger docs
)

// @title           Auctus Studio API
// @version         1.0
// @description     Authentication and account API for the Auctus Studio website.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := observability.InitSentry(appConfig.SentryDSN, appConfig.Env); err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	defer observability.FlushSentry()

	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	tokens := token.NewManager(appConfig.AccessSecret, appConfig.RefreshSecret)
	userService := services.NewUserService(db)
	emailService := services.NewEmailService(appConfig.SMTPHost, appConfig.SMTPPort, appConfig.SMTPUser, appConfig.SMTPPassword, appConfig.EmailFrom)
	resetService := services.NewPasswordResetService(db, userService, emailService, appConfig.WebsiteURL)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, resetService, auditService, tokens)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(appConfig.AllowedOrigins))
	router.HandleMethodNotAllowed = true

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", authHandler.Me)
	protected.GET("/me/activity", auditHandler.ListActivity)

	log.Infof("Starting Auctus API server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
