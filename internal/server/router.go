// Package server wires services, handlers and middleware into the HTTP router.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"trailkeeper/internal/handlers"
	"trailkeeper/internal/metrics"
	"trailkeeper/internal/middleware"
	"trailkeeper/internal/services"
	"trailkeeper/internal/unitofwork"

	_ "trailkeeper/internal/docs" // Import swagger docs
)

// Options configures the router.
type Options struct {
	Tokens       *middleware.TokenService
	OperatorKey  string
	RedactFields []string

	// Registry receives the audit metrics and backs /metrics. Nil disables both.
	Registry *prometheus.Registry

	// UnitOfWork options applied to every unit-of-work, e.g. a fixed clock in tests.
	UnitOfWork []unitofwork.Option
}

// NewRouter builds the complete application router on top of db.
func NewRouter(db *gorm.DB, opts Options) *gin.Engine {
	var m *metrics.Metrics
	if opts.Registry != nil {
		m = metrics.New(opts.Registry)
	}
	uowOpts := append([]unitofwork.Option{unitofwork.WithMetrics(m)}, opts.UnitOfWork...)

	// Services
	auditService := services.NewAuditService(db,
		services.WithRedactFields(opts.RedactFields...),
		services.WithAuditMetrics(m),
	)
	userService := services.NewUserService(db, auditService, uowOpts...)
	profileService := services.NewProfileService(db, auditService, uowOpts...)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, opts.Tokens)
	profileHandler := handlers.NewProfileHandler(userService, profileService)
	auditHandler := handlers.NewAuditHandler(auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(opts.Tokens.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", profileHandler.GetProfile)
	protected.PATCH("/profile", profileHandler.UpdateProfile)
	protected.DELETE("/profile", profileHandler.DeactivateAccount)

	// Operator routes
	admin := v1.Group("/admin")
	admin.Use(middleware.OperatorKeyMiddleware(opts.OperatorKey))

	admin.POST("/users/:id/:action", profileHandler.SetUserActive)
	admin.GET("/audit/entities/:table/:id", auditHandler.GetEntityLogs)
	admin.GET("/audit/actors/:actor", auditHandler.GetActorLogs)
	admin.POST("/audit/events", auditHandler.RecordEvent)

	return router
}
