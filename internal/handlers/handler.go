package handlers

import (
	"users_api/internal/logger"
	"users_api/internal/models"
	"users_api/internal/service"

	"github.com/gin-gonic/gin"

	_ "users_api/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// User directory (token required)
	h.registerUserRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerUserRoutes(r *gin.Engine) {
	users := r.Group("/users", h.claimsMiddleware)
	{
		users.GET("", h.listUsers)
		users.GET("/:username", h.getUser)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.claimsMiddleware)
	{
		h.registerAuditRoutes(api)
	}
}

func (h *Handler) registerAuditRoutes(api *gin.RouterGroup) {
	// audit trail spans every user; admins only
	audit := api.Group("/audit", h.requireRole(models.RoleAdmin))
	{
		audit.GET("", h.getAuditEvents)
		// WebSocket upgrade on the same port
		audit.GET("/ws", h.wsAuditStream)
	}
}
