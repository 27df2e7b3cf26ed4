package routes

import (
	"time"

	"concierge/handlers"
	"concierge/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterConciergeRoutes registers the guest messaging endpoints.
func RegisterConciergeRoutes(r *gin.Engine, hb *handlers.HandlerBundle, limiter *middleware.RateLimiter) {
	api := r.Group("/api/concierge")
	{
		// Protected routes (require a tenant token)
		api.Use(middleware.TenantAuthMiddleware())
		api.Use(limiter.Middleware())
		api.POST("/messages", hb.PostMessageHandler)
		api.GET("/conversations/:id", hb.GetConversationHandler)
		api.DELETE("/conversations/:id/dialog", hb.ResetDialogHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, limiter *middleware.RateLimiter) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterConciergeRoutes(r, hb, limiter)
	RegisterHealthRoute(r, hb)
}
