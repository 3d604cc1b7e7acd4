package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nearme/api/middleware"
)

// RouteDeps is what SetupRoutes wires into the router.
type RouteDeps struct {
	Auth          *AuthHandlers
	Analytics     *AnalyticsHandlers
	ServiceKey    string
	DurableDriver string
}

// SetupRoutes registers every API route on router.
func SetupRoutes(router *gin.Engine, deps RouteDeps) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "event_store": deps.DurableDriver})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Tracking is public: listing pages post events anonymously.
		api.POST("/track", deps.Analytics.TrackEvent)

		if deps.Auth != nil {
			api.POST("/signup", deps.Auth.Signup)
			api.POST("/login", deps.Auth.Login)
			api.POST("/logout", deps.Auth.Logout)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthRequired(deps.ServiceKey))
		{
			if deps.Auth != nil {
				protected.GET("/profile", deps.Auth.Profile)
			}
			protected.GET("/businesses/:businessId/analytics", deps.Analytics.GetBusinessAnalytics)
		}
	}
}
