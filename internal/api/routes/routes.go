package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/quickcab/ride-hailing/internal/api/handlers"
	"github.com/quickcab/ride-hailing/internal/api/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	v1 := r.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/refresh-token", h.RefreshToken)
		users.POST("/logout", middleware.Auth(h.Auth), h.Logout)
	}

	rides := v1.Group("/rides")
	rides.Use(middleware.Auth(h.Auth))
	{
		rides.POST("", h.CreateRide)
		rides.GET("/user/history", h.RiderHistory)
		rides.GET("/driver/history", h.DriverHistory)
		rides.GET("/user/active", h.RiderActiveRide)
		rides.GET("/driver/active", h.DriverActiveRide)
		rides.GET("/:rideId", h.GetRide)
		rides.POST("/:rideId/assign/:driverId", h.AssignDriver)
		rides.POST("/:rideId/accept", h.AcceptRide)
		rides.POST("/:rideId/reject", h.RejectRide)
		rides.POST("/:rideId/start", h.StartRide)
		rides.POST("/:rideId/complete", h.CompleteRide)
		rides.POST("/:rideId/cancel", h.CancelRide)
		rides.POST("/:rideId/location", h.UpdateLocation)
	}
}
