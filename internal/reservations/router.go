package reservations

import (
	"github.com/gin-gonic/gin"

	"ticketing/internal/shared/config"
	"ticketing/internal/shared/middleware"
)

// SetupReservationRoutes registers the booking endpoints. Issuance falls in
// the reservation rate limit bucket.
func SetupReservationRoutes(router *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	router.GET("/events/:id/zones/:zoneId/availability", controller.GetAvailability)

	booking := router.Group("/ticketing/reservations")
	booking.Use(middleware.JWTAuthWithConfig(cfg))
	{
		booking.POST("", controller.CreateReservation)
		booking.GET("/:reservationId", controller.GetReservation)
	}
}
