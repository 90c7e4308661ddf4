package events

import (
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/middleware"
	"ticketing/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	// Public routes - drafts stay visible to their organizers only
	publicEvents := router.Group("/events")
	publicEvents.Use(middleware.OptionalAuthWithConfig(cfg))
	{
		publicEvents.GET("", controller.ListEvents)
		publicEvents.GET("/:id", controller.GetEvent)
	}

	// Organizer routes - structure organizers and admins manage events
	organizerEvents := router.Group("/events")
	organizerEvents.Use(
		middleware.JWTAuthWithConfig(cfg),
		middleware.RequireRoles(string(users.RoleOrganizer), string(users.RoleAdmin)),
	)
	{
		organizerEvents.POST("", controller.CreateEvent)
		organizerEvents.PATCH("/:id", controller.UpdateEvent)
		organizerEvents.DELETE("/:id", controller.DeleteEvent)
		organizerEvents.PATCH("/:id/status", controller.ChangeStatus)
		organizerEvents.GET("/:id/mutable-fields", controller.GetMutableFields)
	}
}
