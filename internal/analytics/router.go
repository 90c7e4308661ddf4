package analytics

import (
	"github.com/gin-gonic/gin"

	"ticketing/internal/shared/config"
	"ticketing/internal/shared/middleware"
	"ticketing/internal/users"
)

func SetupAnalyticsRoutes(router *gin.RouterGroup, controller Controller, cfg *config.Config) {
	managers := router.Group("")
	managers.Use(
		middleware.JWTAuthWithConfig(cfg),
		middleware.RequireRoles(string(users.RoleOrganizer), string(users.RoleAdmin)),
	)
	{
		managers.GET("/events/:id/statistics", controller.GetEventStatistics)
		managers.GET("/structures/:id/statistics", controller.GetStructureStatistics)
	}
}
