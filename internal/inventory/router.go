package inventory

import (
	"ticketing/internal/shared/config"
	"ticketing/internal/shared/middleware"
	"ticketing/internal/users"

	"github.com/gin-gonic/gin"
)

func SetupInventoryRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	managers := middleware.RequireRoles(string(users.RoleOrganizer), string(users.RoleAdmin))

	// public reads
	rg.GET("/structures", controller.ListStructures)
	rg.GET("/structures/:id", controller.GetStructure)
	rg.GET("/structures/:id/areas", controller.ListAreas)
	rg.GET("/areas/:id", controller.GetArea)
	rg.GET("/areas/:id/zone-templates", controller.ListTemplates)

	admin := rg.Group("")
	admin.Use(middleware.JWTAuthWithConfig(cfg), managers)
	{
		admin.POST("/structures", middleware.RequireRoles(string(users.RoleAdmin)), controller.CreateStructure)
		admin.PATCH("/structures/:id", controller.UpdateStructure)
		admin.POST("/structures/:id/areas", controller.CreateArea)

		admin.PATCH("/areas/:id", controller.UpdateArea)
		admin.DELETE("/areas/:id", controller.DeleteArea)
		admin.POST("/areas/:id/zone-templates", controller.CreateTemplate)

		admin.PATCH("/zone-templates/:id", controller.UpdateTemplate)
		admin.DELETE("/zone-templates/:id", controller.DeleteTemplate)
	}
}
