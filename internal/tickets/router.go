package tickets

import (
	"github.com/gin-gonic/gin"

	"ticketing/internal/shared/config"
	"ticketing/internal/shared/middleware"
	"ticketing/internal/users"
)

var scanRoles = []string{string(users.RoleScanner), string(users.RoleOrganizer), string(users.RoleAdmin)}

func SetupTicketRoutes(router *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	holder := router.Group("/ticketing/tickets")
	holder.Use(middleware.JWTAuthWithConfig(cfg))
	{
		holder.GET("/my", controller.ListMyTickets)
		holder.GET("/:id", controller.GetTicket)
		holder.POST("/:id/validate", middleware.RequireRoles(scanRoles...), controller.ValidateTicket)
		holder.POST("/:id/cancel",
			middleware.RequireRoles(string(users.RoleOrganizer), string(users.RoleAdmin)),
			controller.CancelTicket)
	}

	management := router.Group("/events/:id/management/tickets")
	management.Use(middleware.JWTAuthWithConfig(cfg), middleware.RequireRoles(scanRoles...))
	{
		management.GET("", controller.ListEventTickets)
		management.POST("/:ticketId/validate", controller.ValidateEventTicket)
	}
}
