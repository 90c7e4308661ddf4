package tickets

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketing/internal/shared/middleware"
	"ticketing/internal/shared/utils/response"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) GetTicket(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	ticket, err := ctrl.service.GetTicket(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Ticket retrieved successfully", ticket, nil)
}

func (ctrl *Controller) ListMyTickets(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	var query PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(c, err)
		return
	}

	page, err := ctrl.service.ListMyTickets(c.Request.Context(), actor, query.Page, query.Limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Tickets retrieved successfully", page, nil)
}

func (ctrl *Controller) ListEventTickets(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var filters TicketFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.RespondBindError(c, err)
		return
	}

	page, err := ctrl.service.ListEventTickets(c.Request.Context(), actor, eventID, filters)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Tickets retrieved successfully", page, nil)
}

func (ctrl *Controller) ValidateTicket(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	ticket, err := ctrl.service.Validate(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Ticket validated", ticket, nil)
}

// ValidateEventTicket is the scan endpoint of an event's entry management
func (ctrl *Controller) ValidateEventTicket(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	ticketID, ok := response.ParamUUID(c, "ticketId")
	if !ok {
		return
	}

	ticket, err := ctrl.service.ValidateForEvent(c.Request.Context(), actor, eventID, ticketID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Ticket validated", ticket, nil)
}

func (ctrl *Controller) CancelTicket(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	ticket, err := ctrl.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Ticket cancelled", ticket, nil)
}
