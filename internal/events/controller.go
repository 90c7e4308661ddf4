package events

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ticketing/internal/shared/middleware"
	"ticketing/internal/shared/utils/response"
	"ticketing/internal/users"
)

type Controller interface {
	CreateEvent(c *gin.Context)
	GetEvent(c *gin.Context)
	ListEvents(c *gin.Context)
	UpdateEvent(c *gin.Context)
	ChangeStatus(c *gin.Context)
	DeleteEvent(c *gin.Context)
	GetMutableFields(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func viewerFrom(c *gin.Context) *users.Actor {
	if actor, ok := middleware.GetActor(c); ok {
		return &actor
	}
	return nil
}

func (ctrl *controller) CreateEvent(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}

	event, err := ctrl.service.CreateEvent(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Event created successfully", event, nil)
}

func (ctrl *controller) GetEvent(c *gin.Context) {
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	event, err := ctrl.service.GetEvent(c.Request.Context(), viewerFrom(c), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event retrieved successfully", event, nil)
}

func (ctrl *controller) ListEvents(c *gin.Context) {
	var filters EventFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.RespondBindError(c, err)
		return
	}

	page, err := ctrl.service.ListEvents(c.Request.Context(), viewerFrom(c), filters)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Events retrieved successfully", page, nil)
}

func (ctrl *controller) UpdateEvent(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}

	event, err := ctrl.service.UpdateEvent(c.Request.Context(), actor, eventID, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event updated successfully", event, nil)
}

func (ctrl *controller) ChangeStatus(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}

	event, err := ctrl.service.ChangeStatus(c.Request.Context(), actor, eventID, Status(strings.ToUpper(req.Status)))
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event status updated successfully", event, nil)
}

func (ctrl *controller) DeleteEvent(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.service.DeleteEvent(c.Request.Context(), actor, eventID); err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Event deleted successfully", nil, nil)
}

func (ctrl *controller) GetMutableFields(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	fields, err := ctrl.service.GetMutableFields(c.Request.Context(), actor, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Mutable fields retrieved successfully", fields, nil)
}
