package analytics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketing/internal/shared/middleware"
	"ticketing/internal/shared/utils/response"
)

type Controller interface {
	GetEventStatistics(c *gin.Context)
	GetStructureStatistics(c *gin.Context)
}

type controller struct {
	service Service
}

func NewController(service Service) Controller {
	return &controller{service: service}
}

func (ctrl *controller) GetEventStatistics(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	stats, err := ctrl.service.GetEventStatistics(c.Request.Context(), actor, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Event statistics retrieved successfully", stats, nil)
}

func (ctrl *controller) GetStructureStatistics(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	structureID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	stats, err := ctrl.service.GetStructureStatistics(c.Request.Context(), actor, structureID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Structure statistics retrieved successfully", stats, nil)
}
