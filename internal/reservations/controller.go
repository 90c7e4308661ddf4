package reservations

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ticketing/internal/shared/middleware"
	"ticketing/internal/shared/utils/response"
)

const IdempotencyHeader = "X-Idempotency-Key"

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) CreateReservation(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	var req CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}

	cmd := CreateReservationCommand{
		EventID:        uuid.MustParse(req.EventID),
		AudienceZoneID: uuid.MustParse(req.AudienceZoneID),
		Participants:   req.Participants,
		BookedBy:       &actor.UserID,
		IdempotencyKey: c.GetHeader(IdempotencyHeader),
	}

	reservation, err := ctrl.service.CreateReservation(c.Request.Context(), cmd)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusCreated, "Reservation confirmed", reservation, nil)
}

func (ctrl *Controller) GetReservation(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	reservation, err := ctrl.service.GetReservation(c.Request.Context(), actor, c.Param("reservationId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondJSON(c, "success", http.StatusOK, "Reservation retrieved successfully", reservation, nil)
}

func (ctrl *Controller) GetAvailability(c *gin.Context) {
	eventID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	zoneID, ok := response.ParamUUID(c, "zoneId")
	if !ok {
		return
	}

	var query AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondBindError(c, err)
		return
	}

	availability, err := ctrl.service.GetAvailability(c.Request.Context(), eventID, zoneID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if query.Quantity > 0 {
		fits, err := ctrl.service.CanAccommodate(c.Request.Context(), zoneID, query.Quantity)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		availability.CanAccommodate = &fits
	}
	response.RespondJSON(c, "success", http.StatusOK, "Availability retrieved successfully", availability, nil)
}
