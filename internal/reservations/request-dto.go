package reservations

// participants are checked by the service so a wrong count gets its own error
type CreateReservationRequest struct {
	EventID        string        `json:"eventId" binding:"required,uuid"`
	AudienceZoneID string        `json:"audienceZoneId" binding:"required,uuid"`
	Participants   []Participant `json:"participants"`
}

type AvailabilityQuery struct {
	Quantity int `form:"quantity" binding:"omitempty,min=1,max=4"`
}
