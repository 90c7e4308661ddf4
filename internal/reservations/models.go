package reservations

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketing/internal/events"
	"ticketing/internal/tickets"
)

// Participant bounds are a business rule, not configuration
const (
	MinParticipants = 1
	MaxParticipants = 4
)

const maxReservationIDAttempts = 5

type Participant struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
}

type CreateReservationCommand struct {
	EventID        uuid.UUID
	AudienceZoneID uuid.UUID
	Participants   []Participant
	BookedBy       *uuid.UUID
	IdempotencyKey string
}

// Reservation is a view over the tickets sharing one reservation id
type Reservation struct {
	ReservationID   string           `json:"reservationId"`
	EventID         uuid.UUID        `json:"eventId"`
	AudienceZoneID  uuid.UUID        `json:"audienceZoneId"`
	Tickets         []tickets.Ticket `json:"tickets"`
	ReservationDate time.Time        `json:"reservationDate"`
}

// ZoneState is what the issue function sees inside the atomic step.
// Event is nil when the event does not exist, Zone when the zone does not
// belong to it.
type ZoneState struct {
	Event *events.Event
	Zone  *events.EventAudienceZone
	Held  int
}

type ZoneAvailability struct {
	EventID           uuid.UUID `json:"eventId"`
	AudienceZoneID    uuid.UUID `json:"audienceZoneId"`
	Name              string    `json:"name"`
	AllocatedCapacity int       `json:"allocatedCapacity"`
	Held              int       `json:"held"`
	Remaining         int       `json:"remaining"`
	IsActive          bool      `json:"isActive"`
	OnSale            bool      `json:"onSale"`
	// set when the caller asked about a specific quantity
	CanAccommodate *bool `json:"canAccommodate,omitempty"`
}

// NewReservationID returns RES- followed by the first 8 hex characters of a random uuid
func NewReservationID() string {
	return "RES-" + strings.ToUpper(uuid.NewString()[:8])
}
