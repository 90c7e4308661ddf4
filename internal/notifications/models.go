package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type LifecycleType string

const (
	TypeTicketIssued    LifecycleType = "ticket.issued"
	TypeTicketValidated LifecycleType = "ticket.validated"
	TypeTicketCancelled LifecycleType = "ticket.cancelled"
)

type Recipient struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TicketLifecycleEvent is the message published whenever tickets change state
type TicketLifecycleEvent struct {
	ID            uuid.UUID     `json:"id"`
	Type          LifecycleType `json:"type"`
	ReservationID string        `json:"reservationId"`
	EventID       uuid.UUID     `json:"eventId"`
	EventName     string        `json:"eventName"`
	EventStart    time.Time     `json:"eventStart"`
	ZoneName      string        `json:"zoneName,omitempty"`
	TicketIDs     []uuid.UUID   `json:"ticketIds"`
	Recipients    []Recipient   `json:"recipients"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

func NewTicketLifecycleEvent(t LifecycleType, reservationID string, eventID uuid.UUID) *TicketLifecycleEvent {
	return &TicketLifecycleEvent{
		ID:            uuid.New(),
		Type:          t,
		ReservationID: reservationID,
		EventID:       eventID,
		OccurredAt:    time.Now().UTC(),
	}
}

// PartitionKey keeps every message of a reservation on one partition
func (e *TicketLifecycleEvent) PartitionKey() string {
	if e.ReservationID != "" {
		return e.ReservationID
	}
	if len(e.TicketIDs) > 0 {
		return e.TicketIDs[0].String()
	}
	return e.ID.String()
}

func (e *TicketLifecycleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e *TicketLifecycleEvent) Subject() string {
	switch e.Type {
	case TypeTicketIssued:
		return "Your tickets for " + e.EventName
	case TypeTicketValidated:
		return "Welcome to " + e.EventName
	case TypeTicketCancelled:
		return "Ticket cancelled for " + e.EventName
	default:
		return "Update from Ticketing"
	}
}
