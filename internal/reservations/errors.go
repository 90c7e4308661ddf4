package reservations

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticketing/internal/events"
	"ticketing/internal/shared/apperrors"
)

var (
	ErrReservationNotFound   = apperrors.NotFound("RESERVATION_NOT_FOUND", "reservation not found")
	ErrReservationInFlight   = apperrors.Conflict("RESERVATION_IN_PROGRESS", "a reservation with this idempotency key is still being processed")
	ErrInvalidIdempotencyKey = apperrors.Invalid("INVALID_IDEMPOTENCY_KEY", "idempotency key must be 1 to 128 characters")
)

type InvalidParticipantCountError struct {
	Count int `json:"count"`
	Min   int `json:"min"`
	Max   int `json:"max"`
}

func (e *InvalidParticipantCountError) Error() string {
	return fmt.Sprintf("a reservation needs between %d and %d participants, got %d", e.Min, e.Max, e.Count)
}

func (e *InvalidParticipantCountError) Kind() apperrors.Kind { return apperrors.KindInvalid }
func (e *InvalidParticipantCountError) Code() string         { return "INVALID_PARTICIPANT_COUNT" }

// ValidationError reports malformed participant data
type ValidationError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("participant %d: %s %s", e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Kind() apperrors.Kind { return apperrors.KindInvalid }
func (e *ValidationError) Code() string         { return "INVALID_PARTICIPANT" }

type EventNotPublishedError struct {
	EventID uuid.UUID     `json:"eventId"`
	Status  events.Status `json:"status"`
}

func (e *EventNotPublishedError) Error() string {
	return fmt.Sprintf("event %s is %s, tickets are only sold for published events", e.EventID, e.Status)
}

func (e *EventNotPublishedError) Kind() apperrors.Kind { return apperrors.KindPrecondition }
func (e *EventNotPublishedError) Code() string         { return "EVENT_NOT_PUBLISHED" }

type ZoneInactiveError struct {
	ZoneID uuid.UUID `json:"audienceZoneId"`
}

func (e *ZoneInactiveError) Error() string {
	return fmt.Sprintf("audience zone %s is not open for sale", e.ZoneID)
}

func (e *ZoneInactiveError) Kind() apperrors.Kind { return apperrors.KindPrecondition }
func (e *ZoneInactiveError) Code() string         { return "ZONE_INACTIVE" }

type EventEndedError struct {
	EventID uuid.UUID `json:"eventId"`
	EndDate time.Time `json:"endDate"`
}

func (e *EventEndedError) Error() string {
	return fmt.Sprintf("event %s ended at %s", e.EventID, e.EndDate.Format(time.RFC3339))
}

func (e *EventEndedError) Kind() apperrors.Kind { return apperrors.KindPrecondition }
func (e *EventEndedError) Code() string         { return "EVENT_ENDED" }

// CapacityExceededError carries the remaining capacity so the caller can shrink the request
type CapacityExceededError struct {
	Requested int `json:"requested"`
	Remaining int `json:"remaining"`
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("requested %d tickets but only %d remain", e.Requested, e.Remaining)
}

func (e *CapacityExceededError) Kind() apperrors.Kind { return apperrors.KindConflict }
func (e *CapacityExceededError) Code() string         { return "CAPACITY_EXCEEDED" }
